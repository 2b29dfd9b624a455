package parts

import "github.com/flatpose/flatpose/uv"

// Extension supplies additional atlases and overlays resolved from a
// request's feature set. It keeps the Repository decoupled from any
// specific cosmetic vocabulary: the Repository composes whatever a
// provider returns with its built-in pools, and providers interpret the
// Query's opaque Features value themselves.
//
// Implementations must be safe for concurrent use; they are called on the
// render path of every request.
type Extension interface {
	// PartsFor returns extra atlases for the query, or nil when the
	// query's feature set does not concern this provider.
	PartsFor(q Query) []*uv.Atlas

	// OverlayFor returns the provider's overlay for an atlas key, if any.
	OverlayFor(name string) (*uv.Atlas, bool)
}
