// Package render turns a sanitized skin and a parts repository into the
// final avatar image.
//
// An Entry is the immutable per-request value: the sanitized skin widened
// to 16 bits, the body model, layer visibility, and an optional externally
// resolved feature set for extension atlases. Entries are built fresh per
// request, never shared, and discarded after the render completes.
package render

import (
	"image"

	"github.com/flatpose/flatpose/parts"
	"github.com/flatpose/flatpose/skin"
)

// Entry is one render request. All fields are set at construction and
// never mutated afterwards.
type Entry struct {
	// Skin is the sanitized skin texture, widened to 16 bits per channel
	// with straight (non-premultiplied) alpha.
	Skin *image.NRGBA64

	// Model selects which per-model atlases apply.
	Model parts.Model

	// Layers controls visibility of the secondary skin layers.
	Layers bool

	// Features is an opaque, externally resolved feature set consumed only
	// by extension providers during part selection. Nil means none.
	Features any
}

// EntryOption configures an Entry during construction.
type EntryOption func(*Entry)

// WithFeatures attaches an externally resolved feature set to the entry.
// The renderer never interprets it; extension providers do.
func WithFeatures(features any) EntryOption {
	return func(e *Entry) {
		e.Features = features
	}
}

// NewEntry sanitizes a raw skin texture and builds the request value.
// A skin the sanitizer rejects fails the request here, before any atlas
// work happens.
func NewEntry(rawSkin image.Image, slim, layers bool, opts ...EntryOption) (*Entry, error) {
	sanitized, err := skin.Sanitize(rawSkin)
	if err != nil {
		return nil, err
	}

	e := &Entry{
		Skin:   widenSkin(sanitized),
		Model:  parts.ModelFromSlim(slim),
		Layers: layers,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Entry) query() parts.Query {
	return parts.Query{Model: e.Model, Layers: e.Layers, Features: e.Features}
}

// widenSkin expands an 8-bit skin to 16 bits per channel (v * 257, exact).
// Atlas application copies skin texels verbatim into the 16-bit output, so
// the widening happens once per request instead of once per sample.
func widenSkin(src *image.NRGBA) *image.NRGBA64 {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := src.PixOffset(src.Rect.Min.X, src.Rect.Min.Y+y)
		di := dst.PixOffset(0, y)
		for x := 0; x < w; x++ {
			for c := 0; c < 4; c++ {
				v := src.Pix[si+c]
				dst.Pix[di+2*c] = v
				dst.Pix[di+2*c+1] = v
			}
			si += 4
			di += 8
		}
	}
	return dst
}
