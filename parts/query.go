package parts

import (
	"sort"
	"strings"

	"github.com/flatpose/flatpose/uv"
)

// Query describes which atlases a render request needs: the skin's model,
// whether secondary-layer parts are visible, and an opaque, externally
// resolved feature set consumed only by extension providers.
type Query struct {
	Model    Model
	Layers   bool
	Features any
}

// layerMarker tags atlas keys that render a secondary skin layer.
const layerMarker = "Layer"

func isLayerPart(name string) bool {
	return strings.Contains(name, layerMarker)
}

// PartsFor returns every atlas contributing to the query: all generic
// atlases, the per-model atlases matching the query's model, and whatever
// the registered extensions resolve from the query's feature set. Layer
// parts are excluded when the query has layers off. The result is sorted
// by key for determinism.
func (r *Repository) PartsFor(q Query) []*uv.Atlas {
	out := make([]*uv.Atlas, 0, len(r.generic)+8)

	for _, a := range r.generic {
		if !q.Layers && isLayerPart(a.Name) {
			continue
		}
		out = append(out, a)
	}

	prefix := q.Model.DirName()
	for _, a := range r.model {
		if !strings.HasPrefix(a.Name, prefix) {
			continue
		}
		if !q.Layers && isLayerPart(a.Name) {
			continue
		}
		out = append(out, a)
	}

	for _, ext := range r.extensions {
		out = append(out, ext.PartsFor(q)...)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// OverlayFor returns the overlay atlas whose key equals name, consulting
// the built-in overlay pool first, then the extensions in registration
// order.
func (r *Repository) OverlayFor(name string) (*uv.Atlas, bool) {
	if a, ok := r.overlays[name]; ok {
		return a, true
	}
	for _, ext := range r.extensions {
		if a, ok := ext.OverlayFor(name); ok {
			return a, true
		}
	}
	return nil, false
}

// Lookup finds an atlas by exact key in the generic pool, then the
// per-model pool. Extension providers use it to resolve part names against
// their own trees.
func (r *Repository) Lookup(name string) (*uv.Atlas, bool) {
	if a, ok := r.generic[name]; ok {
		return a, true
	}
	if a, ok := r.model[name]; ok {
		return a, true
	}
	return nil, false
}
