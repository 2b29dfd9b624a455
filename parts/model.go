// Package parts loads and indexes named baked atlases into a Repository
// and answers which atlases apply to a render request.
//
// A parts tree on storage is laid out as:
//
//	root/{genericFiles}          atlases for any model
//	root/Alex/..., root/Steve/   per-model atlases
//	root/overlays/               raw-color overlays mirroring both passes
//	root/environment_background.png
//
// The Repository is built once at startup and is immutable afterwards; it
// may be shared, read-only, across any number of concurrent renders.
package parts

// Model selects one of the two supported avatar skeleton proportions.
type Model uint8

const (
	// ModelSteve is the classic model with 4-pixel-wide arms.
	ModelSteve Model = iota

	// ModelAlex is the slim model with 3-pixel-wide arms.
	ModelAlex
)

// ModelFromSlim maps the skin's slim-arms flag to its model.
func ModelFromSlim(slim bool) Model {
	if slim {
		return ModelAlex
	}
	return ModelSteve
}

// DirName returns the storage directory name for the model. It is also the
// prefix under which the model's atlases are keyed.
func (m Model) DirName() string {
	if m == ModelAlex {
		return "Alex"
	}
	return "Steve"
}

func (m Model) String() string { return m.DirName() }
