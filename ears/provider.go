package ears

import (
	"errors"
	"io/fs"

	"github.com/flatpose/flatpose/parts"
	"github.com/flatpose/flatpose/uv"
)

// DirName is the subtree of a parts root that holds the ears atlases.
const DirName = "ears"

// Provider resolves ears feature sets against its own parts tree. It
// implements parts.Extension and is immutable after construction.
type Provider struct {
	repo *parts.Repository
}

// NewProvider loads the provider's parts tree. The tree follows the same
// layout rules as any other parts root (model directories, overlays/).
func NewProvider(fsys fs.FS) (*Provider, error) {
	repo, err := parts.New(fsys)
	if err != nil {
		return nil, err
	}
	return &Provider{repo: repo}, nil
}

// Load looks for the conventional ears/ subtree under a parts root and
// builds a Provider from it. It returns nil without error when the subtree
// does not exist.
func Load(root fs.FS) (*Provider, error) {
	if _, err := fs.Stat(root, DirName); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	sub, err := fs.Sub(root, DirName)
	if err != nil {
		return nil, err
	}
	return NewProvider(sub)
}

// PartsFor resolves the query's feature set into this provider's atlases.
// Queries without an ears feature set contribute nothing.
func (p *Provider) PartsFor(q parts.Query) []*uv.Atlas {
	features, ok := q.Features.(*FeatureSet)
	if !ok || features == nil {
		return nil
	}

	var out []*uv.Atlas
	for _, name := range features.PartNames(q.Model) {
		if a, found := p.repo.Lookup(name); found {
			out = append(out, a)
		}
	}
	return out
}

// OverlayFor returns the provider's overlay for an atlas key, if any.
func (p *Provider) OverlayFor(name string) (*uv.Atlas, bool) {
	return p.repo.OverlayFor(name)
}
