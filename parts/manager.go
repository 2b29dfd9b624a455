package parts

import (
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"path"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flatpose/flatpose"
	"github.com/flatpose/flatpose/uv"
)

// BackgroundFileName is the reserved filename of the single raw-color
// background atlas at the root of a parts tree.
const BackgroundFileName = "environment_background.png"

const overlaysDirName = "overlays"

// Repository indexes the baked atlases of one parts tree in four pools:
// generic atlases (any model), per-model atlases (keyed with the model's
// directory name as prefix), raw-color overlays (keyed by the base atlas's
// key), and at most one raw-color background.
type Repository struct {
	width, height int

	generic  map[string]*uv.Atlas
	model    map[string]*uv.Atlas
	overlays map[string]*uv.Atlas

	background *uv.Atlas

	extensions []Extension
}

// Option configures a Repository during construction.
type Option func(*Repository)

// WithExtensions registers extension providers whose atlases and overlays
// are composed with the built-in pools during part selection.
func WithExtensions(exts ...Extension) Option {
	return func(r *Repository) {
		r.extensions = append(r.extensions, exts...)
	}
}

// New builds a Repository from a parts tree. Every file directly under the
// root loads as a generic atlas, files under the model directories as
// per-model atlases, and both passes repeat under overlays/ with raw-color
// storage. Any unreadable path aborts construction entirely; there is no
// partial repository.
func New(fsys fs.FS, opts ...Option) (*Repository, error) {
	r := &Repository{
		generic:  make(map[string]*uv.Atlas),
		model:    make(map[string]*uv.Atlas),
		overlays: make(map[string]*uv.Atlas),
	}
	for _, opt := range opts {
		opt(r)
	}

	start := time.Now()

	if err := r.loadPools(fsys, ".", r.generic, r.model, false); err != nil {
		return nil, err
	}

	if _, err := fs.Stat(fsys, overlaysDirName); err == nil {
		if err := r.loadPools(fsys, overlaysDirName, r.overlays, r.overlays, true); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("parts: reading %s: %w", overlaysDirName, err)
	}

	if err := r.loadBackground(fsys); err != nil {
		return nil, err
	}

	flatpose.Logger().Info("parts: repository loaded",
		"generic", len(r.generic),
		"model", len(r.model),
		"overlays", len(r.overlays),
		"background", r.background != nil,
		"elapsed", time.Since(start))

	return r, nil
}

// loadPools runs the generic pass directly under dir and the per-model pass
// under dir/{model} for each model, inserting into the given pools.
func (r *Repository) loadPools(fsys fs.FS, dir string, generic, model map[string]*uv.Atlas, storeRaw bool) error {
	if err := r.loadDir(fsys, dir, "", generic, storeRaw); err != nil {
		return err
	}

	for _, m := range []Model{ModelAlex, ModelSteve} {
		sub := path.Join(dir, m.DirName())
		if _, err := fs.Stat(fsys, sub); errors.Is(err, fs.ErrNotExist) {
			continue
		} else if err != nil {
			return fmt.Errorf("parts: reading %s: %w", sub, err)
		}
		if err := r.loadDir(fsys, sub, m.DirName(), model, storeRaw); err != nil {
			return err
		}
	}

	return nil
}

// loadDir decodes every part file in dir concurrently, then inserts the
// results into pool sequentially in directory order so that key collisions
// resolve deterministically (last one loaded wins).
func (r *Repository) loadDir(fsys fs.FS, dir, prefix string, pool map[string]*uv.Atlas, storeRaw bool) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("parts: reading %s: %w", dir, err)
	}

	var files []fs.DirEntry
	for _, e := range entries {
		if e.IsDir() || e.Name() == BackgroundFileName {
			continue
		}
		files = append(files, e)
	}

	atlases := make([]*uv.Atlas, len(files))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			name := prefix + partKey(f.Name())
			a, err := loadAtlas(fsys, path.Join(dir, f.Name()), name, storeRaw)
			if err != nil {
				return err
			}
			atlases[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, a := range atlases {
		if err := r.recordSize(a); err != nil {
			return err
		}
		pool[a.Name] = a
		flatpose.Logger().Debug("parts: loaded atlas",
			"name", a.Name, "raw", a.Raw, "pixels", len(a.Pixels))
	}

	return nil
}

func loadAtlas(fsys fs.FS, p, name string, storeRaw bool) (*uv.Atlas, error) {
	f, err := fsys.Open(p)
	if err != nil {
		return nil, fmt.Errorf("parts: opening %s: %w", p, err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("parts: decoding %s: %w", p, err)
	}

	return uv.NewAtlas(name, img, storeRaw), nil
}

func (r *Repository) loadBackground(fsys fs.FS) error {
	if _, err := fs.Stat(fsys, BackgroundFileName); errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return fmt.Errorf("parts: reading %s: %w", BackgroundFileName, err)
	}

	bg, err := loadAtlas(fsys, BackgroundFileName, BackgroundFileName, true)
	if err != nil {
		return err
	}
	r.background = bg
	return r.recordSize(bg)
}

// recordSize pins the repository's atlas dimensions to the first loaded
// atlas and rejects later mismatches, which indicate a broken bake.
func (r *Repository) recordSize(a *uv.Atlas) error {
	if r.width == 0 && r.height == 0 {
		r.width, r.height = a.Width, a.Height
		return nil
	}
	if a.Width != r.width || a.Height != r.height {
		return fmt.Errorf("parts: atlas %q is %dx%d, expected %dx%d",
			a.Name, a.Width, a.Height, r.width, r.height)
	}
	return nil
}

// Size returns the common atlas (and output image) dimensions.
func (r *Repository) Size() (width, height int) {
	return r.width, r.height
}

// Background returns the background atlas, if the parts tree has one.
func (r *Repository) Background() (*uv.Atlas, bool) {
	return r.background, r.background != nil
}

const asciiPunctuation = "!\"#$%&'()*+,./:;<=>?@[\\]^_`{|}~"

// partKey derives an atlas key from its filename: the leading run of
// characters up to the first ASCII digit or punctuation mark. A '-' is
// allowed through, so "above-center.png" keys as "above-center" while
// numbered variants like "Head0.png" and "Head1.png" coalesce under "Head".
func partKey(filename string) string {
	for i, c := range filename {
		if c == '-' {
			continue
		}
		if (c >= '0' && c <= '9') || strings.ContainsRune(asciiPunctuation, c) {
			return filename[:i]
		}
	}
	return filename
}
