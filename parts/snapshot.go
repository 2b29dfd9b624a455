package parts

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/flatpose/flatpose/internal/wire"
	"github.com/flatpose/flatpose/uv"
)

// A snapshot is a fully decoded Repository serialized to a single file,
// skipping PNG decoding and pixel filtering at startup. The payload is a
// little-endian binary layout (internal/wire) wrapped in a zstd frame.
//
// Layout, after decompression:
//
//	u32 magic "FPAT", u16 version
//	u16 width, u16 height
//	pool x3 (generic, model, overlays): u32 count, then atlases
//	u8 background-present, then the background atlas if set
//
// Each atlas: name (u16-prefixed string), u8 raw flag, u16 width,
// u16 height, u32 pixel count, then per pixel: u8 kind, u16 x, u16 y and
// either u16 u, u16 v, u16 depth (sample) or 4 raw color bytes.

const (
	snapshotMagic   uint32 = 0x54415046 // "FPAT" little-endian
	snapshotVersion uint16 = 1
)

// Snapshot errors
var (
	ErrSnapshotMagic   = errors.New("parts: not a snapshot file")
	ErrSnapshotVersion = errors.New("parts: unsupported snapshot version")
)

// WriteSnapshot serializes the repository to w as a zstd-compressed
// snapshot. Pools are written in sorted key order so the output is
// byte-identical for identical repositories.
func WriteSnapshot(w io.Writer, r *Repository) error {
	enc := wire.NewWriter(1 << 20)
	enc.Uint32(snapshotMagic)
	enc.Uint16(snapshotVersion)
	enc.Uint16(uint16(r.width))
	enc.Uint16(uint16(r.height))

	for _, pool := range []map[string]*uv.Atlas{r.generic, r.model, r.overlays} {
		writePool(enc, pool)
	}

	if r.background != nil {
		enc.Uint8(1)
		writeAtlas(enc, r.background)
	} else {
		enc.Uint8(0)
	}

	// Single-threaded encoding keeps the frame layout reproducible, which
	// the byte-identical-output guarantee depends on.
	zw, err := zstd.NewWriter(w, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return fmt.Errorf("parts: creating snapshot writer: %w", err)
	}
	if _, err := zw.Write(enc.Data()); err != nil {
		zw.Close()
		return fmt.Errorf("parts: writing snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("parts: flushing snapshot: %w", err)
	}
	return nil
}

func writePool(enc *wire.Writer, pool map[string]*uv.Atlas) {
	keys := make([]string, 0, len(pool))
	for k := range pool {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	enc.Uint32(uint32(len(keys)))
	for _, k := range keys {
		writeAtlas(enc, pool[k])
	}
}

func writeAtlas(enc *wire.Writer, a *uv.Atlas) {
	enc.String(a.Name)
	if a.Raw {
		enc.Uint8(1)
	} else {
		enc.Uint8(0)
	}
	enc.Uint16(uint16(a.Width))
	enc.Uint16(uint16(a.Height))
	enc.Uint32(uint32(len(a.Pixels)))
	for i := range a.Pixels {
		p := &a.Pixels[i]
		enc.Uint8(uint8(p.Kind))
		enc.Uint16(p.X)
		enc.Uint16(p.Y)
		if p.Kind == uv.SamplePixel {
			enc.Uint16(p.U)
			enc.Uint16(p.V)
			enc.Uint16(p.Depth)
		} else {
			enc.Bytes(p.RGBA[:])
		}
	}
}

// ReadSnapshot rebuilds a Repository from a snapshot produced by
// WriteSnapshot. Options apply exactly as they do for New.
func ReadSnapshot(src io.Reader, opts ...Option) (*Repository, error) {
	zr, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("parts: opening snapshot: %w", err)
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("parts: reading snapshot: %w", err)
	}

	dec := wire.NewReader(data)
	if magic, err := dec.Uint32(); err != nil {
		return nil, err
	} else if magic != snapshotMagic {
		return nil, ErrSnapshotMagic
	}
	if version, err := dec.Uint16(); err != nil {
		return nil, err
	} else if version != snapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrSnapshotVersion, version)
	}

	r := &Repository{
		generic:  make(map[string]*uv.Atlas),
		model:    make(map[string]*uv.Atlas),
		overlays: make(map[string]*uv.Atlas),
	}
	for _, opt := range opts {
		opt(r)
	}

	width, err := dec.Uint16()
	if err != nil {
		return nil, err
	}
	height, err := dec.Uint16()
	if err != nil {
		return nil, err
	}
	r.width, r.height = int(width), int(height)

	for _, pool := range []map[string]*uv.Atlas{r.generic, r.model, r.overlays} {
		if err := readPool(dec, pool); err != nil {
			return nil, err
		}
	}

	hasBackground, err := dec.Uint8()
	if err != nil {
		return nil, err
	}
	if hasBackground != 0 {
		bg, err := readAtlas(dec)
		if err != nil {
			return nil, err
		}
		r.background = bg
	}

	return r, nil
}

func readPool(dec *wire.Reader, pool map[string]*uv.Atlas) error {
	n, err := dec.Uint32()
	if err != nil {
		return err
	}
	for i := uint32(0); i < n; i++ {
		a, err := readAtlas(dec)
		if err != nil {
			return err
		}
		pool[a.Name] = a
	}
	return nil
}

func readAtlas(dec *wire.Reader) (*uv.Atlas, error) {
	name, err := dec.String()
	if err != nil {
		return nil, err
	}
	raw, err := dec.Uint8()
	if err != nil {
		return nil, err
	}
	width, err := dec.Uint16()
	if err != nil {
		return nil, err
	}
	height, err := dec.Uint16()
	if err != nil {
		return nil, err
	}
	count, err := dec.Uint32()
	if err != nil {
		return nil, err
	}

	a := &uv.Atlas{
		Name:   name,
		Width:  int(width),
		Height: int(height),
		Raw:    raw != 0,
		Pixels: make([]uv.Pixel, 0, count),
	}

	for i := uint32(0); i < count; i++ {
		var p uv.Pixel
		kind, err := dec.Uint8()
		if err != nil {
			return nil, err
		}
		p.Kind = uv.PixelKind(kind)
		if p.X, err = dec.Uint16(); err != nil {
			return nil, err
		}
		if p.Y, err = dec.Uint16(); err != nil {
			return nil, err
		}
		if p.Kind == uv.SamplePixel {
			if p.U, err = dec.Uint16(); err != nil {
				return nil, err
			}
			if p.V, err = dec.Uint16(); err != nil {
				return nil, err
			}
			if p.Depth, err = dec.Uint16(); err != nil {
				return nil, err
			}
		} else {
			b, err := dec.Bytes(4)
			if err != nil {
				return nil, err
			}
			copy(p.RGBA[:], b)
		}
		a.Pixels = append(a.Pixels, p)
	}

	return a, nil
}
