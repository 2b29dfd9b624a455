package render

import (
	"errors"
	"image"
	"math"
	"sort"

	"github.com/flatpose/flatpose/parts"
	"github.com/flatpose/flatpose/uv"
)

// ErrNoParts is returned when a render has zero contributing pixels. A part
// merely absent for a model/layer combination is not an error; an entirely
// empty result is.
var ErrNoParts = errors.New("render: no parts found")

// fragment is one flattened contribution: a painted color at an output
// position, ordered by depth rank.
type fragment struct {
	depth      uint16
	x, y       uint16
	r, g, b, a uint16
}

// Render composites the entry against the repository in five ordered
// phases: select atlases, apply and overlay-modulate each (in parallel),
// flatten every contribution, stable-sort by depth ascending, and paint
// back-to-front. Higher depth paints later and therefore ends up on top.
//
// Same entry, same repository: byte-identical output, always.
func (e *Entry) Render(repo *parts.Repository) (*image.NRGBA64, error) {
	atlases := repo.PartsFor(e.query())

	// Apply + overlay, independent per atlas.
	applied := make([]*image.NRGBA64, len(atlases))
	err := parallelForEach(len(atlases), func(i int) error {
		img, err := atlases[i].Apply(e.Skin)
		if err != nil {
			return err
		}
		if overlay, ok := repo.OverlayFor(atlases[i].Name); ok {
			modulate(img, overlay)
		}
		applied[i] = img
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Flatten. Atlas order is name-sorted, and pixels are in scan order
	// within each atlas, so equal depths resolve deterministically below.
	var frags []fragment
	for i, a := range atlases {
		img := applied[i]
		for j := range a.Pixels {
			p := &a.Pixels[j]
			if p.Kind != uv.SamplePixel {
				continue
			}
			o := img.PixOffset(int(p.X), int(p.Y))
			s := img.Pix[o : o+8 : o+8]
			frags = append(frags, fragment{
				depth: p.Depth,
				x:     p.X,
				y:     p.Y,
				r:     uint16(s[0])<<8 | uint16(s[1]),
				g:     uint16(s[2])<<8 | uint16(s[3]),
				b:     uint16(s[4])<<8 | uint16(s[5]),
				a:     uint16(s[6])<<8 | uint16(s[7]),
			})
		}
	}
	if len(frags) == 0 {
		return nil, ErrNoParts
	}

	// Global sort: depth ascending only, ties keep flatten order.
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].depth < frags[j].depth })

	// Paint.
	width, height := repo.Size()
	out := image.NewNRGBA64(image.Rect(0, 0, width, height))

	if bg, ok := repo.Background(); ok {
		stampBackground(out, bg)
	}

	for i := range frags {
		f := &frags[i]
		if f.a == 0 {
			continue
		}
		blendOver(out, f)
	}

	return out, nil
}

// modulate multiplies each channel of the applied image, alpha included, by
// the overlay's corresponding channel fraction at every position the
// overlay defines. This is a per-channel multiplicative modulation for
// uniform tinting of a sub-region, not an alpha-over blend: a pure-white
// overlay is a no-op, a pure-black one zeroes its footprint, and the result
// can never exceed either operand.
func modulate(img *image.NRGBA64, overlay *uv.Atlas) {
	for i := range overlay.Pixels {
		p := &overlay.Pixels[i]
		if p.Kind != uv.RawPixel {
			continue
		}
		o := img.PixOffset(int(p.X), int(p.Y))
		s := img.Pix[o : o+8 : o+8]
		for c := 0; c < 4; c++ {
			v := uint16(s[2*c])<<8 | uint16(s[2*c+1])
			m := uint16(float64(v) * float64(p.RGBA[c]) / float64(math.MaxUint8))
			s[2*c] = uint8(m >> 8)
			s[2*c+1] = uint8(m)
		}
	}
}

// stampBackground writes the background's raw pixels directly, overwriting
// rather than compositing. Background pixels are always either fully
// defined or fully absent.
func stampBackground(out *image.NRGBA64, bg *uv.Atlas) {
	for i := range bg.Pixels {
		p := &bg.Pixels[i]
		if p.Kind != uv.RawPixel {
			continue
		}
		o := out.PixOffset(int(p.X), int(p.Y))
		s := out.Pix[o : o+8 : o+8]
		for c := 0; c < 4; c++ {
			v := uv.Widen16(p.RGBA[c])
			s[2*c] = uint8(v >> 8)
			s[2*c+1] = uint8(v)
		}
	}
}

// blendOver source-over composites a fragment onto the output:
//
//	out  = src*srcA + dst*(1-srcA)
//	outA = srcA + dstA*(1-srcA)
func blendOver(out *image.NRGBA64, f *fragment) {
	o := out.PixOffset(int(f.x), int(f.y))
	s := out.Pix[o : o+8 : o+8]

	dr := uint16(s[0])<<8 | uint16(s[1])
	dg := uint16(s[2])<<8 | uint16(s[3])
	db := uint16(s[4])<<8 | uint16(s[5])
	da := uint16(s[6])<<8 | uint16(s[7])

	const maxC = float64(math.MaxUint16)
	sa := float64(f.a) / maxC
	inv := 1 - sa

	r := uint16(math.Round(float64(f.r)*sa + float64(dr)*inv))
	g := uint16(math.Round(float64(f.g)*sa + float64(dg)*inv))
	b := uint16(math.Round(float64(f.b)*sa + float64(db)*inv))
	a := uint16(math.Round((sa + float64(da)/maxC*inv) * maxC))

	s[0], s[1] = uint8(r>>8), uint8(r)
	s[2], s[3] = uint8(g>>8), uint8(g)
	s[4], s[5] = uint8(b>>8), uint8(b)
	s[6], s[7] = uint8(a>>8), uint8(a)
}
