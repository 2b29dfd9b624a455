package uv

import (
	"fmt"
	"image"
	"image/color"
)

// Atlas is one named baked image: the retained decoded pixels of a single
// renderable part at the fixed camera pose. An Atlas is created once at
// repository construction and never mutated afterwards, so it is safe to
// share across concurrent renders.
type Atlas struct {
	// Name is the lookup key, derived from the source filename.
	Name string

	// Width and Height are the atlas (and therefore output) dimensions.
	Width, Height int

	// Raw records whether the atlas was loaded with literal colors
	// (overlays, background) instead of coordinate-encoded pixels.
	Raw bool

	// Pixels holds every pixel that survived the transparency cutoff,
	// in row-major scan order.
	Pixels []Pixel
}

// CoordinateError reports a decoded sample coordinate outside the skin
// texture's bounds. It signals a baked-atlas/skin-resolution mismatch, a
// data-contract violation rather than a recoverable condition.
type CoordinateError struct {
	U, V int
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("uv: sample coordinate (%d, %d) outside skin bounds", e.U, e.V)
}

// NewAtlas decodes every pixel of img through the codec and keeps only
// those that decode to something. Sub-cutoff pixels are discarded here, at
// load time.
func NewAtlas(name string, img image.Image, storeRaw bool) *Atlas {
	b := img.Bounds()
	a := &Atlas{
		Name:   name,
		Width:  b.Dx(),
		Height: b.Dy(),
		Raw:    storeRaw,
	}

	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			raw := channelsAt(img, b.Min.X+x, b.Min.Y+y)
			if p, ok := DecodePixel(raw, x, y, storeRaw); ok {
				a.Pixels = append(a.Pixels, p)
			}
		}
	}

	return a
}

// Apply samples the skin texture through every retained sample pixel,
// copying skin[U, V] verbatim (including its alpha) to the pixel's target
// position. Every other position of the returned image stays fully empty.
// Raw-color pixels do not sample and are skipped.
//
// A sample coordinate outside the skin's bounds returns a *CoordinateError;
// coordinates are never clamped.
func (a *Atlas) Apply(skin *image.NRGBA64) (*image.NRGBA64, error) {
	out := image.NewNRGBA64(image.Rect(0, 0, a.Width, a.Height))
	sb := skin.Bounds()
	sw, sh := sb.Dx(), sb.Dy()

	for i := range a.Pixels {
		p := &a.Pixels[i]
		if p.Kind != SamplePixel {
			continue
		}
		u, v := int(p.U), int(p.V)
		if u >= sw || v >= sh {
			return nil, &CoordinateError{U: u, V: v}
		}
		si := skin.PixOffset(sb.Min.X+u, sb.Min.Y+v)
		di := out.PixOffset(int(p.X), int(p.Y))
		copy(out.Pix[di:di+8], skin.Pix[si:si+8])
	}

	return out, nil
}

// channelsAt returns the straight (non-premultiplied) 16-bit channels of a
// pixel. Atlas channels are data, not color: premultiplying would corrupt
// the encoded coordinates, so the NRGBA64 representation is read directly
// when available.
func channelsAt(img image.Image, x, y int) [4]uint16 {
	switch im := img.(type) {
	case *image.NRGBA64:
		i := im.PixOffset(x, y)
		s := im.Pix[i : i+8 : i+8]
		return [4]uint16{
			uint16(s[0])<<8 | uint16(s[1]),
			uint16(s[2])<<8 | uint16(s[3]),
			uint16(s[4])<<8 | uint16(s[5]),
			uint16(s[6])<<8 | uint16(s[7]),
		}
	default:
		c := color.NRGBA64Model.Convert(img.At(x, y)).(color.NRGBA64)
		return [4]uint16{c.R, c.G, c.B, c.A}
	}
}
