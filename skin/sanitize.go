// Package skin normalizes raw player skin textures into the canonical form
// the renderer samples from: 64x64, 8 bits per channel, with the base-layer
// body regions forced fully opaque.
//
// Three input shapes are accepted: the canonical 64x64 layout, the legacy
// 64x32 layout (upgraded by mirroring the right limbs into the modern left
// limb slots), and integer-multiple high-resolution skins (downscaled with
// nearest-neighbor sampling so the pixel-art layout survives).
package skin

import (
	"errors"
	"fmt"
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Size is the canonical edge length of a sanitized skin.
const Size = 64

// ErrBadDimensions is returned for input textures whose dimensions cannot
// be normalized to the canonical layout.
var ErrBadDimensions = errors.New("skin: unsupported skin dimensions")

// Sanitize normalizes a raw skin texture. It is a pure function of its
// input: the original image is never modified.
func Sanitize(img image.Image) (*image.NRGBA, error) {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()

	switch {
	case w == Size && h == Size:
		// Already canonical.
	case w == Size && h == Size/2:
		src = upgradeLegacy(src)
	case w > Size && w%Size == 0 && (h == w || h*2 == w):
		src = downscale(src, Size, Size*h/w)
		if h*2 == w {
			src = upgradeLegacy(src)
		}
	default:
		return nil, fmt.Errorf("%w: %dx%d", ErrBadDimensions, w, h)
	}

	stripAlpha(src)
	return src, nil
}

func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
	return dst
}

func downscale(src *image.NRGBA, w, h int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)
	return dst
}

// faceCopy maps one cube face of a legacy skin to its modern slot. Every
// copy is mirrored horizontally: the left limbs of the modern layout face
// the opposite way.
type faceCopy struct {
	sx, sy, w, h, dx, dy int
}

var legacyFaceCopies = []faceCopy{
	// Right leg -> left leg.
	{4, 16, 4, 4, 20, 48},   // top
	{8, 16, 4, 4, 24, 48},   // bottom
	{8, 20, 4, 12, 16, 52},  // inner side
	{4, 20, 4, 12, 20, 52},  // front
	{0, 20, 4, 12, 24, 52},  // outer side
	{12, 20, 4, 12, 28, 52}, // back

	// Right arm -> left arm.
	{44, 16, 4, 4, 36, 48},
	{48, 16, 4, 4, 40, 48},
	{48, 20, 4, 12, 32, 52},
	{44, 20, 4, 12, 36, 52},
	{40, 20, 4, 12, 40, 52},
	{52, 20, 4, 12, 44, 52},
}

// upgradeLegacy converts a 64x32 skin to the modern 64x64 layout. The top
// half copies through unchanged; the left limb slots in the new bottom half
// are filled with mirrored copies of the right limb faces.
func upgradeLegacy(src *image.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(dst, image.Rect(0, 0, Size, Size/2), src, image.Point{}, draw.Src)

	for _, fc := range legacyFaceCopies {
		for y := 0; y < fc.h; y++ {
			for x := 0; x < fc.w; x++ {
				c := src.NRGBAAt(fc.sx+x, fc.sy+y)
				dst.SetNRGBA(fc.dx+(fc.w-1-x), fc.dy+y, c)
			}
		}
	}

	return dst
}

// opaqueRegions lists the base-layer cube faces of the canonical layout.
// Everything else (hat, jacket, sleeves, pants) legitimately carries alpha.
var opaqueRegions = []image.Rectangle{
	image.Rect(8, 0, 24, 8),    // head top + bottom
	image.Rect(0, 8, 32, 16),   // head sides
	image.Rect(4, 16, 12, 20),  // right leg top + bottom
	image.Rect(0, 20, 16, 32),  // right leg sides
	image.Rect(20, 16, 36, 20), // body top + bottom
	image.Rect(16, 20, 40, 32), // body sides
	image.Rect(44, 16, 52, 20), // right arm top + bottom
	image.Rect(40, 20, 56, 32), // right arm sides
	image.Rect(20, 48, 28, 52), // left leg top + bottom
	image.Rect(16, 52, 32, 64), // left leg sides
	image.Rect(36, 48, 44, 52), // left arm top + bottom
	image.Rect(32, 52, 48, 64), // left arm sides
}

// stripAlpha forces the base-layer regions fully opaque. Translucent base
// pixels would otherwise let the pose's back faces bleed through the body.
func stripAlpha(img *image.NRGBA) {
	for _, r := range opaqueRegions {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			i := img.PixOffset(r.Min.X, y)
			for x := r.Min.X; x < r.Max.X; x++ {
				img.Pix[i+3] = 0xFF
				i += 4
			}
		}
	}
}
