// Package uv implements the baked-atlas pixel codec and the Atlas type.
//
// A baked atlas is a 4-channel, 16-bit-per-channel image produced by a
// one-time offline render of the 3D player model. Each pixel either encodes
// a coordinate-sample instruction (which skin texel to copy to this output
// position, and at what depth rank) or, for overlays and the background, a
// literal color. Decoding happens once at load time; rendering replays the
// retained pixels against any number of skin textures.
package uv

import "math"

// Channel semantics of a coordinate-encoded atlas pixel:
//
//	channel 0 - normalized source U
//	channel 1 - normalized (1 - source V), mirrored back on decode
//	channel 2 - depth rank, passed through unchanged
//	channel 3 - opacity, used only for the transparency cutoff test
const (
	// TransparencyCutoff is the opacity threshold below which (inclusive)
	// a baked pixel is dropped at load time. Any compatible baker must use
	// the same value.
	TransparencyCutoff uint16 = 64854

	// SmoothingScale is the oversampling factor applied to coordinate
	// quantization. Baking at SmoothingScale times the skin resolution and
	// dividing back down reduces banding at part edges.
	SmoothingScale = 64

	// SkinSize is the canonical edge length of a sanitized skin texture.
	SkinSize = 64
)

// PixelKind discriminates the two pixel variants an atlas can hold.
type PixelKind uint8

const (
	// SamplePixel copies a skin texel to the target position.
	SamplePixel PixelKind = iota

	// RawPixel carries a literal color (overlays and background).
	RawPixel
)

// Pixel is one retained atlas pixel. It is a tagged variant: X and Y are
// always the target position; U, V and Depth are set only for SamplePixel,
// RGBA only for RawPixel.
type Pixel struct {
	Kind PixelKind
	X, Y uint16
	U, V uint16
	// Depth orders paint operations only; it is not a physical distance.
	// Higher depth paints later and therefore shows on top.
	Depth uint16
	RGBA  [4]uint8
}

// resolveCoordinate re-quantizes a normalized channel value into a discrete
// source-texel index for a texture of the given edge length. The value is
// scaled into the oversampled grid, rounded half away from zero, then
// divided back down.
func resolveCoordinate(value uint16, size int) int {
	grid := size*SmoothingScale - 1
	normalized := float64(value) / float64(math.MaxUint16)
	return int(math.Round(normalized*float64(grid))) / SmoothingScale
}

// DecodePixel decodes one baked pixel at target position (x, y).
// It returns false when the pixel's opacity does not exceed
// TransparencyCutoff; such pixels are dropped entirely, not stored as
// transparent. With storeRaw set the channels are kept as a literal color,
// downsampled to 8 bits. Otherwise the channels are interpreted as a
// coordinate-sample instruction against a SkinSize x SkinSize texture.
//
// DecodePixel is pure and deterministic; it is the single source of truth
// for coordinate quantization.
func DecodePixel(p [4]uint16, x, y int, storeRaw bool) (Pixel, bool) {
	if p[3] <= TransparencyCutoff {
		return Pixel{}, false
	}

	if storeRaw {
		return Pixel{
			Kind: RawPixel,
			X:    uint16(x),
			Y:    uint16(y),
			RGBA: [4]uint8{narrow8(p[0]), narrow8(p[1]), narrow8(p[2]), narrow8(p[3])},
		}, true
	}

	u := resolveCoordinate(p[0], SkinSize)
	// Channel 1 stores 1 - V, so mirror the resolved index back.
	v := (SkinSize - 1) - resolveCoordinate(p[1], SkinSize)

	return Pixel{
		Kind:  SamplePixel,
		X:     uint16(x),
		Y:     uint16(y),
		U:     uint16(u),
		V:     uint16(v),
		Depth: p[2],
	}, true
}

// narrow8 downsamples a 16-bit channel to 8 bits, truncating.
func narrow8(v uint16) uint8 {
	return uint8(float32(v) * (float32(math.MaxUint8) / float32(math.MaxUint16)))
}

// Widen16 expands an 8-bit channel back to 16 bits (exact: v * 65535 / 255).
func Widen16(v uint8) uint16 {
	return uint16(v) * 257
}
