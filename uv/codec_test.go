package uv

import (
	"math"
	"testing"
)

// encodeCoordinate produces the channel value a baker would store for a
// texel index, targeting the center of the oversampled cell.
func encodeCoordinate(idx, size int) uint16 {
	grid := size*SmoothingScale - 1
	coord := idx*SmoothingScale + SmoothingScale/2
	return uint16(math.Round(float64(coord) / float64(grid) * math.MaxUint16))
}

func encodeU(u int) uint16 { return encodeCoordinate(u, SkinSize) }

// encodeV stores 1 - V, mirroring what DecodePixel undoes.
func encodeV(v int) uint16 { return encodeCoordinate((SkinSize-1)-v, SkinSize) }

func TestDecodePixelCutoff(t *testing.T) {
	tests := []struct {
		name  string
		alpha uint16
		want  bool
	}{
		{"FullyTransparent", 0, false},
		{"JustBelowCutoff", TransparencyCutoff - 1, false},
		{"ExactlyAtCutoff", TransparencyCutoff, false},
		{"OneAboveCutoff", TransparencyCutoff + 1, true},
		{"FullyOpaque", math.MaxUint16, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodePixel([4]uint16{0, 0, 0, tt.alpha}, 0, 0, false)
			if ok != tt.want {
				t.Errorf("alpha %d: retained = %v, want %v", tt.alpha, ok, tt.want)
			}
			// The cutoff applies identically to raw-color pixels.
			_, ok = DecodePixel([4]uint16{0, 0, 0, tt.alpha}, 0, 0, true)
			if ok != tt.want {
				t.Errorf("alpha %d (raw): retained = %v, want %v", tt.alpha, ok, tt.want)
			}
		})
	}
}

func TestDecodePixelSample(t *testing.T) {
	tests := []struct {
		name  string
		u, v  int
		depth uint16
	}{
		{"Origin", 0, 0, 0},
		{"HeadTexel", 8, 8, 100},
		{"ArmTexel", 40, 16, 50},
		{"FarCorner", 63, 63, math.MaxUint16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := [4]uint16{encodeU(tt.u), encodeV(tt.v), tt.depth, math.MaxUint16}
			p, ok := DecodePixel(raw, 3, 5, false)
			if !ok {
				t.Fatal("opaque pixel not retained")
			}
			if p.Kind != SamplePixel {
				t.Fatalf("Kind = %v, want SamplePixel", p.Kind)
			}
			if p.X != 3 || p.Y != 5 {
				t.Errorf("target = (%d, %d), want (3, 5)", p.X, p.Y)
			}
			if int(p.U) != tt.u || int(p.V) != tt.v {
				t.Errorf("sample = (%d, %d), want (%d, %d)", p.U, p.V, tt.u, tt.v)
			}
			if p.Depth != tt.depth {
				t.Errorf("Depth = %d, want %d (passed through unchanged)", p.Depth, tt.depth)
			}
		})
	}
}

func TestDecodePixelMirrorsV(t *testing.T) {
	// Channel 1 stores 1 - V: a zero channel decodes to the bottom texel
	// and a full channel to the top one.
	p, _ := DecodePixel([4]uint16{0, 0, 0, math.MaxUint16}, 0, 0, false)
	if p.V != SkinSize-1 {
		t.Errorf("V for zero channel = %d, want %d", p.V, SkinSize-1)
	}
	p, _ = DecodePixel([4]uint16{0, math.MaxUint16, 0, math.MaxUint16}, 0, 0, false)
	if p.V != 0 {
		t.Errorf("V for full channel = %d, want 0", p.V)
	}
}

// TestQuantizationRoundTrip verifies that encoding any texel index at the
// atlas's working precision and decoding it back selects the same texel a
// direct nearest-neighbor sample would.
func TestQuantizationRoundTrip(t *testing.T) {
	for u := 0; u < SkinSize; u++ {
		for v := 0; v < SkinSize; v++ {
			raw := [4]uint16{encodeU(u), encodeV(v), 0, math.MaxUint16}
			p, ok := DecodePixel(raw, 0, 0, false)
			if !ok {
				t.Fatalf("texel (%d, %d) not retained", u, v)
			}
			if int(p.U) != u || int(p.V) != v {
				t.Fatalf("texel (%d, %d) decoded as (%d, %d)", u, v, p.U, p.V)
			}
		}
	}
}

func TestDecodePixelRaw(t *testing.T) {
	raw := [4]uint16{math.MaxUint16, 0, 32768, math.MaxUint16}
	p, ok := DecodePixel(raw, 7, 9, true)
	if !ok {
		t.Fatal("opaque raw pixel not retained")
	}
	if p.Kind != RawPixel {
		t.Fatalf("Kind = %v, want RawPixel", p.Kind)
	}
	if p.X != 7 || p.Y != 9 {
		t.Errorf("target = (%d, %d), want (7, 9)", p.X, p.Y)
	}
	want := [4]uint8{255, 0, 127, 255}
	if p.RGBA != want {
		t.Errorf("RGBA = %v, want %v", p.RGBA, want)
	}
}

func TestWiden16(t *testing.T) {
	if got := Widen16(0); got != 0 {
		t.Errorf("Widen16(0) = %d, want 0", got)
	}
	if got := Widen16(255); got != math.MaxUint16 {
		t.Errorf("Widen16(255) = %d, want %d", got, math.MaxUint16)
	}
	if got := Widen16(128); got != 128*257 {
		t.Errorf("Widen16(128) = %d, want %d", got, 128*257)
	}
}

func TestDecodePixelDeterministic(t *testing.T) {
	raw := [4]uint16{12345, 54321, 7, math.MaxUint16}
	first, _ := DecodePixel(raw, 1, 2, false)
	for i := 0; i < 100; i++ {
		p, _ := DecodePixel(raw, 1, 2, false)
		if p != first {
			t.Fatalf("decode not deterministic: %+v != %+v", p, first)
		}
	}
}
