package render

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
	"testing/fstest"

	"github.com/flatpose/flatpose/parts"
	"github.com/flatpose/flatpose/uv"
)

type pixelSpec struct {
	x, y, u, v int
	depth      uint16
}

func encodeCoord(idx int) uint16 {
	grid := uv.SkinSize*uv.SmoothingScale - 1
	coord := idx*uv.SmoothingScale + uv.SmoothingScale/2
	return uint16(math.Round(float64(coord) / float64(grid) * math.MaxUint16))
}

func atlasPNG(t *testing.T, w, h int, pixels ...pixelSpec) *fstest.MapFile {
	t.Helper()
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for _, p := range pixels {
		img.SetNRGBA64(p.x, p.y, color.NRGBA64{
			R: encodeCoord(p.u),
			G: encodeCoord((uv.SkinSize - 1) - p.v),
			B: p.depth,
			A: math.MaxUint16,
		})
	}
	return encodeFile(t, img)
}

func rawPNG(t *testing.T, w, h int, colors map[image.Point]color.NRGBA64) *fstest.MapFile {
	t.Helper()
	img := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for pt, c := range colors {
		img.SetNRGBA64(pt.X, pt.Y, c)
	}
	return encodeFile(t, img)
}

func encodeFile(t *testing.T, img *image.NRGBA64) *fstest.MapFile {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}
	return &fstest.MapFile{Data: buf.Bytes()}
}

// testSkin carries opaque red at (8, 8) and opaque blue at (40, 16).
func testSkin() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	img.SetNRGBA(8, 8, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(40, 16, color.NRGBA{B: 255, A: 255})
	return img
}

var (
	red  = color.NRGBA64{R: math.MaxUint16, A: math.MaxUint16}
	blue = color.NRGBA64{B: math.MaxUint16, A: math.MaxUint16}
)

func mustRepo(t *testing.T, fsys fstest.MapFS, opts ...parts.Option) *parts.Repository {
	t.Helper()
	repo, err := parts.New(fsys, opts...)
	if err != nil {
		t.Fatalf("parts.New: %v", err)
	}
	return repo
}

func mustEntry(t *testing.T, slim, layers bool, opts ...EntryOption) *Entry {
	t.Helper()
	e, err := NewEntry(testSkin(), slim, layers, opts...)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	return e
}

func TestRenderEndToEnd(t *testing.T) {
	repo := mustRepo(t, fstest.MapFS{
		"Head.png":     atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 100}),
		"Alex/Arm.png": atlasPNG(t, 2, 2, pixelSpec{1, 0, 40, 16, 50}),
	})

	out, err := mustEntry(t, true, true).Render(repo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBA64At(0, 0); got != red {
		t.Errorf("(0, 0) = %v, want opaque red", got)
	}
	if got := out.NRGBA64At(1, 0); got != blue {
		t.Errorf("(1, 0) = %v, want opaque blue", got)
	}
	if got := out.NRGBA64At(1, 1); got != (color.NRGBA64{}) {
		t.Errorf("(1, 1) = %v, want empty", got)
	}
}

func TestRenderDepthOrder(t *testing.T) {
	// Both atlases target (0, 0). The depth-100 Head paints after the
	// depth-50 Arm and must win even though both are opaque.
	repo := mustRepo(t, fstest.MapFS{
		"Head.png":     atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 100}),
		"Alex/Arm.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 40, 16, 50}),
	})

	out, err := mustEntry(t, true, true).Render(repo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBA64At(0, 0); got != red {
		t.Errorf("(0, 0) = %v, want the deeper atlas's red", got)
	}
}

func TestRenderEqualDepthTieBreak(t *testing.T) {
	// Equal depths keep flatten order, which is name-sorted: Bbb paints
	// after Aaa and wins.
	repo := mustRepo(t, fstest.MapFS{
		"Aaa.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 7}),
		"Bbb.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 40, 16, 7}),
	})

	out, err := mustEntry(t, false, true).Render(repo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBA64At(0, 0); got != blue {
		t.Errorf("(0, 0) = %v, want blue (later flatten order wins ties)", got)
	}
}

func TestRenderModelSelection(t *testing.T) {
	repo := mustRepo(t, fstest.MapFS{
		"Alex/Arm.png":  atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 1}),
		"Steve/Arm.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 40, 16, 1}),
	})

	out, err := mustEntry(t, false, true).Render(repo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBA64At(0, 0); got != blue {
		t.Errorf("Steve entry rendered %v, want the Steve arm's blue", got)
	}
}

func TestRenderLayerVisibility(t *testing.T) {
	fsys := fstest.MapFS{
		"Head.png":      atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 1}),
		"HeadLayer.png": atlasPNG(t, 2, 2, pixelSpec{1, 0, 40, 16, 2}),
	}
	repo := mustRepo(t, fsys)

	out, err := mustEntry(t, false, false).Render(repo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBA64At(1, 0); got != (color.NRGBA64{}) {
		t.Errorf("layer part rendered with layers off: %v", got)
	}

	out, err = mustEntry(t, false, true).Render(repo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBA64At(1, 0); got != blue {
		t.Errorf("layer part missing with layers on: %v", got)
	}
}

func TestOverlayModulation(t *testing.T) {
	opaque := uint16(math.MaxUint16)

	t.Run("WhiteIsNoOp", func(t *testing.T) {
		repo := mustRepo(t, fstest.MapFS{
			"Head.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 1}),
			"overlays/Head.png": rawPNG(t, 2, 2, map[image.Point]color.NRGBA64{
				{0, 0}: {R: opaque, G: opaque, B: opaque, A: opaque},
			}),
		})
		out, err := mustEntry(t, false, true).Render(repo)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if got := out.NRGBA64At(0, 0); got != red {
			t.Errorf("white overlay changed the pixel: %v", got)
		}
	})

	t.Run("BlackZeroesColor", func(t *testing.T) {
		repo := mustRepo(t, fstest.MapFS{
			"Head.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 1}),
			"overlays/Head.png": rawPNG(t, 2, 2, map[image.Point]color.NRGBA64{
				{0, 0}: {A: opaque},
			}),
		})
		out, err := mustEntry(t, false, true).Render(repo)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		want := color.NRGBA64{A: opaque}
		if got := out.NRGBA64At(0, 0); got != want {
			t.Errorf("(0, 0) = %v, want %v", got, want)
		}
	})

	t.Run("NeverExceedsOperands", func(t *testing.T) {
		// A 50% gray overlay halves the red channel: multiplicative
		// modulation, not replacement, and bounded by both operands.
		gray := uint16(32896) // widens back from the stored 8-bit 128
		repo := mustRepo(t, fstest.MapFS{
			"Head.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 1}),
			"overlays/Head.png": rawPNG(t, 2, 2, map[image.Point]color.NRGBA64{
				{0, 0}: {R: gray, G: gray, B: gray, A: opaque},
			}),
		})
		out, err := mustEntry(t, false, true).Render(repo)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		got := out.NRGBA64At(0, 0)
		if got.R != gray || got.G != 0 || got.B != 0 {
			t.Errorf("(0, 0) = %v, want R=%d G=0 B=0", got, gray)
		}
		if got.R > red.R || got.A > opaque {
			t.Errorf("modulated value exceeds an operand: %v", got)
		}
	})
}

func TestRenderBackgroundPrecedence(t *testing.T) {
	green := color.NRGBA64{G: math.MaxUint16, A: math.MaxUint16}
	repo := mustRepo(t, fstest.MapFS{
		"Head.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 100}),
		parts.BackgroundFileName: rawPNG(t, 2, 2, map[image.Point]color.NRGBA64{
			{0, 0}: green,
			{1, 1}: green,
		}),
	})

	out, err := mustEntry(t, false, true).Render(repo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := out.NRGBA64At(0, 0); got != red {
		t.Errorf("(0, 0) = %v, want foreground red over the background", got)
	}
	if got := out.NRGBA64At(1, 1); got != green {
		t.Errorf("(1, 1) = %v, want the background to survive", got)
	}
}

func TestRenderNoParts(t *testing.T) {
	repo := mustRepo(t, fstest.MapFS{})
	if _, err := mustEntry(t, false, true).Render(repo); !errors.Is(err, ErrNoParts) {
		t.Fatalf("Render = %v, want ErrNoParts", err)
	}
}

func TestRenderCoordinateMismatch(t *testing.T) {
	repo := mustRepo(t, fstest.MapFS{
		"Head.png": atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 1}),
	})

	// A skin smaller than the baked contract is a data-contract violation,
	// not a recoverable condition.
	e := &Entry{
		Skin:   image.NewNRGBA64(image.Rect(0, 0, 4, 4)),
		Model:  parts.ModelSteve,
		Layers: true,
	}
	_, err := e.Render(repo)
	var coordErr *uv.CoordinateError
	if !errors.As(err, &coordErr) {
		t.Fatalf("Render = %v, want *uv.CoordinateError", err)
	}
}

func TestRenderDeterministic(t *testing.T) {
	repo := mustRepo(t, fstest.MapFS{
		"Head0.png":    atlasPNG(t, 2, 2, pixelSpec{0, 0, 8, 8, 100}),
		"Body.png":     atlasPNG(t, 2, 2, pixelSpec{0, 1, 20, 20, 10}),
		"Alex/Arm.png": atlasPNG(t, 2, 2, pixelSpec{1, 0, 40, 16, 50}),
	})
	entry := mustEntry(t, true, true)

	first, err := entry.Render(repo)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for i := 0; i < 10; i++ {
		out, err := entry.Render(repo)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if !bytes.Equal(out.Pix, first.Pix) {
			t.Fatal("renders of the same entry differ")
		}
	}
}
