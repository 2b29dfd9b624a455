// flatpose renders a Minecraft skin as a fixed-pose avatar image using a
// tree of pre-baked atlases or a packed snapshot.
//
// Usage:
//
//	flatpose -skin <skin.png> (-parts <dir> | -snapshot <file>) [options]
//
// Options:
//
//	-skin      Input skin PNG (64x64, legacy 64x32, or HD multiples).
//	-parts     Directory holding the baked parts tree.
//	-snapshot  Packed snapshot file produced by atlaspack.
//	-o         Output PNG path (default "out.png").
//	-slim      Render with the slim-arms (Alex) model.
//	-no-layers Hide the secondary skin layers.
//	-ear-mode  Ears extension: ear mode name ("above", "floppy", ...).
//	-ear-anchor Ears extension: ear anchor name ("center", "front", "back").
//	-horn      Ears extension: render the horn part.
//	-claws     Ears extension: render the claw parts.
//	-v         Log progress to stderr.
//
// Exit codes:
//
//	0: rendered successfully
//	1: load or render error
//	2: usage error
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/flatpose/flatpose"
	"github.com/flatpose/flatpose/ears"
	"github.com/flatpose/flatpose/parts"
	"github.com/flatpose/flatpose/render"
)

func main() {
	var (
		skinPath  = flag.String("skin", "", "input skin PNG")
		partsDir  = flag.String("parts", "", "baked parts directory")
		snapshot  = flag.String("snapshot", "", "packed snapshot file")
		outPath   = flag.String("o", "out.png", "output PNG path")
		slim      = flag.Bool("slim", false, "use the slim-arms (Alex) model")
		noLayers  = flag.Bool("no-layers", false, "hide secondary skin layers")
		earMode   = flag.String("ear-mode", "", "ears extension: ear mode")
		earAnchor = flag.String("ear-anchor", "center", "ears extension: ear anchor")
		horn      = flag.Bool("horn", false, "ears extension: render horn")
		claws     = flag.Bool("claws", false, "ears extension: render claws")
		verbose   = flag.Bool("v", false, "log progress to stderr")
	)
	flag.Parse()

	if *skinPath == "" || (*partsDir == "") == (*snapshot == "") {
		fmt.Fprintln(os.Stderr, "flatpose: -skin and exactly one of -parts or -snapshot are required")
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		flatpose.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	repo, err := loadRepository(*partsDir, *snapshot)
	if err != nil {
		fail(err)
	}

	rawSkin, err := readPNG(*skinPath)
	if err != nil {
		fail(err)
	}

	var opts []render.EntryOption
	if features, err := buildFeatures(*earMode, *earAnchor, *horn, *claws); err != nil {
		fail(err)
	} else if features != nil {
		opts = append(opts, render.WithFeatures(features))
	}

	entry, err := render.NewEntry(rawSkin, *slim, !*noLayers, opts...)
	if err != nil {
		fail(err)
	}

	out, err := entry.Render(repo)
	if err != nil {
		fail(err)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		fail(err)
	}
	if err := png.Encode(f, out); err != nil {
		f.Close()
		fail(err)
	}
	if err := f.Close(); err != nil {
		fail(err)
	}
}

func loadRepository(partsDir, snapshot string) (*parts.Repository, error) {
	if snapshot != "" {
		f, err := os.Open(snapshot)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return parts.ReadSnapshot(f)
	}

	root := os.DirFS(partsDir)
	var opts []parts.Option
	provider, err := ears.Load(root)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		opts = append(opts, parts.WithExtensions(provider))
	}
	return parts.New(root, opts...)
}

func buildFeatures(mode, anchor string, horn, claws bool) (*ears.FeatureSet, error) {
	if mode == "" && !horn && !claws {
		return nil, nil
	}

	features := &ears.FeatureSet{Horn: horn, Claws: claws}
	if mode != "" {
		m, err := ears.ParseEarMode(mode)
		if err != nil {
			return nil, err
		}
		a, err := ears.ParseEarAnchor(anchor)
		if err != nil {
			return nil, err
		}
		features.EarMode, features.EarAnchor = m, a
	}
	return features, nil
}

func readPNG(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return png.Decode(f)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "flatpose:", err)
	os.Exit(1)
}
