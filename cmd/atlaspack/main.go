// atlaspack pre-decodes a baked parts tree into a single compressed
// snapshot file, so services can skip PNG decoding and pixel filtering at
// startup.
//
// Usage:
//
//	atlaspack -parts <dir> -o <snapshot>
//
// Exit codes:
//
//	0: snapshot written
//	1: load or write error
//	2: usage error
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/flatpose/flatpose"
	"github.com/flatpose/flatpose/parts"
)

func main() {
	var (
		partsDir = flag.String("parts", "", "baked parts directory")
		outPath  = flag.String("o", "", "output snapshot path")
		verbose  = flag.Bool("v", false, "log progress to stderr")
	)
	flag.Parse()

	if *partsDir == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "atlaspack: -parts and -o are required")
		flag.Usage()
		os.Exit(2)
	}

	if *verbose {
		flatpose.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	repo, err := parts.New(os.DirFS(*partsDir))
	if err != nil {
		fail(err)
	}

	f, err := os.Create(*outPath)
	if err != nil {
		fail(err)
	}
	if err := parts.WriteSnapshot(f, repo); err != nil {
		f.Close()
		fail(err)
	}
	if err := f.Close(); err != nil {
		fail(err)
	}

	info, err := os.Stat(*outPath)
	if err != nil {
		fail(err)
	}
	w, h := repo.Size()
	fmt.Printf("packed %s: %dx%d atlases, %d bytes\n", *outPath, w, h, info.Size())
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "atlaspack:", err)
	os.Exit(1)
}
