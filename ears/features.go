// Package ears is an extension provider adding cosmetic extra parts (ears,
// horns, claws) to a render. It owns its own baked parts tree and resolves
// a request's feature set into atlas names against it.
//
// The renderer core never interprets feature semantics; it only carries the
// feature set opaquely from the request to providers like this one. How a
// feature set is obtained from a skin is likewise outside this package:
// callers resolve it externally and attach it to the entry.
package ears

import (
	"fmt"

	"github.com/flatpose/flatpose/parts"
)

// EarMode selects the ear shape.
type EarMode uint8

const (
	EarModeNone EarMode = iota
	EarModeAbove
	EarModeSides
	EarModeBehind
	EarModeAround
	EarModeFloppy
	EarModeCross
	EarModeOut
	EarModeTall
	EarModeTallCross
)

func (m EarMode) key() string {
	switch m {
	case EarModeAbove:
		return "above"
	case EarModeSides:
		return "sides"
	case EarModeBehind:
		return "behind"
	case EarModeAround:
		return "around"
	case EarModeFloppy:
		return "floppy"
	case EarModeCross:
		return "cross"
	case EarModeOut:
		return "out"
	case EarModeTall:
		return "tall"
	case EarModeTallCross:
		return "tallcross"
	default:
		return "none"
	}
}

// ParseEarMode parses an ear mode name as used in atlas keys.
func ParseEarMode(s string) (EarMode, error) {
	for m := EarModeNone; m <= EarModeTallCross; m++ {
		if m.key() == s {
			return m, nil
		}
	}
	return EarModeNone, fmt.Errorf("ears: unknown ear mode %q", s)
}

// EarAnchor positions the ears on the head.
type EarAnchor uint8

const (
	EarAnchorCenter EarAnchor = iota
	EarAnchorFront
	EarAnchorBack
)

func (a EarAnchor) key() string {
	switch a {
	case EarAnchorFront:
		return "front"
	case EarAnchorBack:
		return "back"
	default:
		return "center"
	}
}

// ParseEarAnchor parses an ear anchor name as used in atlas keys.
func ParseEarAnchor(s string) (EarAnchor, error) {
	for a := EarAnchorCenter; a <= EarAnchorBack; a++ {
		if a.key() == s {
			return a, nil
		}
	}
	return EarAnchorCenter, fmt.Errorf("ears: unknown ear anchor %q", s)
}

// FeatureSet is the resolved cosmetic configuration for one skin.
type FeatureSet struct {
	EarMode   EarMode
	EarAnchor EarAnchor
	Horn      bool
	Claws     bool
}

// PartNames maps the feature set to the atlas names it requires for the
// given model. Names absent from the provider's tree are simply skipped at
// resolution time.
func (f *FeatureSet) PartNames(model parts.Model) []string {
	names := []string{earPartKey(f.EarMode, f.EarAnchor)}

	// Around builds on top of the Above part.
	if f.EarMode == EarModeAround {
		names = append(names, earPartKey(EarModeAbove, f.EarAnchor))
	}

	if f.Horn {
		names = append(names, "Horn")
	}

	if f.Claws {
		names = append(names,
			"LeftLegClaw",
			"RightLegClaw",
			model.DirName()+"LeftArmClaw",
			model.DirName()+"RightArmClaw",
		)
	}

	return names
}

// earPartKey builds the atlas key for an ear mode/anchor pair. The legacy
// Behind mode stores as Out anchored at the back; Floppy has no anchor
// variants at all.
func earPartKey(mode EarMode, anchor EarAnchor) string {
	if mode == EarModeBehind {
		mode, anchor = EarModeOut, EarAnchorBack
	}
	if mode == EarModeFloppy {
		return mode.key()
	}
	return mode.key() + "-" + anchor.key()
}
