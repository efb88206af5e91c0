// Package camelot implements Camelot-wheel key parsing and harmonic
// compatibility scoring (C1 in the design notes).
package camelot

import (
	"fmt"
	"regexp"
	"strconv"
)

// Key is a parsed Camelot key, e.g. "8A".
type Key struct {
	Number int  // 1..12
	Mode   byte // 'A' (minor) or 'B' (major)
}

var keyPattern = regexp.MustCompile(`^([0-9]{1,2})([AB])$`)

// ErrInvalidKey is returned by Parse when the input isn't a well-formed
// Camelot key. Callers should treat this as the InvalidKey error kind and
// fall back to a neutral compatibility score.
var ErrInvalidKey = fmt.Errorf("camelot: invalid key")

// Parse decodes a string like "8A" into its number/mode parts.
func Parse(s string) (Key, error) {
	m := keyPattern.FindStringSubmatch(s)
	if m == nil {
		return Key{}, ErrInvalidKey
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 || n > 12 {
		return Key{}, ErrInvalidKey
	}
	return Key{Number: n, Mode: m[2][0]}, nil
}

// String renders the key back to its canonical "8A" form.
func (k Key) String() string {
	return fmt.Sprintf("%d%c", k.Number, k.Mode)
}

// pitchClassTable maps pitch class (0=C) and mode (0=minor, 1=major) to the
// standard Camelot wheel position. pc=0 minor is 5A; pc=0 major is 8B.
var pitchClassTable = [12][2]int{
	/* C  */ {5, 8},
	/* C# */ {12, 3},
	/* D  */ {7, 10},
	/* D# */ {2, 5},
	/* E  */ {9, 12},
	/* F  */ {4, 7},
	/* F# */ {11, 2},
	/* G  */ {6, 9},
	/* G# */ {1, 4},
	/* A  */ {8, 11},
	/* A# */ {3, 6},
	/* B  */ {10, 1},
}

// FromPitchClassMode maps a chroma pitch class (0..11, 0=C) and mode
// (0=minor, 1=major) to its Camelot key using the standard wheel layout.
func FromPitchClassMode(pc, mode int) (Key, error) {
	if pc < 0 || pc > 11 || (mode != 0 && mode != 1) {
		return Key{}, fmt.Errorf("camelot: pitch class %d / mode %d out of range", pc, mode)
	}
	num := pitchClassTable[pc][mode]
	letter := byte('A')
	if mode == 1 {
		letter = 'B'
	}
	return Key{Number: num, Mode: letter}, nil
}

// NeutralScore is returned by CompatibilityScore when either key fails to
// parse — neither compatible nor hostile, just unknown.
const NeutralScore = 50

// CompatibilityScore rates how well two Camelot keys mix, 0..100.
// Unparseable keys score NeutralScore rather than failing, matching how
// the rest of the engine tolerates missing key data.
func CompatibilityScore(a, b string) int {
	ka, erra := Parse(a)
	kb, errb := Parse(b)
	if erra != nil || errb != nil {
		return NeutralScore
	}
	return scoreKeys(ka, kb)
}

func scoreKeys(a, b Key) int {
	if a == b {
		return 100
	}
	if a.Number == b.Number && a.Mode != b.Mode {
		return 90
	}
	if a.Mode == b.Mode {
		// d is the directed step from a to b around the 12-slot wheel;
		// +7/-7 and +1/-1 both need to be recognized regardless of
		// direction, so both residues of each pair are checked.
		d := wheelStep(a.Number, b.Number)
		switch {
		case d == 1 || d == 11:
			return 85
		case d == 7 || d == 5:
			return 75
		case d == 2 || d == 10:
			return 60
		}
	}
	return 30
}

// wheelStep returns (a-b) mod 12 in the range [1, 11] (a != b is assumed,
// since equal numbers are handled before this is called).
func wheelStep(a, b int) int {
	d := (a - b) % 12
	if d < 0 {
		d += 12
	}
	return d
}

// AreCompatible reports whether two keys mix well (score >= 75).
func AreCompatible(a, b string) bool {
	return CompatibilityScore(a, b) >= 75
}

// DescribeTransition returns a short human label for the key relationship
// between two tracks, for use in cue sheets and transition notes.
func DescribeTransition(a, b string) string {
	ka, erra := Parse(a)
	kb, errb := Parse(b)
	if erra != nil || errb != nil {
		return "unknown key relation"
	}
	if ka == kb {
		return "same key"
	}
	if ka.Number == kb.Number && ka.Mode != kb.Mode {
		return "relative major/minor"
	}
	if ka.Mode == kb.Mode {
		d := wheelStep(ka.Number, kb.Number)
		switch {
		case d == 1 || d == 11:
			return "adjacent wheel step"
		case d == 7 || d == 5:
			return "energy boost (+7)"
		case d == 2 || d == 10:
			return "two-step wheel jump"
		}
	}
	return "distant key change"
}
