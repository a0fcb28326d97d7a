// Package phone is the phonetic unit table: every unit has a stable integer
// id, a type, and the id of the base unit its distributions are counted
// against.
//
// Ids are assigned context-independent units first, then whole-word units,
// then everything else in input order, so ids below CICount()+WDCount() are
// exactly the base units.
package phone

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Type classifies a unit.
type Type int

const (
	CI          Type = 0 // context independent
	CD          Type = 1 // context dependent (triphone)
	Word        Type = 2 // whole-word unit
	CDDuration  Type = 3 // context dependent duration unit
	Diphone     Type = 4 // one context phone substituted into the name template
	DiphoneBoth Type = 5 // preceding and following context phones substituted
	// WordPosition+p is the unit at position p inside a whole-word unit.
	WordPosition Type = 6
)

// Position returns the word position of a WordPosition type, or -1.
func (t Type) Position() int {
	if t >= WordPosition {
		return int(t - WordPosition)
	}
	return -1
}

// IsBase reports whether units of type t own a distribution block.
func (t Type) IsBase() bool { return t == CI || t == Word }

func (t Type) String() string {
	switch {
	case t == CI:
		return "ci"
	case t == CD:
		return "cd"
	case t == Word:
		return "ww"
	case t == CDDuration:
		return "cdd"
	case t == Diphone:
		return "dp"
	case t == DiphoneBoth:
		return "dps"
	case t >= WordPosition:
		return "wwc" + strconv.Itoa(t.Position())
	}
	return strconv.Itoa(int(t))
}

// ParseType accepts the names produced by Type.String or a numeric code.
func ParseType(s string) (Type, error) {
	switch s {
	case "ci":
		return CI, nil
	case "cd":
		return CD, nil
	case "ww":
		return Word, nil
	case "cdd":
		return CDDuration, nil
	case "dp":
		return Diphone, nil
	case "dps":
		return DiphoneBoth, nil
	}
	if strings.HasPrefix(s, "wwc") {
		p, err := strconv.Atoi(s[3:])
		if err != nil || p < 0 {
			return 0, errors.Errorf("bad word position %q", s)
		}
		return WordPosition + Type(p), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Errorf("unknown unit type %q", s)
	}
	return Type(n), nil
}

// Unit is one entry of the table.
type Unit struct {
	Name string
	Type Type
	Base int // id of the base unit; a base unit is its own base
	Len  int // number of positions of a whole-word unit, 1 otherwise
}
