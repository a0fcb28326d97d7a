package phone

import (
	"sort"

	"github.com/ieee0824/tiedhmm-go/amerr"
)

// Entry describes a unit before ids are assigned. Base names the base unit;
// it may be empty for base units and for names whose base can be read from
// the name itself (see BaseName).
type Entry struct {
	Name string
	Type Type
	Base string
	Len  int
}

// Table holds all units and their lookups.
type Table struct {
	units []Unit
	ids   map[string]int
	nCI   int
	nWD   int
}

func rank(t Type) int {
	switch t {
	case CI:
		return 0
	case Word:
		return 1
	}
	return 2
}

// NewTable assigns ids and resolves base units.
func NewTable(entries []Entry) (*Table, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank(sorted[i].Type) < rank(sorted[j].Type)
	})

	t := &Table{
		units: make([]Unit, len(sorted)),
		ids:   make(map[string]int, len(sorted)),
	}
	for i, e := range sorted {
		if e.Name == "" {
			return nil, amerr.Format("", "unit %d has no name", i)
		}
		if _, dup := t.ids[e.Name]; dup {
			return nil, amerr.Format("", "duplicate unit %q", e.Name)
		}
		t.ids[e.Name] = i
		switch e.Type {
		case CI:
			t.nCI++
		case Word:
			t.nWD++
		}
	}

	for i, e := range sorted {
		u := Unit{Name: e.Name, Type: e.Type, Base: i, Len: 1}
		if e.Type == Word && e.Len > 1 {
			u.Len = e.Len
		}
		if !e.Type.IsBase() {
			base := e.Base
			if base == "" {
				base = BaseName(e.Name)
			}
			b, ok := t.ids[base]
			if !ok || b == i {
				return nil, amerr.Format("", "unit %q: unknown base unit %q", e.Name, base)
			}
			if !sorted[b].Type.IsBase() {
				return nil, amerr.Format("", "unit %q: base %q is not a base unit", e.Name, base)
			}
			if e.Type >= WordPosition && sorted[b].Type != Word {
				return nil, amerr.Format("", "unit %q: word position base %q is not a word unit", e.Name, base)
			}
			u.Base = b
		}
		switch e.Type {
		case Diphone:
			if Slots(e.Name) != 1 {
				return nil, amerr.Format("", "diphone %q must hold exactly one %s", e.Name, Placeholder)
			}
		case DiphoneBoth:
			if Slots(e.Name) != 2 {
				return nil, amerr.Format("", "diphone %q must hold exactly two %s", e.Name, Placeholder)
			}
		}
		t.units[i] = u
	}
	return t, nil
}

// Count returns the number of units.
func (t *Table) Count() int { return len(t.units) }

// CICount returns the number of context-independent units.
func (t *Table) CICount() int { return t.nCI }

// WDCount returns the number of whole-word units.
func (t *Table) WDCount() int { return t.nWD }

// Type returns the type of unit id.
func (t *Table) Type(id int) Type { return t.units[id].Type }

// Base returns the base unit id of unit id.
func (t *Table) Base(id int) int { return t.units[id].Base }

// Len returns the position count of unit id.
func (t *Table) Len(id int) int { return t.units[id].Len }

// Name returns the name of unit id.
func (t *Table) Name(id int) string { return t.units[id].Name }

// ID looks up a unit by name.
func (t *Table) ID(name string) (int, bool) {
	id, ok := t.ids[name]
	return id, ok
}

// Unit returns a copy of unit id.
func (t *Table) Unit(id int) Unit { return t.units[id] }
