package senone

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/golang/glog"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/hmm"
	"github.com/ieee0824/tiedhmm-go/internal/logmath"
	"github.com/ieee0824/tiedhmm-go/phone"
)

func TestMain(m *testing.M) {
	flag.Set("logtostderr", "true")
	flag.Parse()
	glog.Info("Logging configured")
	os.Exit(m.Run())
}

func loadPhones(t *testing.T, s string) *phone.Table {
	t.Helper()
	tbl, err := phone.Load(strings.NewReader(s))
	if err != nil {
		t.Fatal(err)
	}
	return tbl
}

func build(t *testing.T, phones *phone.Table, mapText string, compress bool) *Map {
	t.Helper()
	m, err := Build(strings.NewReader(mapText), "test.map", phones, compress)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func vec(vals ...int32) Vector {
	var v Vector
	copy(v[:], vals)
	return v
}

func mustVector(t *testing.T, m *Map, tbl *phone.Table, name string) Vector {
	t.Helper()
	id, ok := tbl.ID(name)
	if !ok {
		t.Fatalf("no unit %s", name)
	}
	v, err := m.Vector(id)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestCIBackoff(t *testing.T) {
	tbl := loadPhones(t, "AE ci\n")
	m := build(t, tbl, "AE<0> 1\nAE<1> 2\n", false)
	ae, _ := tbl.ID("AE")
	if got := m.NumDists(ae); got != 2+NumDistTypes {
		t.Errorf("NumDists(AE) = %d, want %d", got, 2+NumDistTypes)
	}
	if got := m.TotalDists(); got != 2+NumDistTypes {
		t.Errorf("TotalDists = %d, want %d", got, 2+NumDistTypes)
	}
	if got, want := mustVector(t, m, tbl, "AE"), vec(2, 3, 4, 5, 6); got != want {
		t.Errorf("Vector(AE) = %v, want %v", got, want)
	}
}

const triphones = `AE ci
B ci
AE(B,B) cd
AE(B,AE) cd
B(AE,AE) cd
`

func triphoneMap() string {
	var sb strings.Builder
	for s := 0; s < NumDistTypes; s++ {
		fmt.Fprintf(&sb, "AE(B,B)<%d>\t%d\n", s, s+1)
		fmt.Fprintf(&sb, "AE(B,AE)<%d>\t%d\n", s, s+1)
		id := s + 1
		if id > 3 {
			id = 3
		}
		fmt.Fprintf(&sb, "B(AE,AE)<%d>    %d\n", s, id)
	}
	return sb.String()
}

func TestGlobalIndices(t *testing.T) {
	tbl := loadPhones(t, triphones)
	m := build(t, tbl, triphoneMap(), false)

	tests := []struct {
		unit string
		want Vector
	}{
		{"AE(B,B)", vec(0, 1, 2, 3, 4)},
		{"AE(B,AE)", vec(0, 1, 2, 3, 4)},
		{"AE", vec(5, 6, 7, 8, 9)},
		{"B(AE,AE)", vec(10, 11, 12, 12, 12)},
		{"B", vec(13, 14, 15, 16, 17)},
	}
	for _, tt := range tests {
		if got := mustVector(t, m, tbl, tt.unit); got != tt.want {
			t.Errorf("Vector(%s) = %v, want %v", tt.unit, got, tt.want)
		}
	}
	if m.TotalDists() != 18 {
		t.Errorf("TotalDists = %d, want 18", m.TotalDists())
	}
	for pid := 0; pid < tbl.Count(); pid++ {
		v, _ := m.Vector(pid)
		for j, d := range v {
			if d < 0 || int(d) >= m.TotalDists() {
				t.Errorf("Vector(%d)[%d] = %d outside [0,%d)", pid, j, d, m.TotalDists())
			}
		}
	}
	n, err := m.NumSequences()
	if err != nil || n != tbl.Count() {
		t.Errorf("NumSequences = %d, %v; want %d (identity)", n, err, tbl.Count())
	}
	for pid := 0; pid < tbl.Count(); pid++ {
		if m.SequenceID(pid) != pid {
			t.Errorf("SequenceID(%d) = %d, want identity", pid, m.SequenceID(pid))
		}
	}
}

func TestCompressIsQuotient(t *testing.T) {
	tbl := loadPhones(t, triphones)
	m := build(t, tbl, triphoneMap(), true)
	n, err := m.NumSequences()
	if err != nil {
		t.Fatal(err)
	}
	if n != tbl.Count()-1 {
		t.Errorf("NumSequences = %d, want %d", n, tbl.Count()-1)
	}
	for a := 0; a < tbl.Count(); a++ {
		va, _ := m.Vector(a)
		for b := 0; b < tbl.Count(); b++ {
			vb, _ := m.Vector(b)
			sameSeq := m.SequenceID(a) == m.SequenceID(b)
			if sameSeq != (va == vb) {
				t.Errorf("units %d,%d: same sequence = %v, equal vectors = %v", a, b, sameSeq, va == vb)
			}
		}
	}
	// sequences are numbered in ascending vector order
	for id := 1; id < n; id++ {
		prev, _ := m.SequenceVector(id - 1)
		cur, _ := m.SequenceVector(id)
		if !less(prev, cur) {
			t.Errorf("sequence %d %v not after %v", id, cur, prev)
		}
	}
}

func TestDiphoneAndWordBlocks(t *testing.T) {
	tbl := loadPhones(t, `AE ci
HELLO ww 2
HELLO(1) wwc1 HELLO
AE(%s,B) dp
AE(%s,%s) dps
`)
	m := build(t, tbl, "", false)
	ae, _ := tbl.ID("AE")
	hello, _ := tbl.ID("HELLO")
	if got := m.NumDists(ae); got != 3*NumDistTypes {
		t.Errorf("NumDists(AE) = %d, want %d", got, 3*NumDistTypes)
	}
	if got := m.NumDiphoneDists(ae); got != 2*NumDistTypes {
		t.Errorf("NumDiphoneDists(AE) = %d, want %d", got, 2*NumDistTypes)
	}
	if got := m.NumDists(hello); got != 2*NumDistTypes {
		t.Errorf("NumDists(HELLO) = %d, want %d", got, 2*NumDistTypes)
	}
	tests := []struct {
		unit string
		want Vector
	}{
		{"AE", vec(0, 1, 2, 3, 4)},
		{"AE(%s,B)", vec(5, 6, 7, 8, 9)},
		{"AE(%s,%s)", vec(10, 11, 12, 13, 14)},
		{"HELLO", vec(15, 16, 17, 18, 19)},
		{"HELLO(1)", vec(20, 21, 22, 23, 24)},
	}
	for _, tt := range tests {
		if got := mustVector(t, m, tbl, tt.unit); got != tt.want {
			t.Errorf("Vector(%s) = %v, want %v", tt.unit, got, tt.want)
		}
	}
}

func TestUnknownTypeIsWarning(t *testing.T) {
	tbl := loadPhones(t, "AE ci\nX -3 AE\n")
	m := build(t, tbl, "", false)
	if got := mustVector(t, m, tbl, "X"); got != vec(0, 0, 0, 0, 0) {
		t.Errorf("Vector(X) = %v, want zero block of AE", got)
	}
}

func TestBuildErrors(t *testing.T) {
	tbl := loadPhones(t, triphones)
	tests := []struct {
		name string
		in   string
		kind amerr.Kind
	}{
		{"unknown unit", "ZZ(B,B)<0> 1\n", amerr.FormatViolation},
		{"no state", "AE(B,B) 1\n", amerr.FormatViolation},
		{"no id", "AE(B,B)<0> x\n", amerr.FormatViolation},
		{"truncated", "AE(B,B)<0\n", amerr.FormatViolation},
		{"state out of range", "AE(B,B)<7> 1\n", amerr.RangeViolation},
		{"zero id", "AE(B,B)<0> 0\n", amerr.RangeViolation},
		{"zero id on later base", triphoneMap() + "B(AE,AE)<0> 0\n", amerr.RangeViolation},
		{"negative id", triphoneMap() + "B(AE,AE)<1> -3\n", amerr.RangeViolation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(strings.NewReader(tt.in), "bad.map", tbl, true)
			if !amerr.Is(err, tt.kind) {
				t.Errorf("err = %v, want %v", err, tt.kind)
			}
		})
	}
}

func TestParseMapLine(t *testing.T) {
	l, err := parseMapLine("AE(DH,TD)b<3>   42 trailing")
	if err != nil {
		t.Fatal(err)
	}
	if l.unit != "AE(DH,TD)b" || l.state != 3 || l.id != 42 {
		t.Errorf("parseMapLine = %+v", l)
	}
}

func bakisModels(n int) []hmm.Model {
	models := make([]hmm.Model, n)
	arcs := hmm.Bakis(logmath.Default())
	for i := range models {
		copy(models[i].Arcs[:], arcs)
		models[i].Source = fmt.Sprint(i)
	}
	return models
}

func TestRemapConsumesMap(t *testing.T) {
	tbl := loadPhones(t, triphones)
	m := build(t, tbl, triphoneMap(), true)
	n, _ := m.NumSequences()
	models := bakisModels(n)
	models[0].Arcs[NumDistTypes].Dist = hmm.NullTransition

	want := make([]Vector, n)
	for i := range want {
		want[i], _ = m.SequenceVector(i)
	}
	idx, err := m.Remap(models)
	if err != nil {
		t.Fatal(err)
	}
	for i := range models {
		for j, a := range models[i].Arcs {
			if i == 0 && j == NumDistTypes {
				if a.Dist != hmm.NullTransition {
					t.Errorf("null transition remapped to %d", a.Dist)
				}
				continue
			}
			if a.Dist != want[i][a.From] {
				t.Errorf("model %d arc %d dist = %d, want %d", i, j, a.Dist, want[i][a.From])
			}
		}
	}
	if idx.NumSequences() != n || idx.TotalDists() != 18 {
		t.Errorf("index = %d sequences, %d dists", idx.NumSequences(), idx.TotalDists())
	}

	if _, err := m.Remap(models); !amerr.Is(err, amerr.InconsistentModel) {
		t.Errorf("second Remap: err = %v, want InconsistentModel", err)
	}
	if _, err := m.Vector(0); !amerr.Is(err, amerr.InconsistentModel) {
		t.Errorf("Vector after Remap: err = %v, want InconsistentModel", err)
	}
	if _, err := m.NumSequences(); !amerr.Is(err, amerr.InconsistentModel) {
		t.Errorf("NumSequences after Remap: err = %v, want InconsistentModel", err)
	}
}

func TestRemapModelCount(t *testing.T) {
	tbl := loadPhones(t, triphones)
	m := build(t, tbl, triphoneMap(), false)
	if _, err := m.Remap(bakisModels(2)); !amerr.Is(err, amerr.InconsistentModel) {
		t.Errorf("err = %v, want InconsistentModel", err)
	}
	// a failed Remap leaves the map usable
	if _, err := m.Vector(0); err != nil {
		t.Errorf("Vector after failed Remap: %v", err)
	}
}

func TestSenoneBase(t *testing.T) {
	tbl := loadPhones(t, triphones)
	m := build(t, tbl, triphoneMap(), false)
	n, _ := m.NumSequences()
	idx, err := m.Remap(bakisModels(n))
	if err != nil {
		t.Fatal(err)
	}
	ae, _ := tbl.ID("AE")
	b, _ := tbl.ID("B")
	for s, want := range map[int]int{0: ae, 9: ae, 10: b, 17: b} {
		got, err := idx.SenoneBase(s)
		if err != nil || got != want {
			t.Errorf("SenoneBase(%d) = %d, %v; want %d", s, got, err, want)
		}
	}
	if _, err := idx.SenoneBase(18); !amerr.Is(err, amerr.RangeViolation) {
		t.Errorf("SenoneBase(18): err = %v, want RangeViolation", err)
	}
}
