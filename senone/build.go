package senone

import (
	"bufio"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/phone"
)

// mapLine is one "unit<state> id" record of a map file.
type mapLine struct {
	unit  string
	state int
	id    int // 1-based
}

// parseMapLine splits "AE(DH,TD)<0>    1". The unit runs up to '<', the
// state is the single digit after it, and the id is the integer after the
// closing '>'.
func parseMapLine(line string) (mapLine, error) {
	lt := strings.IndexByte(line, '<')
	if lt < 0 {
		return mapLine{}, errors.Errorf("cannot find <state>: %q", line)
	}
	if lt+2 >= len(line) {
		return mapLine{}, errors.Errorf("truncated line: %q", line)
	}
	l := mapLine{unit: line[:lt], state: int(line[lt+1]) - '0'}
	rest := strings.TrimLeft(line[lt+3:], " \t")
	end := 0
	for end < len(rest) && (rest[end] >= '0' && rest[end] <= '9' || end == 0 && (rest[end] == '-' || rest[end] == '+')) {
		end++
	}
	id, err := strconv.Atoi(rest[:end])
	if err != nil {
		return mapLine{}, errors.Errorf("cannot read senone id: %q", line)
	}
	l.id = id
	return l, nil
}

// Build reads a map file from r and resolves every unit's distributions.
// name identifies the file in errors. With compress, units with identical
// distribution vectors share one senone sequence; otherwise every unit is
// its own sequence.
func Build(r io.Reader, name string, phones Phones, compress bool) (*Map, error) {
	numBase := phones.CICount() + phones.WDCount()
	numPhones := phones.Count()
	m := &Map{
		file:       name,
		phones:     phones,
		numDists:   make([]int, numBase),
		numDPDists: make([]int, numBase),
	}
	dmap := make([]Vector, numPhones)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		l, err := parseMapLine(line)
		if err != nil {
			return nil, amerr.Format(name, "line %d: %v", lineNum, err)
		}
		if l.id < 1 {
			return nil, amerr.Range(name, "senone id of "+l.unit, int64(l.id-1), math.MaxInt32)
		}
		pid, ok := phones.ID(l.unit)
		if !ok {
			return nil, amerr.Format(name, "line %d: cannot find unit %s", lineNum, l.unit)
		}
		if l.state < 0 || l.state >= NumDistTypes {
			return nil, amerr.Range(name, "state of "+l.unit, int64(l.state), NumDistTypes)
		}
		base := phones.Base(pid)
		dmap[pid][l.state] = int32(l.id - 1)
		if m.numDists[base] < l.id {
			m.numDists[base] = l.id
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, amerr.IO(name, err)
	}

	// Context-independent units get a back-off block after their mapped
	// distributions; word units are laid out position by position.
	for i := 0; i < numPhones; i++ {
		typ := phones.Type(i)
		offset := -1
		switch {
		case typ == phone.CD, typ == phone.CDDuration, typ == phone.Diphone, typ == phone.DiphoneBoth:
			continue
		case typ == phone.CI:
			offset = m.numDists[i]
			m.numDists[i] += NumDistTypes
		case typ == phone.Word:
			offset = 0
		case typ >= phone.WordPosition:
			offset = typ.Position() * NumDistTypes
		}
		if offset < 0 {
			glog.Warningf("%s: ignoring unit %s of unknown type %d", name, phones.Name(i), int(typ))
			continue
		}
		for j := range dmap[i] {
			dmap[i][j] = int32(j + offset)
		}
	}

	// Diphones get a fresh block after their base unit's distributions.
	for i := 0; i < numPhones; i++ {
		typ := phones.Type(i)
		if typ != phone.Diphone && typ != phone.DiphoneBoth {
			continue
		}
		base := phones.Base(i)
		offset := m.numDists[base]
		for j := range dmap[i] {
			dmap[i][j] = int32(j + offset)
		}
		m.numDPDists[base] += NumDistTypes
		m.numDists[base] += NumDistTypes
	}

	for i := 0; i < numBase; i++ {
		if phones.Type(i) == phone.Word {
			m.numDists[i] = NumDistTypes * phones.Len(i)
		}
	}

	indexBase := make([]int, numBase)
	for i := 0; i < numBase; i++ {
		if i > 0 {
			indexBase[i] = indexBase[i-1] + m.numDists[i-1]
		}
		m.totalDists += m.numDists[i]
	}
	for i := 0; i < numPhones; i++ {
		off := int32(indexBase[phones.Base(i)])
		for j := range dmap[i] {
			dmap[i][j] += off
			if v := dmap[i][j]; v < 0 || int(v) >= m.totalDists {
				return nil, amerr.Range(name, "distMap["+strconv.Itoa(i)+"]["+strconv.Itoa(j)+"]", int64(v), int64(m.totalDists))
			}
		}
	}

	if compress {
		m.ssid, m.vectors = dedupe(dmap)
		glog.Infof("Read Map: %d phones map to %d unique senone sequences", numPhones, len(m.vectors))
	} else {
		m.ssid = make([]int, numPhones)
		for i := range m.ssid {
			m.ssid[i] = i
		}
		m.vectors = dmap
	}
	return m, nil
}

// dedupe groups units by equal vectors. Units are stably sorted by vector;
// sequence ids are assigned in that order, so the unit that comes first in
// the sorted order defines its sequence.
func dedupe(dmap []Vector) (ssid []int, uniq []Vector) {
	perm := make([]int, len(dmap))
	for i := range perm {
		perm[i] = i
	}
	sort.SliceStable(perm, func(a, b int) bool { return less(dmap[perm[a]], dmap[perm[b]]) })

	ssid = make([]int, len(dmap))
	for j, pid := range perm {
		if j == 0 || dmap[pid] != uniq[len(uniq)-1] {
			uniq = append(uniq, dmap[pid])
		}
		ssid[pid] = len(uniq) - 1
	}
	return ssid, uniq
}

func less(a, b Vector) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// BuildFile is a convenience wrapper that opens a map file path.
func BuildFile(path string, phones Phones, compress bool) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, amerr.IO(path, err)
	}
	defer f.Close()
	return Build(f, path, phones, compress)
}
