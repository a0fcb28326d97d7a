package phone

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ieee0824/tiedhmm-go/amerr"
)

// Load reads a unit table. One unit per line:
//
//	name type [base] [len]
//
// type is one of ci, cd, ww, cdd, dp, dps, wwc<N> or a numeric code.
// Blank lines and lines starting with '#' are skipped.
func Load(r io.Reader) (*Table, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, amerr.Format("", "line %d: expected at least 2 fields, got %d", lineNum, len(fields))
		}
		typ, err := ParseType(fields[1])
		if err != nil {
			return nil, amerr.Format("", "line %d: %v", lineNum, err)
		}
		e := Entry{Name: fields[0], Type: typ, Len: 1}
		rest := fields[2:]
		if len(rest) > 0 {
			if n, err := strconv.Atoi(rest[len(rest)-1]); err == nil {
				e.Len = n
				rest = rest[:len(rest)-1]
			}
		}
		if len(rest) > 0 {
			e.Base = rest[0]
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, amerr.IO("", err)
	}
	return NewTable(entries)
}

// LoadFile is a convenience wrapper that opens a file path.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, amerr.IO(path, err)
	}
	defer f.Close()
	t, err := Load(f)
	if err != nil {
		return nil, errors.Wrapf(err, "load phone file %s", path)
	}
	return t, nil
}
