package hmm

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/internal/binio"
)

// Format is the layout of a model file.
type Format int

const (
	// Single holds one model behind a TiedDistMagic.
	Single Format = iota + 1
	// Big holds a sequence of (BigHMMMagic, name, model) entries.
	Big
)

func (f Format) String() string {
	switch f {
	case Single:
		return "single"
	case Big:
		return "big"
	}
	return "unknown"
}

// Resolver maps a model name to the index of the Model it fills.
type Resolver interface {
	Resolve(name string) (int, bool)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(name string) (int, bool)

// Resolve calls f.
func (f ResolverFunc) Resolve(name string) (int, bool) { return f(name) }

// ReadSingle reads a single-model file from r into m.
func (p *Parser) ReadSingle(r io.Reader, name string, m *Model) error {
	br := binio.NewReader(r)
	magic, err := br.Raw4()
	if err != nil {
		return amerr.IO(name, errors.Wrap(err, "read magic"))
	}
	return p.readSingle(br, magic, name, m)
}

func (p *Parser) readSingle(br *binio.Reader, magic [4]byte, name string, m *Model) error {
	order, ok := binio.DetectOrder(magic, TiedDistMagic)
	if !ok {
		return amerr.Format(name, "magic = % x, expected %d", magic, TiedDistMagic)
	}
	br.SetOrder(order)
	if err := p.parse(br, m, name); err != nil {
		return err
	}
	return checkEOF(br, name)
}

// ReadBig reads every entry of a big file from r. Entries whose name res
// cannot resolve are parsed into a scratch model and dropped. It returns the
// number of entries stored into models.
func (p *Parser) ReadBig(r io.Reader, name string, models []Model, res Resolver) (int, error) {
	return p.readBig(binio.NewReader(r), name, models, res)
}

func (p *Parser) readBig(br *binio.Reader, file string, models []Model, res Resolver) (int, error) {
	var scratch Model
	stored := 0
	for entry := 0; ; entry++ {
		magic, err := br.Raw4()
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			// A partial magic ends the stream like a missing one.
			if entry == 0 {
				glog.Infof("file [%s] is empty", file)
			} else if err == io.ErrUnexpectedEOF {
				glog.Warningf("%s: ignoring partial magic after entry %d", file, entry-1)
			}
			return stored, nil
		}
		if err != nil {
			return stored, amerr.IO(file, errors.Wrapf(err, "read magic of entry %d", entry))
		}
		order, ok := binio.DetectOrder(magic, BigHMMMagic)
		if !ok {
			return stored, amerr.Format(file, "entry %d: magic = % x, expected %d", entry, magic, BigHMMMagic)
		}
		br.SetOrder(order)

		name, eof, err := readName(br, file)
		if err != nil {
			return stored, err
		}
		if eof {
			return stored, nil
		}

		target := &scratch
		idx, ok := res.Resolve(name)
		switch {
		case !ok:
			glog.Warningf("%s: ignoring unknown model %q", file, name)
		case idx < 0 || idx >= len(models):
			return stored, amerr.Range(file, "model index of "+name, int64(idx), int64(len(models)))
		default:
			target = &models[idx]
			stored++
		}
		if err := p.parse(br, target, name); err != nil {
			return stored, errors.Wrapf(err, "entry %d of %s", entry, file)
		}
	}
}

// readName reads a NUL-terminated name of at most MaxNameLen bytes.
// eof is true when the stream ends before the first byte of the name.
func readName(br *binio.Reader, file string) (name string, eof bool, err error) {
	var sb strings.Builder
	for i := 0; i < MaxNameLen; i++ {
		c, err := br.ReadByte()
		if err == io.EOF {
			if i == 0 {
				return "", true, nil
			}
			return "", false, amerr.Format(file, "failed to parse hmmName [%s]", sb.String())
		}
		if err != nil {
			return "", false, amerr.IO(file, err)
		}
		if c == 0 {
			return sb.String(), false, nil
		}
		sb.WriteByte(c)
	}
	return "", false, amerr.Format(file, "failed to parse hmmName [%s]: longer than %d bytes", sb.String(), MaxNameLen-1)
}

// ReadFile opens path and reads it as a big or single file, whichever its
// first magic number announces. A single file fills the model that res
// resolves from the file name without its extension.
func (p *Parser) ReadFile(path string, models []Model, res Resolver) (Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, amerr.IO(path, err)
	}
	defer f.Close()

	br := binio.NewReader(f)
	magic, err := br.Peek4()
	if err == io.EOF {
		glog.Infof("file [%s] is empty", path)
		return Big, nil
	}
	if err != nil {
		return 0, amerr.IO(path, errors.Wrap(err, "read magic"))
	}

	if _, ok := binio.DetectOrder(magic, BigHMMMagic); ok {
		n, err := p.readBig(br, path, models, res)
		glog.V(2).Infof("%s: %d models", path, n)
		return Big, err
	}
	if _, ok := binio.DetectOrder(magic, TiedDistMagic); !ok {
		return 0, amerr.Format(path, "magic = % x, expected %d or %d", magic, BigHMMMagic, TiedDistMagic)
	}

	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	idx, ok := res.Resolve(name)
	if !ok {
		return Single, amerr.Format(path, "no unit named %q", name)
	}
	if idx < 0 || idx >= len(models) {
		return Single, amerr.Range(path, "model index of "+name, int64(idx), int64(len(models)))
	}
	if _, err := br.Raw4(); err != nil {
		return Single, amerr.IO(path, err)
	}
	if err := p.readSingle(br, magic, path, &models[idx]); err != nil {
		return Single, err
	}
	models[idx].Source = name
	return Single, nil
}
