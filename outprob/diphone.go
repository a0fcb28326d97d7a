package outprob

import (
	"sort"

	"github.com/ieee0824/tiedhmm-go/amerr"
	"github.com/ieee0824/tiedhmm-go/internal/logmath"
	"github.com/ieee0824/tiedhmm-go/phone"
	"github.com/ieee0824/tiedhmm-go/senone"
)

// MaxMembers bounds the distinct distributions merged into one diphone state.
const MaxMembers = 256

// synthesizeDiphones fills the distributions of every diphone unit with the
// log-sum of the context-dependent distributions it covers. Each diphone
// name is a template whose placeholders range over the context-independent
// phones. Contributors are merged in ascending order so the result does not
// depend on the phone table order.
func (c *Compiler) synthesizeDiphones(t *Tables) error {
	phones := c.m.Phones()
	nCI := phones.CICount()
	for pid := 0; pid < phones.Count(); pid++ {
		typ := phones.Type(pid)
		if typ != phone.Diphone && typ != phone.DiphoneBoth {
			continue
		}
		target, err := c.m.Vector(pid)
		if err != nil {
			return err
		}
		for _, d := range target {
			for k := range t.Streams {
				row := t.row(k, int(d))
				for i := range row {
					row[i] = logmath.MinLog
				}
			}
		}

		var members [senone.NumDistTypes]map[int32]struct{}
		for s := range members {
			members[s] = make(map[int32]struct{})
		}
		add := func(name string) error {
			cpid, ok := phones.ID(name)
			if !ok {
				return nil
			}
			v, err := c.m.Vector(cpid)
			if err != nil {
				return err
			}
			for s, d := range v {
				if _, ok := members[s][d]; ok {
					continue
				}
				if len(members[s]) >= MaxMembers {
					return amerr.Format("", "%s: state %d merges more than %d distributions", phones.Name(pid), s, MaxMembers)
				}
				members[s][d] = struct{}{}
			}
			return nil
		}

		tmpl := phones.Name(pid)
		for j := 0; j < nCI; j++ {
			if typ == phone.Diphone {
				if err := add(phone.Expand(tmpl, phones.Name(j))); err != nil {
					return err
				}
				continue
			}
			for l := 0; l < nCI; l++ {
				if err := add(phone.Expand(tmpl, phones.Name(j), phones.Name(l))); err != nil {
					return err
				}
			}
		}

		for s, set := range members {
			src := make([]int32, 0, len(set))
			for d := range set {
				src = append(src, d)
			}
			sort.Slice(src, func(a, b int) bool { return src[a] < src[b] })
			for _, d := range src {
				c.mergeRow(t, int(target[s]), int(d))
			}
		}
	}
	return nil
}

func (c *Compiler) mergeRow(t *Tables, dst, src int) {
	for k := range t.Streams {
		to, from := t.row(k, dst), t.row(k, src)
		for i, v := range from {
			to[i] = c.lm.Add(to[i], v)
		}
	}
}
