// Package outprob compiles the output probability tables of a
// tied-distribution model: one table per feature stream, holding a
// fixed-point log probability for every (distribution, codeword) pair.
package outprob

// NumStreams is the number of feature streams.
const NumStreams = 4

// Layout is the memory order of a table.
type Layout int

const (
	// DistMajor stores all codewords of a distribution together:
	// index dist*numAlphabet + codeword. Tables are assembled this way.
	DistMajor Layout = iota
	// CodewordMajor stores all distributions of a codeword together:
	// index codeword*numDists + dist. The search reads tables this way.
	CodewordMajor
)

func (l Layout) String() string {
	if l == CodewordMajor {
		return "codeword-major"
	}
	return "dist-major"
}

// Source is the read-only view the search scores against.
type Source interface {
	// Prob returns the log probability of codeword cw under distribution
	// dist in feature stream k.
	Prob(k, dist, cw int) int32
	Alphabet() int
	Dists() int
}

// Tables holds the four full-precision tables.
type Tables struct {
	NumAlphabet int
	NumDists    int
	Layout      Layout
	Streams     [NumStreams][]int32
}

// NewTables allocates zeroed dist-major tables.
func NewTables(numAlphabet, numDists int) *Tables {
	t := &Tables{NumAlphabet: numAlphabet, NumDists: numDists, Layout: DistMajor}
	for k := range t.Streams {
		t.Streams[k] = make([]int32, numAlphabet*numDists)
	}
	return t
}

// Alphabet returns the codebook size.
func (t *Tables) Alphabet() int { return t.NumAlphabet }

// Dists returns the number of distributions.
func (t *Tables) Dists() int { return t.NumDists }

// Prob implements Source for either layout.
func (t *Tables) Prob(k, dist, cw int) int32 {
	if t.Layout == CodewordMajor {
		return t.Streams[k][cw*t.NumDists+dist]
	}
	return t.Streams[k][dist*t.NumAlphabet+cw]
}

// row returns distribution dist of stream k of a dist-major table.
func (t *Tables) row(k, dist int) []int32 {
	off := dist * t.NumAlphabet
	return t.Streams[k][off : off+t.NumAlphabet]
}

// Transpose converts dist-major tables to codeword-major in place. Each
// stream's dist-major buffer is dropped as soon as its copy exists.
func (t *Tables) Transpose() {
	if t.Layout == CodewordMajor {
		return
	}
	rows, cols := t.NumDists, t.NumAlphabet
	for k := range t.Streams {
		a := t.Streams[k]
		pa := make([]int32, len(a))
		idx := 0
		for i := 0; i < cols; i++ {
			for j, pidx := 0, i; j < rows; j, pidx = j+1, pidx+cols {
				pa[idx] = a[pidx]
				idx++
			}
		}
		t.Streams[k] = pa
	}
	t.Layout = CodewordMajor
}

// Equal reports whether u holds the same values in the same layout.
func (t *Tables) Equal(u *Tables) bool {
	if t.NumAlphabet != u.NumAlphabet || t.NumDists != u.NumDists || t.Layout != u.Layout {
		return false
	}
	for k := range t.Streams {
		if len(t.Streams[k]) != len(u.Streams[k]) {
			return false
		}
		for i, v := range t.Streams[k] {
			if u.Streams[k][i] != v {
				return false
			}
		}
	}
	return true
}
