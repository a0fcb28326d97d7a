package outprob

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/ieee0824/tiedhmm-go/internal/logmath"
)

// Quantize8 clusters every codeword's distribution values into at most
// NumClusters values. A codeword with few enough distinct values is kept
// exactly; otherwise its sorted distinct values are cut into runs of equal
// length and each run is replaced by its occurrence-weighted mean.
func Quantize8(t *Tables) *Tables8 {
	q := newTables8(t.NumAlphabet, t.NumDists)
	vals := make([]int32, t.NumDists)
	for k := range q.Streams {
		s := &q.Streams[k]
		for cw := 0; cw < t.NumAlphabet; cw++ {
			for d := range vals {
				vals[d] = t.Prob(k, d, cw)
			}
			quantizeRow(vals, &s.Prob[cw], s.ID[cw])
		}
	}
	return q
}

func quantizeRow(vals []int32, prob *[NumClusters]int32, id []uint8) {
	sorted := append([]int32(nil), vals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var uniq []int32
	var count []float64
	for _, v := range sorted {
		if n := len(uniq); n > 0 && uniq[n-1] == v {
			count[n-1]++
			continue
		}
		uniq = append(uniq, v)
		count = append(count, 1)
	}

	for i := range prob {
		prob[i] = logmath.MinLog
	}
	group := make([]uint8, len(uniq))
	if len(uniq) <= NumClusters {
		for i, v := range uniq {
			prob[i] = v
			group[i] = uint8(i)
		}
	} else {
		xs := make([]float64, len(uniq))
		for i, v := range uniq {
			xs[i] = float64(v)
		}
		for g := 0; g < NumClusters; g++ {
			lo, hi := g*len(uniq)/NumClusters, (g+1)*len(uniq)/NumClusters
			prob[g] = int32(math.Round(stat.Mean(xs[lo:hi], count[lo:hi])))
			for i := lo; i < hi; i++ {
				group[i] = uint8(g)
			}
		}
	}
	for d, v := range vals {
		i := sort.Search(len(uniq), func(i int) bool { return uniq[i] >= v })
		id[d] = group[i]
	}
}
