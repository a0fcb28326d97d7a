package outprob

import "github.com/ieee0824/tiedhmm-go/internal/logmath"

// normalizeOut shifts row so it log-sums to 0. Entries at or below MinLog
// stay at MinLog. A weight below 1 scales the normalized values toward 0.
func normalizeOut(lm *logmath.Math, row []int32, weight float64) {
	sum := lm.Sum(row)
	for i, v := range row {
		switch {
		case v <= logmath.MinLog:
			row[i] = logmath.MinLog
		case weight == 1.0:
			row[i] = logmath.Clamp(int64(v) - int64(sum))
		default:
			row[i] = logmath.Clamp(int64((float64(v) - float64(sum)) * weight))
		}
	}
}

func insertFloor(row []int32, min int32) {
	for i, v := range row {
		if v < min {
			row[i] = min
		}
	}
}

// smoothRow normalizes, floors and normalizes again; flooring alone moves
// the log-sum away from 0.
func smoothRow(lm *logmath.Math, row []int32, floor int32) {
	normalizeOut(lm, row, 1.0)
	insertFloor(row, floor)
	normalizeOut(lm, row, 1.0)
}

// Normalize smooths every distribution of a dist-major table with a floor
// of log(smoothMin).
func Normalize(lm *logmath.Math, t *Tables, smoothMin float64) {
	floor := lm.Log(smoothMin)
	for d := 0; d < t.NumDists; d++ {
		for k := range t.Streams {
			smoothRow(lm, t.row(k, d), floor)
		}
	}
}
