// Package logmath implements fixed-point log-domain arithmetic.
// A probability p is stored as round(log_b(p)) in an int32 for a base b
// slightly above 1, so products become sums and sums use a lookup table.
package logmath

import "math"

// MinLog represents log(0). No value produced by this package is lower.
const MinLog int32 = -690810000

// DefaultBase is the log base used by the model files.
const DefaultBase = 1.0001

// Math holds the base and the addition table for one log base.
type Math struct {
	base   float64
	lnBase float64
	invLn  float64
	addTbl []int32 // addTbl[d] = log_b(1 + b^-d), truncated where it reaches 0
}

// New builds the arithmetic for base, which must be greater than 1.
func New(base float64) *Math {
	if base <= 1 {
		base = DefaultBase
	}
	m := &Math{
		base:   base,
		lnBase: math.Log(base),
	}
	m.invLn = 1 / m.lnBase
	for d := 0; ; d++ {
		v := roundAway(math.Log1p(math.Exp(-float64(d)*m.lnBase)) * m.invLn)
		if v <= 0 {
			break
		}
		m.addTbl = append(m.addTbl, int32(v))
	}
	return m
}

var def = New(DefaultBase)

// Default returns the shared arithmetic for DefaultBase.
func Default() *Math { return def }

// Base returns the log base.
func (m *Math) Base() float64 { return m.base }

// Log converts a linear-domain value to fixed point. Non-positive values
// and underflows map to MinLog.
func (m *Math) Log(x float64) int32 {
	if x <= 0 {
		return MinLog
	}
	v := roundAway(math.Log(x) * m.invLn)
	if v < float64(MinLog) {
		return MinLog
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}

// Exp converts a fixed-point value back to the linear domain.
func (m *Math) Exp(l int32) float64 {
	if l <= MinLog {
		return 0
	}
	return math.Exp(float64(l) * m.lnBase)
}

// Ln converts a fixed-point value to a natural log.
func (m *Math) Ln(l int32) float64 {
	return float64(l) * m.lnBase
}

// Add returns the fixed-point approximation of log(exp(a) + exp(b)).
// MinLog is an exact zero: Add(MinLog, x) == x.
func (m *Math) Add(a, b int32) int32 {
	if a < b {
		a, b = b, a
	}
	if b <= MinLog {
		return a
	}
	d := int64(a) - int64(b)
	if d >= int64(len(m.addTbl)) {
		return a
	}
	return a + m.addTbl[d]
}

// Sum log-adds all values, starting from MinLog.
func (m *Math) Sum(vals []int32) int32 {
	s := MinLog
	for _, v := range vals {
		s = m.Add(s, v)
	}
	return s
}

// Clamp limits v to the int32 range at or above MinLog.
func Clamp(v int64) int32 {
	if v < int64(MinLog) {
		return MinLog
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(v)
}

func roundAway(x float64) float64 {
	if x > 0 {
		return math.Floor(x + 0.5)
	}
	return math.Ceil(x - 0.5)
}
