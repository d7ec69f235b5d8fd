// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package fixedpoint

const (
	// TanhClamp is the absolute input value beyond which Tanh saturates to ±1.
	// The Padé approximation reaches exactly 1 at 3 and is flat there.
	TanhClamp = 3

	// DefaultExpIterations is the number of Taylor series terms used by Exp by default.
	DefaultExpIterations = 5
)

// Tanh approximates the hyperbolic tangent of raw in format f.
//
// The input is clamped to ±TanhClamp, converted to Q16.15 and evaluated with the Padé
// approximation t·(27+t²)/(27+9t²) using a single integer division, so the result is monotone
// non-decreasing in the input and bounded by ±1. The absolute error against math.Tanh is below
// 0.025 (worst around |t|≈1.6), plus the rounding of the output format.
func (f Format) Tanh(raw int64) int64 {
	limit := TanhClamp * f.One()
	raw = min(max(raw, -limit), limit)
	return Rescale(padeTanhQ15(Rescale(raw, f, Q16_15)), Q16_15, f)
}

// padeTanhQ15 evaluates the Padé approximation for x in Q16.15, with |x| <= 3·2^15.
func padeTanhQ15(x int64) int64 {
	const scaleSquared = int64(1) << (2 * Q16_15)
	x2 := x * x
	return x * (27*scaleSquared + x2) / (27*scaleSquared + 9*x2)
}

// Exp approximates e^x, for x given by raw in format f, with the first iterations terms of its
// Taylor series, evaluated in float64 and rounded to the format.
// It returns 1 (one) if iterations < 1.
//
// The truncated series is accurate near 0 only: with 5 terms the relative error is below 1% for |x| <= 1.
func (f Format) Exp(raw int64, iterations int) int64 {
	x := f.ToFloat(raw)
	sum, term := 1.0, 1.0
	for k := 1; k < iterations; k++ {
		term *= x / float64(k)
		sum += term
	}
	return f.FromFloat(sum)
}
