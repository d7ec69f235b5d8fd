// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package fixedpoint implements the numeric formats of scalar graph values.
//
// Values are always stored as int64 "raw" values. A Format tells how many of the lower bits are
// fractional: Integer (0 fractional bits) holds plain integers, and Q16_15 holds values with 16 integer bits
// and 15 fractional bits (scale 32768).
//
// Conversions that drop fractional bits round half away from zero. Multiplication and division
// truncate toward zero, like Go's integer division.
package fixedpoint

import (
	"fmt"
	"math"
	"math/bits"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Format is the number of fractional bits of a fixed-point raw value.
type Format uint8

const (
	// Integer values have no fractional bits.
	Integer Format = 0

	// Q16_15 is the 32-bit fixed-point format used by the Tanh approximation, with scale 32768.
	Q16_15 Format = 15

	// MaxFracBits is the largest number of fractional bits supported.
	// Larger formats would overflow int64 in intermediate products of gradients.
	MaxFracBits = 15

	// totalBits of a Q-format value, not counting the sign bit.
	totalBits = 31
)

// IsValid returns whether the format has a supported number of fractional bits.
func (f Format) IsValid() bool {
	return f <= MaxFracBits
}

// FracBits returns the number of fractional bits.
func (f Format) FracBits() int { return int(f) }

// One returns the raw representation of 1.0.
func (f Format) One() int64 { return int64(1) << f }

// String implements fmt.Stringer. Integer is printed as "int", others in the Qm.n notation.
func (f Format) String() string {
	if f == Integer {
		return "int"
	}
	return fmt.Sprintf("Q%d.%d", totalBits-int(f), int(f))
}

// ParseFormat parses the output of Format.String, also accepting "integer" and lower case names.
func ParseFormat(s string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "int" || normalized == "integer" {
		return Integer, nil
	}
	var intBits, fracBits int
	n, err := fmt.Sscanf(normalized, "q%d.%d", &intBits, &fracBits)
	if err != nil || n != 2 {
		return Integer, errors.Errorf("invalid fixed-point format %q, expected \"int\" or \"Qm.n\" (e.g. \"Q16.15\")", s)
	}
	if fracBits < 0 || fracBits > MaxFracBits || intBits+fracBits != totalBits {
		return Integer, errors.Errorf("unsupported fixed-point format %q: it must have at most %d fractional bits "+
			"and m+n=%d", s, MaxFracBits, totalBits)
	}
	return Format(fracBits), nil
}

// FromFloat converts x to the raw representation, rounding half away from zero and saturating
// at the int64 limits.
func (f Format) FromFloat(x float64) int64 {
	v := math.Round(x * float64(f.One()))
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}

// ToFloat converts a raw value to float64.
func (f Format) ToFloat(raw int64) float64 {
	return float64(raw) / float64(f.One())
}

// Sprint formats a raw value: integers as such, fixed-point values with the shortest float
// representation.
func (f Format) Sprint(raw int64) string {
	if f == Integer {
		return strconv.FormatInt(raw, 10)
	}
	return strconv.FormatFloat(f.ToFloat(raw), 'g', -1, 64)
}

// Mul returns a*b in the format, truncated toward zero.
func (f Format) Mul(a, b int64) int64 {
	return MulDiv(a, b, f.One())
}

// Div returns a/b in the format, truncated toward zero. The caller must check b != 0.
func (f Format) Div(a, b int64) int64 {
	return MulDiv(a, f.One(), b)
}

// MulDiv returns a*b/c truncated toward zero. The product is kept in 128 bits, so it doesn't
// overflow; a quotient that doesn't fit in an int64 saturates to math.MaxInt64 or math.MinInt64.
// The caller must check c != 0.
func MulDiv(a, b, c int64) int64 {
	negative := (a < 0) != (b < 0) != (c < 0)
	hi, lo := bits.Mul64(abs64(a), abs64(b))
	divisor := abs64(c)
	if hi >= divisor {
		return saturate(negative)
	}
	quotient, _ := bits.Div64(hi, lo, divisor)
	switch {
	case negative && quotient > 1<<63:
		return math.MinInt64
	case negative:
		return -int64(quotient)
	case quotient > math.MaxInt64:
		return math.MaxInt64
	}
	return int64(quotient)
}

func abs64(x int64) uint64 {
	if x < 0 {
		return uint64(-x)
	}
	return uint64(x)
}

func saturate(negative bool) int64 {
	if negative {
		return math.MinInt64
	}
	return math.MaxInt64
}

// Rescale converts raw from one format to another. Dropped fractional bits are rounded
// half away from zero.
func Rescale(raw int64, from, to Format) int64 {
	if to >= from {
		return raw << (to - from)
	}
	return roundDiv(raw, int64(1)<<(from-to))
}

// roundDiv divides n by d > 0, rounding half away from zero.
func roundDiv(n, d int64) int64 {
	if n >= 0 {
		return (n + d/2) / d
	}
	return -((-n + d/2) / d)
}
