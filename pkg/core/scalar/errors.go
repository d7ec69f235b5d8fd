// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scalar

import "github.com/pkg/errors"

var (
	// ErrDivisionByZero is thrown by Div, and returned by Backward, when a denominator is 0.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrInvalidGraph is returned by Backward when the graph cannot be ordered topologically:
	// a cycle (see Rebind) or a dangling operand.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrArityMismatch is returned when a node's number of operands doesn't match its OpType.
	ErrArityMismatch = errors.New("operator arity mismatch")
)
