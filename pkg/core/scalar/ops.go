// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scalar

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/scalargraph/pkg/core/fixedpoint"
	"github.com/pkg/errors"
)

// DefaultExpIterations is the number of Taylor series terms used by Exp.
const DefaultExpIterations = fixedpoint.DefaultExpIterations

// newNode registers in g a derived node with the given operands.
func newNode(g *Graph, op OpType, value int64, operands ...*Node) *Node {
	node := &Node{
		op:       op,
		operands: operands,
		value:    value,
	}
	g.registerNode(node)
	return node
}

// Add returns a new node with a + b.
func Add(a, b *Node) *Node {
	g := validateBuildingGraphFromInputs(a, b)
	return newNode(g, OpTypeAdd, a.value+b.value, a, b)
}

// Sub returns a new node with a - b.
func Sub(a, b *Node) *Node {
	g := validateBuildingGraphFromInputs(a, b)
	return newNode(g, OpTypeSub, a.value-b.value, a, b)
}

// Mul returns a new node with a * b. Fixed-point results are truncated toward zero.
func Mul(a, b *Node) *Node {
	g := validateBuildingGraphFromInputs(a, b)
	return newNode(g, OpTypeMul, g.format.Mul(a.value, b.value), a, b)
}

// Div returns a new node with a / b, truncated toward zero -- for the Integer format this is Go's integer
// division.
//
// It panics with an error wrapping ErrDivisionByZero if b is zero.
func Div(a, b *Node) *Node {
	g := validateBuildingGraphFromInputs(a, b)
	if b.value == 0 {
		panic(errors.Wrapf(ErrDivisionByZero, "Div(%s, %s)", a, b))
	}
	return newNode(g, OpTypeDiv, g.format.Div(a.value, b.value), a, b)
}

// Exp returns a new node with e^x, approximated with DefaultExpIterations terms of its Taylor series.
// See ExpN.
func Exp(x *Node) *Node {
	return ExpN(x, DefaultExpIterations)
}

// ExpN returns a new node with e^x approximated with the given number of terms of its Taylor series,
// see fixedpoint.Format.Exp for its precision.
//
// The new node has x as its only operand, so gradients flow through it, and it is labeled "exp(<x label>)".
func ExpN(x *Node, iterations int) *Node {
	g := validateBuildingGraphFromInputs(x)
	if iterations < 1 {
		exceptions.Panicf("ExpN(%s, %d): iterations must be >= 1", x, iterations)
	}
	node := newNode(g, OpTypeExp, g.format.Exp(x.value, iterations), x)
	node.label = wrapLabel("exp", x.label)
	return node
}

// Tanh returns a new node with the hyperbolic tangent of x, using a fixed-point rational approximation,
// see fixedpoint.Format.Tanh for its precision. The result is bounded by ±1 and monotone in x.
//
// The new node has x as its only operand and it is labeled "tanh(<x label>)".
func Tanh(x *Node) *Node {
	g := validateBuildingGraphFromInputs(x)
	node := newNode(g, OpTypeTanh, g.format.Tanh(x.value), x)
	node.label = wrapLabel("tanh", x.label)
	return node
}

func wrapLabel(fn, label string) string {
	if label == "" {
		return ""
	}
	return fn + "(" + label + ")"
}
