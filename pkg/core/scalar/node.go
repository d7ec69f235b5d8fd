// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scalar

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Node is a scalar value in a Graph, along with the operation and operands that produced it.
//
// Values and gradients are raw values in the Graph format, see Graph.Format.
type Node struct {
	graph *Graph
	id    NodeId
	op    OpType

	// operands are the edges of the computation graph, shared with any other node that uses them.
	operands []*Node

	value, grad int64
	label       string
}

// Graph that holds this Node.
func (n *Node) Graph() *Graph {
	if n == nil {
		return nil
	}
	return n.graph
}

// Id is the unique id of this node within the Graph.
func (n *Node) Id() NodeId {
	if n == nil || n.graph == nil {
		return InvalidNodeId
	}
	return n.id
}

// Op returns the operation that created the node, OpTypeLeaf for inputs.
func (n *Node) Op() OpType { return n.op }

// IsLeaf returns whether the node is an input, with no operands.
func (n *Node) IsLeaf() bool { return n.op == OpTypeLeaf }

// Operands are the nodes used as inputs to this node's operation, in order.
// They are the nodes themselves, not copies, and the returned slice must not be modified.
func (n *Node) Operands() []*Node { return n.operands }

// Value returns the raw value of the node.
func (n *Node) Value() int64 { return n.value }

// Float returns the value of the node converted to float64.
func (n *Node) Float() float64 { return n.graph.format.ToFloat(n.value) }

// Grad returns the raw gradient set by the last Backward call that reached this node.
func (n *Node) Grad() int64 { return n.grad }

// GradFloat returns the gradient converted to float64.
func (n *Node) GradFloat() float64 { return n.graph.format.ToFloat(n.grad) }

// ZeroGrad resets the gradient of the node.
func (n *Node) ZeroGrad() { n.grad = 0 }

// Label used to display the node. It may be empty.
func (n *Node) Label() string { return n.label }

// SetLabel changes the display label of the node.
func (n *Node) SetLabel(label string) { n.label = label }

// SetValue sets the raw value of a leaf node, to wire an input.
//
// Nodes computed from it are not re-evaluated: they are created with their values at construction time.
// It panics if the node is not a leaf.
func (n *Node) SetValue(value int64) {
	n.AssertValid()
	if !n.IsLeaf() {
		exceptions.Panicf("SetValue(%d) on %s: only leaf nodes can have their values set", value, n)
	}
	n.value = value
}

// AssertValid panics if n is nil or doesn't belong to a Graph.
func (n *Node) AssertValid() {
	if n == nil {
		exceptions.Panicf("Node is nil")
	}
	if n.graph == nil {
		exceptions.Panicf("Node doesn't belong to any Graph, it must be created with Graph.Leaf or an operator")
	}
}

// checkArity returns an ErrArityMismatch error if the number of operands doesn't match the op.
func (n *Node) checkArity() error {
	if !n.op.IsValid() {
		return errors.Wrapf(ErrArityMismatch, "node #%d has invalid operator %s", n.id, n.op)
	}
	if len(n.operands) != n.op.Arity() {
		return errors.Wrapf(ErrArityMismatch, "node #%d (%s) has %d operands, operator %s takes %d",
			n.id, n.label, len(n.operands), n.op, n.op.Arity())
	}
	return nil
}

// String implements fmt.Stringer, e.g.: `#4 "d" = Add(#2, #3): 4 (grad -2)`.
func (n *Node) String() string {
	if n == nil {
		return "Node(nil)"
	}
	if n.graph == nil {
		return "Node(invalid graph)"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d", n.id)
	if n.label != "" {
		fmt.Fprintf(&sb, " %q", n.label)
	}
	sb.WriteString(" = " + n.op.String())
	if !n.IsLeaf() {
		ids := make([]string, len(n.operands))
		for ii, operand := range n.operands {
			ids[ii] = fmt.Sprintf("#%d", operand.Id())
		}
		sb.WriteString("(" + strings.Join(ids, ", ") + ")")
	}
	format := n.graph.format
	fmt.Fprintf(&sb, ": %s (grad %s)", format.Sprint(n.value), format.Sprint(n.grad))
	return sb.String()
}

// Rebind copies the value, the operation and the operands of src into dst, but not its label:
// dst keeps its own label (and gradient).
//
// This allows declaring a named node upfront and later binding it to the expression that computes it:
//
//	d := g.Leaf(0, "d")
//	scalar.Rebind(d, scalar.Add(e, c))  // d is now e+c, still displayed as "d".
//
// Nodes that already use dst as an operand see its new content. Rebinding dst to an expression that
// depends on dst creates a cycle, which Backward reports as ErrInvalidGraph.
func Rebind(dst, src *Node) {
	validateBuildingGraphFromInputs(dst, src)
	if dst == src {
		return
	}
	dst.value = src.value
	dst.op = src.op
	dst.operands = slices.Clone(src.operands)
}
