// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package scalar builds computation graphs over named scalar values, renders them with Graphviz
// and back-propagates gradients through them (reverse-mode automatic differentiation).
//
// The main elements in the package are:
//
//   - Graph: the arena that owns the nodes. It assigns each node a unique NodeId, in creation order,
//     and holds the numeric format (see package fixedpoint) of all its values.
//
//   - Node: a scalar value and its provenance: the operation (OpType) that created it and its
//     operands. Operands are shared: a node used twice is one node with two incoming edges.
//
//   - Operators: Add, Sub, Mul, Div, Tanh, Exp. Each returns a new Node and records the edges.
//
//   - Graphviz: a deterministic textual description of the graph reachable from a node.
//
//   - Backward: seeds the gradient of an output node and propagates it to every node it depends on.
//
// Example:
//
//	g := scalar.NewGraph("neuron")
//	x, w, b := g.Leaf(2, "x"), g.Leaf(-3, "w"), g.Leaf(10, "b")
//	y := scalar.Add(scalar.Mul(x, w), b)
//	if err := scalar.Backward(y); err != nil { ... }
//	fmt.Println(w.Grad()) // 2
//
// # Error Handling
//
// Graph building functions (Add, Div, Rebind, etc.) "throw" errors with panic(), so expressions
// can be composed without checking errors at every operation. Misuse (nil nodes, nodes of different
// graphs) panics with a descriptive error, and Div panics with an error wrapping ErrDivisionByZero.
// Use exceptions.TryCatch[error] (from github.com/gomlx/exceptions) to convert them back to errors.
//
// Backward returns its errors: ErrInvalidGraph, ErrArityMismatch or ErrDivisionByZero, wrapped
// with context. Use errors.Is to test for them.
package scalar

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/scalargraph/pkg/core/fixedpoint"
)

// NodeId is a unique id of a Node within a Graph. Ids are dense and assigned in creation order.
type NodeId int

// InvalidNodeId is the id of a Node that doesn't belong to any Graph.
const InvalidNodeId = NodeId(-1)

// Graph owns the nodes of a computation and their numeric format.
//
// It is not safe for concurrent use.
type Graph struct {
	name   string
	format fixedpoint.Format
	nodes  []*Node
}

// NewGraph creates an empty Graph with values in fixedpoint.Integer format.
// The name is used in the Graphviz description.
func NewGraph(name string) *Graph {
	return &Graph{name: name}
}

// WithFormat sets the numeric format of the graph values and returns the graph itself.
// It must be called before any node is created.
func (g *Graph) WithFormat(format fixedpoint.Format) *Graph {
	if len(g.nodes) > 0 {
		exceptions.Panicf("Graph(%q).WithFormat(%s) called after %d nodes were created", g.name, format, len(g.nodes))
	}
	if !format.IsValid() {
		exceptions.Panicf("Graph(%q).WithFormat(%d): at most %d fractional bits are supported",
			g.name, format.FracBits(), fixedpoint.MaxFracBits)
	}
	g.format = format
	return g
}

// Name of the graph.
func (g *Graph) Name() string { return g.name }

// Format of the values of the graph nodes.
func (g *Graph) Format() fixedpoint.Format { return g.format }

// NumNodes returns the number of nodes created in the graph so far.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NodeById returns the node with the given id. It panics if the id is out of range.
func (g *Graph) NodeById(id NodeId) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		exceptions.Panicf("Graph(%q).NodeById(%d): id out of range, graph has %d nodes", g.name, id, len(g.nodes))
	}
	return g.nodes[id]
}

// Nodes returns all the nodes of the graph in creation order. The returned slice must not be modified.
func (g *Graph) Nodes() []*Node { return g.nodes }

func (g *Graph) registerNode(node *Node) {
	node.graph = g
	node.id = NodeId(len(g.nodes))
	g.nodes = append(g.nodes, node)
}

// Leaf creates an input node with the given raw value (in the graph format) and label.
func (g *Graph) Leaf(value int64, label string) *Node {
	node := &Node{value: value, label: label}
	g.registerNode(node)
	return node
}

// LeafFloat creates an input node with value converted to the graph format.
func (g *Graph) LeafFloat(value float64, label string) *Node {
	return g.Leaf(g.format.FromFloat(value), label)
}

// String lists the graph nodes, one per line.
func (g *Graph) String() string {
	if g == nil {
		return "Graph(nil)"
	}
	parts := []string{
		fmt.Sprintf("Graph %q (%s): %s nodes", g.name, g.format, humanize.Comma(int64(len(g.nodes)))),
	}
	for _, node := range g.nodes {
		parts = append(parts, "\t"+node.String())
	}
	return strings.Join(parts, "\n")
}

// validateBuildingGraphFromInputs checks that all inputs are valid and belong to the same graph,
// which it returns.
func validateBuildingGraphFromInputs(inputs ...*Node) *Graph {
	var g *Graph
	for ii, input := range inputs {
		if input == nil {
			exceptions.Panicf("operand #%d is nil", ii)
		}
		input.AssertValid()
		if g == nil {
			g = input.graph
		} else if input.graph != g {
			exceptions.Panicf("operand #%d (%s) belongs to graph %q, but other operands belong to graph %q",
				ii, input, input.graph.name, g.name)
		}
	}
	return g
}
