// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scalar

import (
	"github.com/gomlx/scalargraph/pkg/core/fixedpoint"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// This file implements reverse-mode automatic differentiation.
//
// Conventions used here:
//
//   - root node: the output whose gradient with respect to every other node we want.
//   - consumers: the nodes that use a node as an operand. A node's gradient is only complete once all
//     its consumers reachable from root have pushed their contribution to it.
//   - VJP: the "vector Jacobian product", for scalars simply the gradient of root with respect to a node
//     times the local derivative of the node with respect to each of its operands.

// reverseGraph holds the sub-graph reachable from root, with the number of edges each node still
// has to receive from its consumers.
type reverseGraph struct {
	Root *Node

	// Nodes reachable from Root, in depth-first order.
	Nodes []*Node

	// PendingConsumers is indexed by NodeId: the number of edges coming from reachable consumers
	// not yet processed.
	PendingConsumers []int
}

// newReverseGraph collects the nodes reachable from root and counts their incoming edges.
// It validates the arity of every node and that every operand belongs to root's graph.
func newReverseGraph(root *Node) (*reverseGraph, error) {
	g := root.graph
	rg := &reverseGraph{
		Root:             root,
		PendingConsumers: make([]int, g.NumNodes()),
	}
	visited := make([]bool, g.NumNodes())
	visited[root.id] = true
	stack := []*Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if err := node.checkArity(); err != nil {
			return nil, err
		}
		rg.Nodes = append(rg.Nodes, node)
		for ii, operand := range node.operands {
			if operand == nil || operand.graph != g {
				return nil, errors.Wrapf(ErrInvalidGraph, "operand #%d of node %s is dangling (nil or from another graph)",
					ii, node)
			}
			rg.PendingConsumers[operand.id]++
			if !visited[operand.id] {
				visited[operand.id] = true
				stack = append(stack, operand)
			}
		}
	}
	return rg, nil
}

// Backward computes the gradient of root with respect to every node it depends on, and stores it
// in each node (see Node.Grad).
//
// The gradient of root is 1, and the gradients of the other reachable nodes start from 0. The gradient
// is pushed backwards in layers: a node is processed only after all its consumers were, and each node is
// processed exactly once. Contributions arriving through different paths are summed.
//
// It returns an error wrapping ErrInvalidGraph if the graph has a cycle or a dangling operand,
// ErrArityMismatch for a malformed node, or ErrDivisionByZero if a denominator became 0 (see Node.SetValue).
// On error no node is modified: gradients from a previous call are preserved.
func Backward(root *Node) error {
	root.AssertValid()
	rg, err := newReverseGraph(root)
	if err != nil {
		return errors.WithMessagef(err, "Backward(%s)", root)
	}
	if rg.PendingConsumers[root.id] > 0 {
		return errors.Wrapf(ErrInvalidGraph, "Backward(%s): root is part of a cycle", root)
	}

	// Gradients are accumulated in grads, indexed by NodeId, and only stored in the nodes once
	// every reachable node was processed.
	grads := make([]int64, root.graph.NumNodes())
	grads[root.id] = root.graph.format.One()
	numProcessed := 0
	frontier := []*Node{root}
	for layer := 0; len(frontier) > 0; layer++ {
		klog.V(2).Infof("Backward(#%d): layer %d with %d nodes", root.id, layer, len(frontier))
		var next []*Node
		for _, node := range frontier {
			numProcessed++
			if node.IsLeaf() {
				continue
			}
			vjpFn, found := VJPRegistration[node.op]
			if !found {
				return errors.Wrapf(ErrInvalidGraph, "Backward(%s): no gradient defined for operator %s of node %s",
					root, node.op, node)
			}
			vjps, err := vjpFn(node, grads[node.id])
			if err != nil {
				return errors.WithMessagef(err, "Backward(%s): back-propagating through node %s", root, node)
			}
			if len(vjps) != len(node.operands) {
				return errors.Wrapf(ErrArityMismatch, "Backward(%s): VJP of %s returned %d gradients for %d operands",
					root, node, len(vjps), len(node.operands))
			}
			for ii, operand := range node.operands {
				grads[operand.id] += vjps[ii]
				rg.PendingConsumers[operand.id]--
				if rg.PendingConsumers[operand.id] == 0 {
					next = append(next, operand)
				}
			}
		}
		frontier = next
	}
	if numProcessed != len(rg.Nodes) {
		return errors.Wrapf(ErrInvalidGraph, "Backward(%s): only %d of the %d reachable nodes could be ordered, "+
			"the graph has a cycle", root, numProcessed, len(rg.Nodes))
	}
	for _, node := range rg.Nodes {
		node.grad = grads[node.id]
	}
	klog.V(1).Infof("Backward(#%d): propagated gradients to %d nodes", root.id, numProcessed)
	return nil
}

// MustBackward calls Backward and panics if it returns an error.
func MustBackward(root *Node) {
	if err := Backward(root); err != nil {
		panic(err)
	}
}

// VJP returns the contribution to the gradient of each of node's operands, given v, the gradient of
// root with respect to node. All values are raw values in the graph format.
type VJP func(node *Node, v int64) ([]int64, error)

// VJPRegistration maps each operation to its VJP. Leaves have none.
var VJPRegistration = map[OpType]VJP{
	OpTypeAdd:  addVJP,
	OpTypeSub:  subVJP,
	OpTypeMul:  mulVJP,
	OpTypeDiv:  divVJP,
	OpTypeTanh: tanhVJP,
	OpTypeExp:  expVJP,
}

func addVJP(_ *Node, v int64) ([]int64, error) {
	return []int64{v, v}, nil
}

func subVJP(_ *Node, v int64) ([]int64, error) {
	return []int64{v, -v}, nil
}

func mulVJP(node *Node, v int64) ([]int64, error) {
	format := node.graph.format
	a, b := node.operands[0].value, node.operands[1].value
	return []int64{format.Mul(v, b), format.Mul(v, a)}, nil
}

// divVJP: d(a/b)/da = 1/b, d(a/b)/db = -a/b².
// The b gradient is computed as (v*a/b)/b, so no intermediate value exceeds the format's range.
func divVJP(node *Node, v int64) ([]int64, error) {
	format := node.graph.format
	a, b := node.operands[0].value, node.operands[1].value
	if b == 0 {
		return nil, errors.Wrapf(ErrDivisionByZero, "gradient of %s", node)
	}
	return []int64{format.Div(v, b), -format.Div(fixedpoint.MulDiv(v, a, b), b)}, nil
}

// tanhVJP: d(tanh(x))/dx = 1 - tanh(x)², using the node's approximated value.
func tanhVJP(node *Node, v int64) ([]int64, error) {
	one := node.graph.format.One()
	y := node.value
	return []int64{fixedpoint.MulDiv(v, one*one-y*y, one*one)}, nil
}

// expVJP: d(e^x)/dx = e^x, using the node's approximated value.
func expVJP(node *Node, v int64) ([]int64, error) {
	return []int64{node.graph.format.Mul(v, node.value)}, nil
}
