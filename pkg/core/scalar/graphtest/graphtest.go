// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graphtest holds test utilities for packages that depend on the scalar package.
package graphtest

import (
	"testing"

	"github.com/gomlx/scalargraph/pkg/core/scalar"
	"github.com/stretchr/testify/require"
)

// Figure holds the nodes of the canonical expression L = (a*b + c) * f, with
// a=2, b=-3, c=10 and f=-2.
//
// The intermediate nodes e=a*b, d=e+c and L are declared upfront as named leaves and bound
// with scalar.Rebind, so they keep their labels.
type Figure struct {
	A, B, C, D, E, F, L *scalar.Node
}

// BuildFigure builds the canonical expression in g. Values are converted with the graph format.
func BuildFigure(g *scalar.Graph) *Figure {
	fig := &Figure{
		A: g.LeafFloat(2, "a"),
		B: g.LeafFloat(-3, "b"),
		C: g.LeafFloat(10, "c"),
		E: g.Leaf(0, "e"),
		D: g.Leaf(0, "d"),
		F: g.LeafFloat(-2, "f"),
		L: g.Leaf(0, "L"),
	}
	scalar.Rebind(fig.E, scalar.Mul(fig.A, fig.B))
	scalar.Rebind(fig.D, scalar.Add(fig.E, fig.C))
	scalar.Rebind(fig.L, scalar.Mul(fig.D, fig.F))
	return fig
}

// WantFigureGradients lists the gradients of Figure.L with respect to each node, in the order
// L, D, F, E, C, A, B.
var WantFigureGradients = []float64{1, -2, 4, -2, -2, 6, -4}

// Nodes returns the nodes of the figure in the order of WantFigureGradients.
func (fig *Figure) Nodes() []*scalar.Node {
	return []*scalar.Node{fig.L, fig.D, fig.F, fig.E, fig.C, fig.A, fig.B}
}

// RequireGradients checks that each node has the wanted gradient, within delta.
func RequireGradients(t testing.TB, nodes []*scalar.Node, want []float64, delta float64) {
	t.Helper()
	require.Len(t, want, len(nodes), "RequireGradients: number of nodes and wanted gradients differ")
	for ii, node := range nodes {
		require.InDeltaf(t, want[ii], node.GradFloat(), delta, "gradient of node %s", node)
	}
}
