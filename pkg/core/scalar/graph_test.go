// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scalar_test

import (
	"strings"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/scalargraph/pkg/core/fixedpoint"
	. "github.com/gomlx/scalargraph/pkg/core/scalar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph(t *testing.T) {
	g := NewGraph("TestGraph")
	assert.Equal(t, "TestGraph", g.Name())
	assert.Equal(t, fixedpoint.Integer, g.Format())
	a := g.Leaf(2, "a")
	b := g.Leaf(-3, "b")
	c := Mul(a, b)
	assert.Equal(t, 3, g.NumNodes())
	for ii, node := range []*Node{a, b, c} {
		assert.Equal(t, NodeId(ii), node.Id())
		assert.Same(t, node, g.NodeById(NodeId(ii)))
		assert.Same(t, g, node.Graph())
	}
	assert.Len(t, g.Nodes(), 3)
	assert.Panics(t, func() { g.NodeById(3) })
	assert.Panics(t, func() { g.NodeById(-1) })

	var nilNode *Node
	assert.Equal(t, InvalidNodeId, nilNode.Id())
	assert.Nil(t, nilNode.Graph())

	desc := g.String()
	assert.True(t, strings.HasPrefix(desc, `Graph "TestGraph" (int): 3 nodes`), desc)
	assert.Contains(t, desc, `#0 "a" = Leaf: 2 (grad 0)`)
	assert.Contains(t, desc, `#2 = Mul(#0, #1): -6 (grad 0)`)
}

func TestGraphWithFormat(t *testing.T) {
	g := NewGraph("TestGraphWithFormat").WithFormat(fixedpoint.Q16_15)
	assert.Equal(t, fixedpoint.Q16_15, g.Format())
	x := g.LeafFloat(1.25, "x")
	assert.Equal(t, int64(40960), x.Value())
	assert.Equal(t, 1.25, x.Float())
	assert.Contains(t, x.String(), `"x" = Leaf: 1.25`)

	err := exceptions.TryCatch[error](func() { g.WithFormat(fixedpoint.Integer) })
	require.Error(t, err, "format can't change after nodes are created")
	err = exceptions.TryCatch[error](func() { NewGraph("invalid").WithFormat(fixedpoint.Format(20)) })
	require.Error(t, err)
}

func TestNodeGradAccessors(t *testing.T) {
	g := NewGraph("TestNodeGradAccessors").WithFormat(fixedpoint.Format(4))
	x := g.LeafFloat(0.5, "x")
	y := Mul(x, g.LeafFloat(3, "three"))
	MustBackward(y)
	assert.Equal(t, 3.0, x.GradFloat())
	assert.Equal(t, int64(48), x.Grad())
	x.ZeroGrad()
	assert.Equal(t, int64(0), x.Grad())
}
