// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scalar_test

import (
	"math"
	"testing"

	"github.com/gomlx/scalargraph/pkg/core/fixedpoint"
	. "github.com/gomlx/scalargraph/pkg/core/scalar"
	"github.com/gomlx/scalargraph/pkg/core/scalar/graphtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackwardFigure(t *testing.T) {
	for _, format := range []fixedpoint.Format{fixedpoint.Integer, fixedpoint.Q16_15} {
		g := NewGraph("TestBackwardFigure").WithFormat(format)
		fig := graphtest.BuildFigure(g)
		assert.Equal(t, -6.0, fig.E.Float())
		assert.Equal(t, 4.0, fig.D.Float())
		assert.Equal(t, -8.0, fig.L.Float())

		require.NoError(t, Backward(fig.L))
		graphtest.RequireGradients(t, fig.Nodes(), graphtest.WantFigureGradients, 0)

		// Backward resets the gradients, so a second call yields the same result.
		require.NoError(t, Backward(fig.L))
		graphtest.RequireGradients(t, fig.Nodes(), graphtest.WantFigureGradients, 0)
	}

	// Exact raw values in the Integer format.
	g := NewGraph("TestBackwardFigureInt")
	fig := graphtest.BuildFigure(g)
	MustBackward(fig.L)
	for ii, node := range fig.Nodes() {
		assert.Equalf(t, int64(graphtest.WantFigureGradients[ii]), node.Grad(), "gradient of %s", node)
	}
}

func TestBackwardSharedNode(t *testing.T) {
	g := NewGraph("TestBackwardSharedNode")
	x := g.Leaf(3, "x")
	square := Mul(x, x)
	require.NoError(t, Backward(square))
	assert.Equal(t, int64(9), square.Value())
	assert.Equal(t, int64(6), x.Grad(), "both uses of x must accumulate")

	// x reached through two different paths: y = (x + x*x) * x
	y := Mul(Add(x, Mul(x, x)), x)
	require.NoError(t, Backward(y))
	// dy/dx = 1*x + 2x*x + (x + x²) = 3 + 18 + 12
	assert.Equal(t, int64(33), x.Grad())
	assert.Equal(t, int64(36), y.Value())
}

func TestBackwardSubDiv(t *testing.T) {
	g := NewGraph("TestBackwardSubDiv")
	a, b := g.Leaf(12, "a"), g.Leaf(2, "b")
	diff := Sub(a, b)
	require.NoError(t, Backward(diff))
	assert.Equal(t, int64(1), a.Grad())
	assert.Equal(t, int64(-1), b.Grad())

	quotient := Div(a, b)
	require.NoError(t, Backward(quotient))
	assert.Equal(t, int64(0), a.Grad(), "1/2 truncated toward zero")
	assert.Equal(t, int64(-3), b.Grad(), "-12/4")

	gq := NewGraph("TestBackwardDivQ").WithFormat(fixedpoint.Q16_15)
	a, b = gq.LeafFloat(3, "a"), gq.LeafFloat(4, "b")
	require.NoError(t, Backward(Div(a, b)))
	assert.Equal(t, 0.25, a.GradFloat())
	assert.Equal(t, -3.0/16.0, b.GradFloat())

	// Large operands: v*a*one doesn't fit in an int64 in Q16.15.
	a, b = gq.LeafFloat(20000, "a"), gq.LeafFloat(200, "b")
	c := gq.LeafFloat(100, "c")
	L := Mul(Div(a, b), c)
	require.NoError(t, Backward(L))
	assert.Equal(t, 10000.0, L.Float())
	assert.Equal(t, 0.5, a.GradFloat())
	assert.Equal(t, -50.0, b.GradFloat(), "-c*a/b²")
	assert.Equal(t, 100.0, c.GradFloat())

	// Large gradient flowing into a denominator that is smaller than 1.
	a, b = gq.LeafFloat(300, "a"), gq.LeafFloat(0.5, "b")
	require.NoError(t, Backward(Mul(Div(a, b), gq.LeafFloat(50, "c"))))
	assert.Equal(t, 100.0, a.GradFloat())
	assert.Equal(t, -60000.0, b.GradFloat(), "-c*a/b²")
}

func TestBackwardDivisionByZero(t *testing.T) {
	g := NewGraph("TestBackwardDivisionByZero")
	a, b := g.Leaf(12, "a"), g.Leaf(2, "b")
	quotient := Div(a, b)
	require.NoError(t, Backward(quotient))
	b.SetValue(0)
	err := Backward(quotient)
	require.ErrorIs(t, err, ErrDivisionByZero)
	assert.Equal(t, int64(-3), b.Grad(), "gradients are kept on error")
}

func TestBackwardNonlinear(t *testing.T) {
	g := NewGraph("TestBackwardNonlinear").WithFormat(fixedpoint.Q16_15)
	for _, value := range []float64{-2, -0.5, 0, 0.25, 1} {
		x := g.LeafFloat(value, "x")
		y := Tanh(x)
		require.NoError(t, Backward(y))
		assert.InDeltaf(t, 1-y.Float()*y.Float(), x.GradFloat(), 1e-3, "dtanh/dx at %g", value)
		assert.InDeltaf(t, 1-math.Tanh(value)*math.Tanh(value), x.GradFloat(), 0.06, "dtanh/dx at %g", value)

		e := Exp(x)
		require.NoError(t, Backward(e))
		assert.InDeltaf(t, e.Float(), x.GradFloat(), 1e-3, "dexp/dx at %g", value)
	}

	// Classic neuron: o = tanh(x1*w1 + x2*w2 + b).
	x1, x2 := g.LeafFloat(2, "x1"), g.LeafFloat(0, "x2")
	w1, w2 := g.LeafFloat(-3, "w1"), g.LeafFloat(1, "w2")
	bias := g.LeafFloat(6.8813735870195432, "b")
	n := Add(Add(Mul(x1, w1), Mul(x2, w2)), bias)
	o := Tanh(n)
	require.NoError(t, Backward(o))
	assert.InDelta(t, math.Tanh(0.8813735870195432), o.Float(), 0.025)
	localGrad := 1 - o.Float()*o.Float()
	assert.InDelta(t, localGrad, n.GradFloat(), 1e-3)
	assert.InDelta(t, localGrad*-3, x1.GradFloat(), 1e-3)
	assert.InDelta(t, localGrad*2, w1.GradFloat(), 1e-3)
	assert.InDelta(t, localGrad, x2.GradFloat(), 1e-3)
	assert.InDelta(t, 0.0, w2.GradFloat(), 1e-3)
}

func TestBackwardIntegerTanh(t *testing.T) {
	g := NewGraph("TestBackwardIntegerTanh")
	x := g.Leaf(0, "x")
	require.NoError(t, Backward(Tanh(x)))
	assert.Equal(t, int64(1), x.Grad())
	x = g.Leaf(2, "x")
	require.NoError(t, Backward(Tanh(x)))
	assert.Equal(t, int64(0), x.Grad(), "tanh saturates to 1 in integers")
}

func TestBackwardLeaf(t *testing.T) {
	g := NewGraph("TestBackwardLeaf")
	x := g.Leaf(5, "x")
	require.NoError(t, Backward(x))
	assert.Equal(t, int64(1), x.Grad())
}

func TestBackwardCycle(t *testing.T) {
	g := NewGraph("TestBackwardCycle")
	x, one := g.Leaf(1, "x"), g.Leaf(1, "one")
	require.NoError(t, Backward(Mul(x, one)))
	Rebind(x, Add(x, one))
	require.Same(t, x, x.Operands()[0])

	err := Backward(x)
	require.ErrorIs(t, err, ErrInvalidGraph)

	// Cycle below the root: no node is modified.
	two := g.Leaf(2, "two")
	y := Mul(x, two)
	err = Backward(y)
	require.ErrorIs(t, err, ErrInvalidGraph)
	assert.Equal(t, int64(0), y.Grad())
	assert.Equal(t, int64(0), two.Grad())
	assert.Equal(t, int64(1), x.Grad(), "gradient from the previous Backward is kept")
	assert.Equal(t, int64(1), one.Grad())
	require.Panics(t, func() { MustBackward(y) })
}

func TestBackwardUnreachableNodes(t *testing.T) {
	g := NewGraph("TestBackwardUnreachableNodes")
	a, b := g.Leaf(2, "a"), g.Leaf(3, "b")
	sum := Add(a, b)
	product := Mul(a, b)
	require.NoError(t, Backward(product))
	require.NoError(t, Backward(sum))
	assert.Equal(t, int64(1), a.Grad())
	assert.Equal(t, int64(1), b.Grad())
	assert.Equal(t, int64(1), product.Grad(), "nodes not reachable from root keep their gradient")
}
