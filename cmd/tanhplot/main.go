// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// tanhplot plots the fixed-point approximations of tanh or exp, and their gradients computed with
// scalar.Backward, against the float64 functions of the math package. It is used to inspect the
// precision of a fixed-point format.
package main

import (
	"flag"
	"image/color"
	"math"

	"github.com/gomlx/scalargraph/pkg/core/fixedpoint"
	"github.com/gomlx/scalargraph/pkg/core/scalar"
	"github.com/janpfeifer/must"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"k8s.io/klog/v2"
)

var (
	flagFn     = flag.String("fn", "tanh", "Function to plot: \"tanh\" or \"exp\".")
	flagFormat = flag.String("format", "Q16.15", "Fixed-point format used for the approximation.")
	flagOut    = flag.String("out", "", "Output PNG file. Defaults to \"<fn>.png\".")
	flagMin    = flag.Float64("min", -4, "Start of the plotted range.")
	flagMax    = flag.Float64("max", 4, "End of the plotted range.")
	flagIters  = flag.Int("exp_iterations", scalar.DefaultExpIterations, "Number of Taylor series terms for exp.")
)

// curve is a named function to plot.
type curve struct {
	name  string
	fn    func(x float64) float64
	color color.Color
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	format := must.M1(fixedpoint.ParseFormat(*flagFormat))
	out := *flagOut
	if out == "" {
		out = *flagFn + ".png"
	}

	var curves []curve
	switch *flagFn {
	case "tanh":
		curves = tanhCurves(format)
	case "exp":
		curves = expCurves(format, *flagIters)
	default:
		klog.Fatalf("Unknown -fn=%q, use \"tanh\" or \"exp\"", *flagFn)
	}
	must.M(plotCurves(out, *flagFn+" ("+format.String()+")", *flagMin, *flagMax, curves))
	klog.Infof("Plot written to %q", out)
}

// approximation returns the value and gradient of fn applied to a leaf with value x,
// computed in a fresh graph of the given format.
func approximation(format fixedpoint.Format, x float64, fn func(*scalar.Node) *scalar.Node) (value, grad float64) {
	g := scalar.NewGraph("approximation").WithFormat(format)
	input := g.LeafFloat(x, "x")
	output := fn(input)
	scalar.MustBackward(output)
	return output.Float(), input.GradFloat()
}

var (
	approxColor     = color.RGBA{R: 200, A: 255}
	approxGradColor = color.RGBA{R: 255, G: 150, A: 255}
	refColor        = color.RGBA{B: 200, A: 255}
	refGradColor    = color.RGBA{G: 150, B: 255, A: 255}
)

func tanhCurves(format fixedpoint.Format) []curve {
	return []curve{
		{"tanh " + format.String(), func(x float64) float64 {
			v, _ := approximation(format, x, scalar.Tanh)
			return v
		}, approxColor},
		{"d/dx tanh " + format.String(), func(x float64) float64 {
			_, g := approximation(format, x, scalar.Tanh)
			return g
		}, approxGradColor},
		{"math.Tanh", math.Tanh, refColor},
		{"1 - math.Tanh²", func(x float64) float64 {
			t := math.Tanh(x)
			return 1 - t*t
		}, refGradColor},
	}
}

func expCurves(format fixedpoint.Format, iterations int) []curve {
	expN := func(x *scalar.Node) *scalar.Node { return scalar.ExpN(x, iterations) }
	return []curve{
		{"exp " + format.String(), func(x float64) float64 {
			v, _ := approximation(format, x, expN)
			return v
		}, approxColor},
		{"d/dx exp " + format.String(), func(x float64) float64 {
			_, g := approximation(format, x, expN)
			return g
		}, approxGradColor},
		{"math.Exp", math.Exp, refColor},
	}
}

func plotCurves(path, title string, start, end float64, curves []curve) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x"
	p.X.Min = start
	p.X.Max = end
	p.Y.Label.Text = "f(x)"
	p.Y.Min, p.Y.Max = yRange(start, end, curves)
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())

	for _, c := range curves {
		fnPlot := plotter.NewFunction(c.fn)
		fnPlot.Samples = 1000
		fnPlot.Color = c.color
		fnPlot.Width = vg.Points(1.5)
		p.Add(fnPlot)
		p.Legend.Add(c.name, fnPlot)
	}
	return p.Save(12*vg.Inch, 6*vg.Inch, path)
}

// yRange samples the curves to find the limits of the Y axis, with a 10% margin:
// plotter.Function doesn't report its data range.
func yRange(start, end float64, curves []curve) (yMin, yMax float64) {
	const numSamples = 100
	yMin, yMax = math.Inf(1), math.Inf(-1)
	for _, c := range curves {
		for ii := 0; ii < numSamples+1; ii++ {
			y := c.fn(start + (end-start)*float64(ii)/numSamples)
			yMin, yMax = min(yMin, y), max(yMax, y)
		}
	}
	margin := 0.1 * (yMax - yMin)
	if margin == 0 {
		margin = 1
	}
	return yMin - margin, yMax + margin
}
