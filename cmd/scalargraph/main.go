// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// scalargraph builds the expression L = (a*b + c) * f, back-propagates its gradients, prints
// a table with the gradient of every node and outputs the graph in Graphviz DOT format.
// The operator combining (a*b + c) and f can be changed with -op.
//
// Render the graph with: scalargraph -dot=graph.dot && dot -Tpng graph.dot -o graph.png
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/scalargraph/pkg/core/fixedpoint"
	"github.com/gomlx/scalargraph/pkg/core/scalar"
	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

var (
	flagDot = flag.String("dot", "-", "File where to write the Graphviz description of the graph. "+
		"Use \"-\" for stdout, or leave empty to skip it.")
	flagFormat = flag.String("format", "int", "Numeric format of the values: \"int\" or a fixed-point "+
		"format like \"Q16.15\".")
	flagTable = flag.Bool("table", true, "Print a table with the value and gradient of every node.")
	flagTanh  = flag.Bool("tanh", false, "Apply tanh to the output, L = tanh((a*b + c) * f).")
	flagOp    = flag.String("op", "*", "Operator combining d = a*b + c and f into L: one of \"+\", \"-\", \"*\" or \"/\".")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	format := must.M1(fixedpoint.ParseFormat(*flagFormat))
	op := must.M1(parseOperator(*flagOp))

	var output *scalar.Node
	err := exceptions.TryCatch[error](func() {
		output = buildExpression(scalar.NewGraph("L").WithFormat(format), op, *flagTanh)
	})
	if err != nil {
		klog.Fatalf("Failed to build the graph: %+v", err)
	}
	if err := scalar.Backward(output); err != nil {
		klog.Fatalf("Failed to back-propagate: %+v", err)
	}
	klog.V(1).Infof("%s", output.Graph())

	if *flagTable {
		fmt.Println(gradientsTable(output))
	}
	writeDot(output, *flagDot)
}

var binaryOps = map[scalar.OpType]func(a, b *scalar.Node) *scalar.Node{
	scalar.OpTypeAdd: scalar.Add,
	scalar.OpTypeSub: scalar.Sub,
	scalar.OpTypeMul: scalar.Mul,
	scalar.OpTypeDiv: scalar.Div,
}

// parseOperator returns the binary operation with the given symbol.
func parseOperator(symbol string) (scalar.OpType, error) {
	op, err := scalar.OpTypeFromSymbol(symbol)
	if err != nil {
		return op, err
	}
	if _, found := binaryOps[op]; !found {
		return op, errors.Errorf("operator %q (%s) is not a binary operator", symbol, op)
	}
	return op, nil
}

// buildExpression builds L = (a*b + c) <op> f, declaring the intermediate values upfront so they keep
// their names.
func buildExpression(g *scalar.Graph, op scalar.OpType, withTanh bool) *scalar.Node {
	a := g.LeafFloat(2, "a")
	b := g.LeafFloat(-3, "b")
	c := g.LeafFloat(10, "c")
	e, d := g.Leaf(0, "e"), g.Leaf(0, "d")
	f := g.LeafFloat(-2, "f")
	L := g.Leaf(0, "L")

	scalar.Rebind(e, scalar.Mul(a, b))
	scalar.Rebind(d, scalar.Add(e, c))
	scalar.Rebind(L, binaryOps[op](d, f))
	if withTanh {
		return scalar.Tanh(L)
	}
	return L
}

func writeDot(root *scalar.Node, path string) {
	switch path {
	case "":
		return
	case "-":
		must.M(scalar.WriteGraphviz(os.Stdout, root))
		return
	}
	file := must.M1(os.Create(path))
	must.M(scalar.WriteGraphviz(file, root))
	must.M(file.Close())
	klog.Infof("Graphviz description written to %q", path)
}
