// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scalar

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// Graphviz returns a description of the graph reachable from root in the Graphviz DOT language.
//
// Each node is a record box with its label, value and gradient, identified as "n<id>". A derived node
// also gets an operator circle "n<id>_op", with edges from each operand to the operator and from the
// operator to the node. The nodes are emitted in depth-first order from root, and each node only once,
// so the output is deterministic and shared sub-graphs are not duplicated.
func Graphviz(root *Node) string {
	root.AssertValid()
	var sb strings.Builder
	name := root.graph.name
	if name == "" {
		name = "G"
	}
	fmt.Fprintf(&sb, "digraph %s {\n", dotQuote(name))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=record, fontname=\"Consolas\", fontsize=10, " +
		"style=filled, fillcolor=\"#f9f9f9\", color=\"#555555\"];\n")
	sb.WriteString("  edge [color=\"#666666\"];\n\n")

	format := root.graph.format
	visited := make([]bool, root.graph.NumNodes())
	var build func(node *Node)
	build = func(node *Node) {
		if visited[node.id] {
			return
		}
		visited[node.id] = true

		uid := fmt.Sprintf("n%d", node.id)
		label := node.label
		if label == "" {
			label = "(unnamed)"
		}
		fmt.Fprintf(&sb, "  %s [label=\"{ %s | data: %s | grad: %s }\"];\n",
			uid, escapeRecordLabel(label), format.Sprint(node.value), format.Sprint(node.grad))
		if node.IsLeaf() {
			return
		}

		opId := uid + "_op"
		fmt.Fprintf(&sb, "  %s [label=%s, shape=circle, style=filled, fillcolor=\"#eeeeee\", color=\"#444444\"];\n",
			opId, dotQuote(node.op.Symbol()))
		fmt.Fprintf(&sb, "  %s -> %s;\n", opId, uid)
		for _, operand := range node.operands {
			fmt.Fprintf(&sb, "  n%d -> %s;\n", operand.id, opId)
			build(operand)
		}
	}
	build(root)
	sb.WriteString("}\n")
	return sb.String()
}

// WriteGraphviz writes Graphviz(root) to w.
func WriteGraphviz(w io.Writer, root *Node) error {
	if _, err := io.WriteString(w, Graphviz(root)); err != nil {
		return errors.Wrap(err, "failed to write Graphviz description")
	}
	return nil
}

// Reachable returns root and all the nodes it depends on, sorted by NodeId.
func Reachable(root *Node) []*Node {
	root.AssertValid()
	visited := make([]bool, root.graph.NumNodes())
	visited[root.id] = true
	nodes := []*Node{root}
	for ii := 0; ii < len(nodes); ii++ {
		for _, operand := range nodes[ii].operands {
			if !visited[operand.id] {
				visited[operand.id] = true
				nodes = append(nodes, operand)
			}
		}
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return cmp.Compare(a.id, b.id) })
	return nodes
}

// dotQuote returns s as a DOT double-quoted string.
func dotQuote(s string) string {
	return `"` + strings.ReplaceAll(strings.ReplaceAll(s, `\`, `\\`), `"`, `\"`) + `"`
}

var recordLabelEscaper = strings.NewReplacer(
	`\`, `\\`, `"`, `\"`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`)

// escapeRecordLabel escapes the characters with special meaning in record labels.
func escapeRecordLabel(s string) string {
	return recordLabelEscaper.Replace(s)
}
