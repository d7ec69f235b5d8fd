// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/gomlx/scalargraph/pkg/core/scalar"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)
	oddRowStyle = lipgloss.NewStyle().Faint(false).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Faint(true).
			PaddingLeft(1).PaddingRight(1)
	rootRowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "9", Dark: "9"}).
			Bold(true).
			PaddingLeft(1).PaddingRight(1)
)

// gradientsTable lists every node root depends on, in creation order, with its value and gradient.
// The root row is highlighted.
func gradientsTable(root *scalar.Node) *lgtable.Table {
	nodes := scalar.Reachable(root)
	format := root.Graph().Format()
	rootRow := -1
	table := lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		Headers("id", "label", "op", "data", "grad")
	for ii, node := range nodes {
		if node == root {
			rootRow = ii
		}
		table.Row(fmt.Sprintf("#%d", node.Id()), node.Label(), node.Op().Symbol(),
			format.Sprint(node.Value()), format.Sprint(node.Grad()))
	}
	table.StyleFunc(func(row, col int) (s lipgloss.Style) {
		switch {
		case row < 0:
			return headerRowStyle
		case row == rootRow:
			s = rootRowStyle
		case row%2 == 0:
			s = oddRowStyle
		default:
			s = evenRowStyle
		}
		if col == 0 || col >= 3 {
			s = s.Align(lipgloss.Right)
		} else {
			s = s.Align(lipgloss.Left)
		}
		return
	})
	return table
}
