// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package scalar

import (
	"fmt"

	"github.com/pkg/errors"
)

// OpType identifies the operation that created a node. Leaves have OpTypeLeaf.
type OpType int

const (
	OpTypeLeaf OpType = iota
	OpTypeAdd
	OpTypeSub
	OpTypeMul
	OpTypeDiv
	OpTypeTanh
	OpTypeExp
	opTypeLast
)

var (
	opTypeNames   = [...]string{"Leaf", "Add", "Sub", "Mul", "Div", "Tanh", "Exp"}
	opTypeSymbols = [...]string{"", "+", "-", "*", "/", "tanh", "exp"}
)

// IsValid returns whether op is one of the defined operations.
func (op OpType) IsValid() bool {
	return op >= OpTypeLeaf && op < opTypeLast
}

// String returns the name of the operation, e.g. "Add".
func (op OpType) String() string {
	if !op.IsValid() {
		return fmt.Sprintf("OpType(%d)", int(op))
	}
	return opTypeNames[op]
}

// Symbol returns the operator tag rendered in graph descriptions, e.g. "+". It is empty for leaves.
func (op OpType) Symbol() string {
	if !op.IsValid() {
		return "?"
	}
	return opTypeSymbols[op]
}

// Arity returns the number of operands a node of this type has.
func (op OpType) Arity() int {
	switch op {
	case OpTypeLeaf:
		return 0
	case OpTypeTanh, OpTypeExp:
		return 1
	default:
		return 2
	}
}

// OpTypeFromSymbol is the inverse of OpType.Symbol.
func OpTypeFromSymbol(symbol string) (OpType, error) {
	for op := OpTypeLeaf; op < opTypeLast; op++ {
		if opTypeSymbols[op] == symbol {
			return op, nil
		}
	}
	return OpTypeLeaf, errors.Errorf("unknown operator symbol %q", symbol)
}
