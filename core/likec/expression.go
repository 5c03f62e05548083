// Copyright 2024 The revc Authors
// This file is part of the revc library.
//
// The revc library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The revc library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the revc library. If not, see <http://www.gnu.org/licenses/>.

package likec

import (
	"github.com/holiman/uint256"

	"github.com/revc/revc/core/ir"
)

// Expression is a node of the C-like expression tree. Every expression
// remembers the IR term it was synthesized from.
type Expression interface {
	// Term returns the originating IR term, or nil.
	Term() ir.Term
	SetTerm(t ir.Term)

	exprNode()
}

type exprBase struct {
	term ir.Term
}

func (e *exprBase) Term() ir.Term     { return e.term }
func (e *exprBase) SetTerm(t ir.Term) { e.term = t }
func (e *exprBase) exprNode()         {}

// IntegerConstant is a typed integer literal.
type IntegerConstant struct {
	exprBase
	Value uint256.Int
	Type  IntegerType
}

func NewIntegerConstant(value *uint256.Int, typ IntegerType) *IntegerConstant {
	c := &IntegerConstant{Type: typ}
	c.Value.Set(value)
	return c
}

func NewIntegerConstantUint64(value uint64, typ IntegerType) *IntegerConstant {
	return NewIntegerConstant(uint256.NewInt(value), typ)
}

// StringLiteral is a C string literal.
type StringLiteral struct {
	exprBase
	Text string
}

func NewStringLiteral(text string) *StringLiteral { return &StringLiteral{Text: text} }

// VariableIdentifier names a declared variable.
type VariableIdentifier struct {
	exprBase
	Declaration *VariableDeclaration
}

func NewVariableIdentifier(d *VariableDeclaration) *VariableIdentifier {
	return &VariableIdentifier{Declaration: d}
}

// LabelIdentifier names a declared label, as a goto operand.
type LabelIdentifier struct {
	exprBase
	Declaration *LabelDeclaration
}

func NewLabelIdentifier(d *LabelDeclaration) *LabelIdentifier {
	return &LabelIdentifier{Declaration: d}
}

// FunctionIdentifier names a declared function.
type FunctionIdentifier struct {
	exprBase
	Declaration *FunctionDeclaration
}

func NewFunctionIdentifier(d *FunctionDeclaration) *FunctionIdentifier {
	return &FunctionIdentifier{Declaration: d}
}

// Typecast casts an operand to an explicit type.
type Typecast struct {
	exprBase
	Type    Type
	Operand Expression
}

func NewTypecast(typ Type, operand Expression) *Typecast {
	return &Typecast{Type: typ, Operand: operand}
}

// UnaryOperatorKind enumerates the unary operators of the output
// language.
type UnaryOperatorKind int

const (
	Negation UnaryOperatorKind = iota
	BitwiseNot
	LogicalNot
	Dereference
	Reference
)

// UnaryOperator applies a unary operator.
type UnaryOperator struct {
	exprBase
	Kind    UnaryOperatorKind
	Operand Expression
}

func NewUnaryOperator(kind UnaryOperatorKind, operand Expression) *UnaryOperator {
	return &UnaryOperator{Kind: kind, Operand: operand}
}

// BinaryOperatorKind enumerates the binary operators of the output
// language.
type BinaryOperatorKind int

const (
	Assign BinaryOperatorKind = iota
	Add
	Sub
	Mul
	Div
	Rem
	BitwiseAnd
	BitwiseOr
	BitwiseXor
	Shl
	Shr
	Equal
	Less
	LessOrEqual
	LogicalAnd
	LogicalOr
	Comma
)

// BinaryOperator applies a binary operator.
type BinaryOperator struct {
	exprBase
	Kind        BinaryOperatorKind
	Left, Right Expression
}

func NewBinaryOperator(kind BinaryOperatorKind, left, right Expression) *BinaryOperator {
	return &BinaryOperator{Kind: kind, Left: left, Right: right}
}

// CallOperator calls a callee expression with arguments.
type CallOperator struct {
	exprBase
	Callee    Expression
	Arguments []Expression
}

func NewCallOperator(callee Expression, arguments ...Expression) *CallOperator {
	return &CallOperator{Callee: callee, Arguments: arguments}
}

func (c *CallOperator) AddArgument(e Expression) {
	c.Arguments = append(c.Arguments, e)
}
