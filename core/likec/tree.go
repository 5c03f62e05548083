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

import "github.com/revc/revc/core/ir"

// childStatements returns the statements directly nested in s.
func childStatements(s Statement) []Statement {
	switch s := s.(type) {
	case *Block:
		return s.Statements
	case *If:
		return []Statement{s.Then, s.Else}
	case *While:
		return []Statement{s.Body}
	case *DoWhile:
		return []Statement{s.Body}
	case *Switch:
		return []Statement{s.Body}
	default:
		return nil
	}
}

// childExpressions returns the expressions directly nested in e.
func childExpressions(e Expression) []Expression {
	switch e := e.(type) {
	case *Typecast:
		return []Expression{e.Operand}
	case *UnaryOperator:
		return []Expression{e.Operand}
	case *BinaryOperator:
		return []Expression{e.Left, e.Right}
	case *CallOperator:
		return append([]Expression{e.Callee}, e.Arguments...)
	default:
		return nil
	}
}

// AnnotateStatement back-annotates s and the statements nested in it
// with the IR statement they came from. Only nodes that do not yet
// carry an origin are touched, so outer wrappers attribute to the
// outermost producer and inner nodes retain their own origin.
func AnnotateStatement(s Statement, origin ir.Statement) {
	if s == nil || s.Origin() != nil {
		return
	}
	s.SetOrigin(origin)
	for _, child := range childStatements(s) {
		AnnotateStatement(child, origin)
	}
}

// AnnotateExpression back-annotates e and the expressions nested in it
// with the IR term they came from, under the same only-if-unset rule
// as AnnotateStatement.
func AnnotateExpression(e Expression, origin ir.Term) {
	if e == nil || e.Term() != nil {
		return
	}
	e.SetTerm(origin)
	for _, child := range childExpressions(e) {
		AnnotateExpression(child, origin)
	}
}
