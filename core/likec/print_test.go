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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/revc/revc/core/ir"
)

func TestPrintExpression(t *testing.T) {
	u32 := MakeIntegerType(32, true)

	sum := NewBinaryOperator(Add,
		NewIntegerConstantUint64(1, u32),
		NewTypecast(u32, NewIntegerConstantUint64(2, u32)))
	assert.Equal(t, "1 + ((uint32_t)2)", PrintExpression(sum))

	v := NewVariableDeclaration("v0", u32)
	deref := NewUnaryOperator(Dereference,
		NewTypecast(MakePointerType(64, u32), NewVariableIdentifier(v)))
	assert.Equal(t, "*((uint32_t*)v0)", PrintExpression(deref))

	assert.Equal(t, "0x5000", PrintExpression(NewIntegerConstantUint64(0x5000, u32)))
	assert.Equal(t, `"Hello"`, PrintExpression(NewStringLiteral("Hello")))
}

func TestPrintStatements(t *testing.T) {
	u32 := MakeIntegerType(32, true)

	body := NewBlock()
	body.AddStatement(NewBreak())
	loop := NewWhile(NewIntegerConstantUint64(1, u32), body)
	assert.Contains(t, PrintStatement(loop), "while (1) {")
	assert.Contains(t, PrintStatement(loop), "break;")

	label := NewLabelDeclaration("addr_0x1000_0")
	assert.Equal(t, "addr_0x1000_0:", PrintStatement(NewLabelStatement(label)))
	assert.Equal(t, "goto addr_0x1000_0;", PrintStatement(NewGoto(NewLabelIdentifier(label))))

	assert.Equal(t, "return;", PrintStatement(NewReturn(nil)))
	assert.Equal(t, `__asm__("nop");`, PrintStatement(NewInlineAssembly("nop")))
}

func TestPrintFunctionDefinition(t *testing.T) {
	def := NewFunctionDefinition("f", VoidType{}, false)
	def.Block().AddStatement(NewReturn(nil))

	text := Print(def)
	assert.Contains(t, text, "void f(void) {")
	assert.Contains(t, text, "return;")
}

func TestAnnotationSetsOnlyUnsetOrigins(t *testing.T) {
	u32 := MakeIntegerType(32, true)

	inner := NewIntegerConstantUint64(2, u32)
	innerTerm := ir.NewConstantUint64(32, 2)
	inner.SetTerm(innerTerm)

	outer := NewTypecast(u32, inner)
	outerTerm := ir.NewConstantUint64(32, 7)
	AnnotateExpression(outer, outerTerm)

	assert.Equal(t, ir.Term(outerTerm), outer.Term(), "the wrapper attributes to the outermost producer")
	assert.Equal(t, ir.Term(innerTerm), inner.Term(), "inner nodes keep their own origin")
}
