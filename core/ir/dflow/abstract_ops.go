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

package dflow

import (
	"github.com/holiman/uint256"

	"github.com/revc/revc/core/ir"
)

// The operators below over-approximate the set of concrete outcomes.
// Signed and unsigned variants carry U/S prefixes; the lattice itself
// carries no signedness.

// Not returns the bitwise complement.
func Not(a AbstractValue) AbstractValue {
	var zero, one uint256.Int
	zero.Set(&a.oneBits)
	one.Set(&a.zeroBits)
	return New(a.size, &zero, &one)
}

// And returns the bitwise conjunction.
func And(a, b AbstractValue) AbstractValue {
	var zero, one uint256.Int
	zero.Or(&a.zeroBits, &b.zeroBits)
	one.And(&a.oneBits, &b.oneBits)
	return New(a.size, &zero, &one)
}

// Or returns the bitwise disjunction.
func Or(a, b AbstractValue) AbstractValue {
	var zero, one uint256.Int
	zero.And(&a.zeroBits, &b.zeroBits)
	one.Or(&a.oneBits, &b.oneBits)
	return New(a.size, &zero, &one)
}

// Xor returns the bitwise exclusive disjunction.
func Xor(a, b AbstractValue) AbstractValue {
	var zero, one, t1, t2 uint256.Int
	t1.And(&a.zeroBits, &b.zeroBits)
	t2.And(&a.oneBits, &b.oneBits)
	zero.Or(&t1, &t2)
	t1.And(&a.oneBits, &b.zeroBits)
	t2.And(&a.zeroBits, &b.oneBits)
	one.Or(&t1, &t2)
	return New(a.size, &zero, &one)
}

func shiftAmount(b AbstractValue) (uint, bool) {
	if !b.IsConcrete() {
		return 0, false
	}
	n := b.AsConcrete()
	if !n.IsUint64() || n.Uint64() > MaxBitSize {
		return MaxBitSize, true
	}
	return uint(n.Uint64()), true
}

// Shl shifts left by a concrete amount, introducing known-zero bits at
// the bottom. A non-concrete amount yields Top.
func Shl(a, b AbstractValue) AbstractValue {
	n, ok := shiftAmount(b)
	if !ok {
		return Top(a.size)
	}
	var zero, one uint256.Int
	zero.Lsh(&a.zeroBits, n)
	low := bitMask(int(n))
	zero.Or(&zero, &low)
	one.Lsh(&a.oneBits, n)
	return New(a.size, &zero, &one)
}

// UShr shifts right by a concrete amount, filling with known zeros. A
// non-concrete amount yields Top.
func UShr(a, b AbstractValue) AbstractValue {
	n, ok := shiftAmount(b)
	if !ok {
		return Top(a.size)
	}
	var zero, one uint256.Int
	zero.Rsh(&a.zeroBits, n)
	one.Rsh(&a.oneBits, n)
	fill := shrFillMask(a.size, n)
	zero.Or(&zero, &fill)
	return New(a.size, &zero, &one)
}

// SShr shifts right by a concrete amount, filling with the
// possibilities of the sign bit. A non-concrete amount yields Top.
func SShr(a, b AbstractValue) AbstractValue {
	n, ok := shiftAmount(b)
	if !ok {
		return Top(a.size)
	}
	var zero, one uint256.Int
	zero.Rsh(&a.zeroBits, n)
	one.Rsh(&a.oneBits, n)

	signMask := bitAt(a.size - 1)
	fill := shrFillMask(a.size, n)
	var x uint256.Int
	if !x.And(&a.zeroBits, &signMask).IsZero() {
		zero.Or(&zero, &fill)
	}
	if !x.And(&a.oneBits, &signMask).IsZero() {
		one.Or(&one, &fill)
	}
	return New(a.size, &zero, &one)
}

// shrFillMask returns the mask of the top n bits of a size-bit value.
func shrFillMask(size int, n uint) uint256.Int {
	if int(n) >= size {
		return bitMask(size)
	}
	m := bitMask(int(n))
	m.Lsh(&m, uint(size-int(n)))
	return m
}

// Add returns the sum: concrete when both sides are, the other side
// when one side is concrete zero, Top otherwise.
func Add(a, b AbstractValue) AbstractValue {
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		var sum uint256.Int
		sum.Add(&av, &bv)
		return Concrete(a.size, &sum)
	}
	if b.IsConcreteZero() {
		return a
	}
	if a.IsConcreteZero() {
		return b
	}
	return Top(a.size)
}

// Neg returns the two's complement negation.
func Neg(a AbstractValue) AbstractValue {
	return Add(Not(a), ConcreteUint64(a.size, 1))
}

// Sub returns the difference under the same rules as Add.
func Sub(a, b AbstractValue) AbstractValue {
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		var diff uint256.Int
		diff.Sub(&av, &bv)
		return Concrete(a.size, &diff)
	}
	if b.IsConcreteZero() {
		return a
	}
	if a.IsConcreteZero() {
		return Neg(b)
	}
	return Top(a.size)
}

// Mul returns the product: concrete when both sides are, zero when a
// side is concrete zero, Top otherwise.
func Mul(a, b AbstractValue) AbstractValue {
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		var prod uint256.Int
		prod.Mul(&av, &bv)
		return Concrete(a.size, &prod)
	}
	if a.IsConcreteZero() {
		return a
	}
	if b.IsConcreteZero() {
		return b
	}
	return Top(a.size)
}

// UDiv returns the unsigned quotient. Division by concrete zero yields
// the no-value.
func UDiv(a, b AbstractValue) AbstractValue {
	if b.IsConcreteZero() {
		return AbstractValue{}
	}
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		var q uint256.Int
		q.Div(&av, &bv)
		return Concrete(a.size, &q)
	}
	if a.IsConcreteZero() {
		return a
	}
	return Top(a.size)
}

// SDiv returns the signed quotient. Division by concrete zero yields
// the no-value.
func SDiv(a, b AbstractValue) AbstractValue {
	if b.IsConcreteZero() {
		return AbstractValue{}
	}
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		ae := signExtend256(&av, a.size)
		be := signExtend256(&bv, b.size)
		var q uint256.Int
		q.SDiv(&ae, &be)
		return Concrete(a.size, &q)
	}
	if a.IsConcreteZero() {
		return a
	}
	return Top(a.size)
}

// URem returns the unsigned remainder. A concrete-one divisor yields
// concrete zero.
func URem(a, b AbstractValue) AbstractValue {
	if b.IsConcreteZero() {
		return AbstractValue{}
	}
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		var r uint256.Int
		r.Mod(&av, &bv)
		return Concrete(a.size, &r)
	}
	if a.IsConcreteZero() {
		return a
	}
	if bv := b.AsConcrete(); b.IsConcrete() && b.AsConcreteUint64() == 1 && bv.IsUint64() {
		return ConcreteUint64(a.size, 0)
	}
	return Top(a.size)
}

// SRem returns the signed remainder under the same rules as URem.
func SRem(a, b AbstractValue) AbstractValue {
	if b.IsConcreteZero() {
		return AbstractValue{}
	}
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		ae := signExtend256(&av, a.size)
		be := signExtend256(&bv, b.size)
		var r uint256.Int
		r.SMod(&ae, &be)
		return Concrete(a.size, &r)
	}
	if a.IsConcreteZero() {
		return a
	}
	if bv := b.AsConcrete(); b.IsConcrete() && b.AsConcreteUint64() == 1 && bv.IsUint64() {
		return ConcreteUint64(a.size, 0)
	}
	return Top(a.size)
}

// LogicalNot returns the 1-bit logical negation: it can be zero if the
// operand can be nonzero, and one if the operand can be zero.
func LogicalNot(a AbstractValue) AbstractValue {
	canBeNonzero := !a.oneBits.IsZero()
	var strictlyOne uint256.Int
	strictlyOne.Not(&a.zeroBits)
	strictlyOne.And(&a.oneBits, &strictlyOne)
	canBeZero := strictlyOne.IsZero()
	return boolValue(canBeNonzero, canBeZero)
}

// Eq returns the 1-bit equality: concretely true iff the known bits
// agree on every position.
func Eq(a, b AbstractValue) AbstractValue {
	mask := bitMask(a.size)
	var x1, x2, diff uint256.Int
	x1.Xor(&a.oneBits, &b.oneBits)
	x2.Xor(&a.zeroBits, &b.zeroBits)
	diff.Or(&x1, &x2)
	canBeFalse := !diff.IsZero()

	var t1, t2, agreed uint256.Int
	t1.And(&a.zeroBits, &b.zeroBits)
	t2.And(&a.oneBits, &b.oneBits)
	agreed.Or(&t1, &t2)
	canBeTrue := agreed.Eq(&mask)

	return boolValue(canBeFalse, canBeTrue)
}

// SLt returns the 1-bit signed less-than; it only narrows when both
// sides are concrete.
func SLt(a, b AbstractValue) AbstractValue {
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		ae := signExtend256(&av, a.size)
		be := signExtend256(&bv, b.size)
		return concreteBool(ae.Slt(&be))
	}
	return Top(1)
}

// SLe returns the 1-bit signed less-or-equal.
func SLe(a, b AbstractValue) AbstractValue {
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		ae := signExtend256(&av, a.size)
		be := signExtend256(&bv, b.size)
		return concreteBool(ae.Slt(&be) || ae.Eq(&be))
	}
	return Top(1)
}

// ULt returns the 1-bit unsigned less-than.
func ULt(a, b AbstractValue) AbstractValue {
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		return concreteBool(av.Lt(&bv))
	}
	return Top(1)
}

// ULe returns the 1-bit unsigned less-or-equal.
func ULe(a, b AbstractValue) AbstractValue {
	if a.IsConcrete() && b.IsConcrete() {
		av, bv := a.AsConcrete(), b.AsConcrete()
		return concreteBool(av.Lt(&bv) || av.Eq(&bv))
	}
	return Top(1)
}

func concreteBool(v bool) AbstractValue {
	if v {
		return ConcreteUint64(1, 1)
	}
	return ConcreteUint64(1, 0)
}

func boolValue(canBeZero, canBeOne bool) AbstractValue {
	var zero, one uint256.Int
	if canBeZero {
		zero.SetUint64(1)
	}
	if canBeOne {
		one.SetUint64(1)
	}
	return New(1, &zero, &one)
}

// applyUnary evaluates a unary operator over the operand's abstract
// value, producing a result of the operator's size.
func applyUnary(kind ir.UnaryOperatorKind, size int, x AbstractValue) AbstractValue {
	switch kind {
	case ir.NOT:
		return Not(x).Resize(size)
	case ir.NEG:
		return Neg(x).Resize(size)
	case ir.SIGNEXTEND:
		return x.SignExtend(size)
	case ir.ZEROEXTEND:
		return x.ZeroExtend(size)
	case ir.TRUNCATE:
		return x.Resize(size)
	default:
		return Top(size)
	}
}

// applyBinary evaluates a binary operator over the operands' abstract
// values, producing a result of the operator's size.
func applyBinary(kind ir.BinaryOperatorKind, size int, l, r AbstractValue) AbstractValue {
	switch kind {
	case ir.AND:
		return And(l, r).Resize(size)
	case ir.OR:
		return Or(l, r).Resize(size)
	case ir.XOR:
		return Xor(l, r).Resize(size)
	case ir.SHL:
		return Shl(l, r).Resize(size)
	case ir.SHR:
		return UShr(l, r).Resize(size)
	case ir.SAR:
		return SShr(l, r).Resize(size)
	case ir.ADD:
		return Add(l, r).Resize(size)
	case ir.SUB:
		return Sub(l, r).Resize(size)
	case ir.MUL:
		return Mul(l, r).Resize(size)
	case ir.SDIV:
		// Division by concrete zero yields the no-value; resizing
		// would turn it into an ordinary bottom.
		return SDiv(l, r)
	case ir.SREM:
		return SRem(l, r)
	case ir.UDIV:
		return UDiv(l, r)
	case ir.UREM:
		return URem(l, r)
	case ir.EQ:
		return Eq(l, r).Resize(size)
	case ir.SLT:
		return SLt(l, r).Resize(size)
	case ir.SLE:
		return SLe(l, r).Resize(size)
	case ir.ULT:
		return ULt(l, r).Resize(size)
	case ir.ULE:
		return ULe(l, r).Resize(size)
	default:
		return Top(size)
	}
}
