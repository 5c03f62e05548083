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
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abstract(size int, zero, one uint64) AbstractValue {
	return New(size, uint256.NewInt(zero), uint256.NewInt(one))
}

// isSubsetOf reports a ⊑ b: every bit possibility of a is allowed by b.
func isSubsetOf(a, b AbstractValue) bool {
	az, bz := a.ZeroBits(), b.ZeroBits()
	ao, bo := a.OneBits(), b.OneBits()
	var t uint256.Int
	if !t.And(&az, &bz).Eq(&az) {
		return false
	}
	return t.And(&ao, &bo).Eq(&ao)
}

func TestMergeLattice(t *testing.T) {
	samples := []AbstractValue{
		Bottom(8),
		Top(8),
		ConcreteUint64(8, 0),
		ConcreteUint64(8, 0x5a),
		ConcreteUint64(8, 0xff),
		abstract(8, 0xf0, 0x0f),
		abstract(8, 0xff, 0x01),
	}

	for _, a := range samples {
		assert.Equal(t, a, a.Merge(a), "merge must be idempotent")
		for _, b := range samples {
			ab, ba := a.Merge(b), b.Merge(a)
			assert.Equal(t, ab, ba, "merge must be commutative")
			assert.True(t, isSubsetOf(a, ab), "merge must ascend in the lattice")
			assert.True(t, isSubsetOf(b, ab), "merge must ascend in the lattice")
			for _, c := range samples {
				assert.Equal(t, a.Merge(b).Merge(c), a.Merge(b.Merge(c)),
					"merge must be associative")
			}
		}
	}
}

func TestConcreteEmbedding(t *testing.T) {
	const size = 8
	values := []uint64{0, 1, 2, 5, 127, 128, 200, 255}

	for _, x := range values {
		for _, y := range values {
			a, b := ConcreteUint64(size, x), ConcreteUint64(size, y)

			sum := Add(a, b)
			require.True(t, sum.IsConcrete())
			assert.Equal(t, (x+y)&0xff, sum.AsConcreteUint64(), "add %d %d", x, y)

			diff := Sub(a, b)
			require.True(t, diff.IsConcrete())
			assert.Equal(t, (x-y)&0xff, diff.AsConcreteUint64(), "sub %d %d", x, y)

			prod := Mul(a, b)
			require.True(t, prod.IsConcrete())
			assert.Equal(t, (x*y)&0xff, prod.AsConcreteUint64(), "mul %d %d", x, y)

			if y != 0 {
				quot := UDiv(a, b)
				require.True(t, quot.IsConcrete())
				assert.Equal(t, x/y, quot.AsConcreteUint64(), "udiv %d %d", x, y)

				sq := SDiv(a, b)
				require.True(t, sq.IsConcrete())
				sx, sy := int64(int8(x)), int64(int8(y))
				assert.Equal(t, uint64(sx/sy)&0xff, sq.AsConcreteUint64(), "sdiv %d %d", x, y)
			}

			lt := ULt(a, b)
			require.True(t, lt.IsConcrete())
			assert.Equal(t, x < y, lt.AsConcreteUint64() == 1, "ult %d %d", x, y)

			slt := SLt(a, b)
			require.True(t, slt.IsConcrete())
			assert.Equal(t, int8(x) < int8(y), slt.AsConcreteUint64() == 1, "slt %d %d", x, y)

			eq := Eq(a, b)
			require.True(t, eq.IsConcrete())
			assert.Equal(t, x == y, eq.AsConcreteUint64() == 1, "eq %d %d", x, y)
		}
	}
}

func TestBitwiseOperators(t *testing.T) {
	a := ConcreteUint64(8, 0b1100_1010)
	b := ConcreteUint64(8, 0b1010_0110)

	assert.Equal(t, uint64(0b1000_0010), And(a, b).AsConcreteUint64())
	assert.Equal(t, uint64(0b1110_1110), Or(a, b).AsConcreteUint64())
	assert.Equal(t, uint64(0b0110_1100), Xor(a, b).AsConcreteUint64())
	assert.Equal(t, uint64(0b0011_0101), Not(a).AsConcreteUint64())

	// A bottom bit stays impossible through bit-parallel operators.
	half := abstract(8, 0x0f, 0x0f) // low nibble unknown, high nibble no value
	anded := And(half, ConcreteUint64(8, 0xff))
	z, o := anded.ZeroBits(), anded.OneBits()
	assert.EqualValues(t, 0x0f, z.Uint64())
	assert.EqualValues(t, 0x0f, o.Uint64())
}

func TestShiftRoundTrip(t *testing.T) {
	const size = 16
	a := ConcreteUint64(size, 0xabcd)
	for _, n := range []uint64{0, 1, 4, 8, 15} {
		amount := ConcreteUint64(size, n)
		round := UShr(Shl(a, amount), amount)

		require.True(t, round.IsConcrete())
		assert.Equal(t, uint64(0xabcd<<n)&0xffff>>n, round.AsConcreteUint64(), "n=%d", n)

		// The top n positions must be known zeros.
		zero := round.ZeroBits()
		topMask := uint64(0xffff) &^ (0xffff >> n)
		assert.Equal(t, topMask, zero.Uint64()&topMask, "n=%d", n)
	}
}

func TestSignedShift(t *testing.T) {
	neg := ConcreteUint64(8, 0x80)
	shifted := SShr(neg, ConcreteUint64(8, 3))
	require.True(t, shifted.IsConcrete())
	assert.Equal(t, uint64(0xf0), shifted.AsConcreteUint64())

	pos := ConcreteUint64(8, 0x40)
	shifted = SShr(pos, ConcreteUint64(8, 3))
	require.True(t, shifted.IsConcrete())
	assert.Equal(t, uint64(0x08), shifted.AsConcreteUint64())
}

func TestResizeInvariant(t *testing.T) {
	a := Top(16).Resize(8)
	mask := bitMask(8)
	z, o := a.ZeroBits(), a.OneBits()
	var tmp uint256.Int
	assert.True(t, tmp.And(&z, &mask).Eq(&z), "zero bits must fit the new size")
	assert.True(t, tmp.And(&o, &mask).Eq(&o), "one bits must fit the new size")
	assert.Equal(t, 8, a.Size())
}

func TestDivisionEdgeCases(t *testing.T) {
	a := ConcreteUint64(8, 42)
	zero := ConcreteUint64(8, 0)
	one := ConcreteUint64(8, 1)

	assert.Equal(t, 0, UDiv(a, zero).Size(), "division by zero yields the no-value")
	assert.Equal(t, 0, SDiv(a, zero).Size())
	assert.Equal(t, 0, URem(a, zero).Size())

	rem := URem(Top(8), one)
	require.True(t, rem.IsConcrete())
	assert.Equal(t, uint64(0), rem.AsConcreteUint64(), "x % 1 == 0")

	prod := Mul(Top(8), zero)
	require.True(t, prod.IsConcrete())
	assert.Equal(t, uint64(0), prod.AsConcreteUint64(), "x * 0 == 0")
}

func TestLogicalNot(t *testing.T) {
	require.True(t, LogicalNot(ConcreteUint64(8, 0)).IsConcrete())
	assert.Equal(t, uint64(1), LogicalNot(ConcreteUint64(8, 0)).AsConcreteUint64())
	assert.Equal(t, uint64(0), LogicalNot(ConcreteUint64(8, 7)).AsConcreteUint64())

	// A value that may or may not be zero negates to either of 0, 1.
	unknown := LogicalNot(Top(8))
	assert.False(t, unknown.IsConcrete())
	assert.True(t, unknown.IsNondeterministic())
}

func TestExtensions(t *testing.T) {
	v := ConcreteUint64(8, 0x80)

	ze := v.ZeroExtend(16)
	require.True(t, ze.IsConcrete())
	assert.Equal(t, uint64(0x0080), ze.AsConcreteUint64())

	se := ConcreteUint64(8, 0x80).SignExtend(16)
	require.True(t, se.IsConcrete())
	assert.Equal(t, uint64(0xff80), se.AsConcreteUint64())

	assert.Equal(t, int64(-128), ConcreteUint64(8, 0x80).AsConcreteInt64())
}

func TestNondeterminism(t *testing.T) {
	assert.False(t, ConcreteUint64(8, 3).IsNondeterministic())
	assert.True(t, Top(8).IsNondeterministic())
	assert.False(t, Bottom(8).IsNondeterministic())
	assert.False(t, Bottom(8).IsConcrete())
	assert.True(t, ConcreteUint64(8, 3).IsConcrete())
	assert.False(t, Top(8).IsConcrete())
}
