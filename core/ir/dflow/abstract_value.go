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
	"fmt"

	"github.com/holiman/uint256"
)

// MaxBitSize is the widest abstract value the lattice can represent.
// It accommodates the vector registers of the supported architectures.
const MaxBitSize = 256

// AbstractValue is an integer value of a variable size with bits taking
// values from the power set of {0, 1}. A bit position can be zero iff
// the corresponding zeroBits bit is set, and one iff the corresponding
// oneBits bit is set. The zero AbstractValue has size zero and means
// "no value".
type AbstractValue struct {
	size     int
	zeroBits uint256.Int
	oneBits  uint256.Int
}

// New creates an abstract value of the given size. The bit masks are
// truncated to the size.
func New(size int, zeroBits, oneBits *uint256.Int) AbstractValue {
	mask := bitMask(size)
	var v AbstractValue
	v.size = clampSize(size)
	v.zeroBits.And(zeroBits, &mask)
	v.oneBits.And(oneBits, &mask)
	return v
}

// Concrete creates the abstract value representing exactly value,
// truncated to size bits.
func Concrete(size int, value *uint256.Int) AbstractValue {
	mask := bitMask(size)
	var v AbstractValue
	v.size = clampSize(size)
	v.oneBits.And(value, &mask)
	v.zeroBits.Xor(&v.oneBits, &mask)
	return v
}

// ConcreteUint64 creates the abstract value representing exactly value.
func ConcreteUint64(size int, value uint64) AbstractValue {
	return Concrete(size, uint256.NewInt(value))
}

// Top returns the value about which nothing is known: every bit can be
// both zero and one.
func Top(size int) AbstractValue {
	var all uint256.Int
	all.SetAllOne()
	return New(size, &all, &all)
}

// Bottom returns the value that cannot take any bit pattern. It is the
// unit of Merge.
func Bottom(size int) AbstractValue {
	return AbstractValue{size: clampSize(size)}
}

// Size returns the size of the abstract value in bits.
func (v AbstractValue) Size() int { return v.size }

// ZeroBits returns the mask of bit positions that can be zero.
func (v AbstractValue) ZeroBits() uint256.Int { return v.zeroBits }

// OneBits returns the mask of bit positions that can be one.
func (v AbstractValue) OneBits() uint256.Int { return v.oneBits }

// IsConcrete reports whether all (at least one) bits of the value are
// known to be either one or zero.
func (v AbstractValue) IsConcrete() bool {
	mask := bitMask(v.size)
	var x uint256.Int
	return v.size > 0 && x.Xor(&v.zeroBits, &v.oneBits).Eq(&mask)
}

// IsNondeterministic reports whether the value has a bit that can be
// both zero and one.
func (v AbstractValue) IsNondeterministic() bool {
	var x uint256.Int
	return !x.And(&v.zeroBits, &v.oneBits).IsZero()
}

// AsConcrete returns the concrete value of this abstract value. The
// result is meaningful only when IsConcrete reports true.
func (v AbstractValue) AsConcrete() uint256.Int { return v.oneBits }

// AsConcreteUint64 returns the low 64 bits of the concrete value.
func (v AbstractValue) AsConcreteUint64() uint64 { return v.oneBits.Uint64() }

// AsConcreteInt64 returns the concrete value interpreted as a signed
// integer of the value's size.
func (v AbstractValue) AsConcreteInt64() int64 {
	se := signExtend256(&v.oneBits, v.size)
	return int64(se.Uint64())
}

// IsConcreteZero reports whether the value is concrete zero.
func (v AbstractValue) IsConcreteZero() bool {
	return v.IsConcrete() && v.oneBits.IsZero()
}

// Resize returns the value resized to the given size. Shrinking
// truncates both masks; growing leaves the new top bits without any
// possibility.
func (v AbstractValue) Resize(size int) AbstractValue {
	if size < v.size {
		mask := bitMask(size)
		v.zeroBits.And(&v.zeroBits, &mask)
		v.oneBits.And(&v.oneBits, &mask)
	}
	v.size = clampSize(size)
	return v
}

// Shift shifts the value by nbits: to the left if nbits is positive,
// to the right otherwise. The size grows or shrinks by the same amount
// of bits, to a minimum of zero.
func (v AbstractValue) Shift(nbits int) AbstractValue {
	v.size = clampSize(v.size + nbits)
	if nbits >= 0 {
		n := uint(min(nbits, MaxBitSize))
		v.zeroBits.Lsh(&v.zeroBits, n)
		v.oneBits.Lsh(&v.oneBits, n)
	} else {
		n := uint(min(-nbits, MaxBitSize))
		v.zeroBits.Rsh(&v.zeroBits, n)
		v.oneBits.Rsh(&v.oneBits, n)
	}
	return v
}

// Merge returns the componentwise join of v and that: the union of bit
// possibilities and the maximum of the sizes.
func (v AbstractValue) Merge(that AbstractValue) AbstractValue {
	if that.size > v.size {
		v.size = that.size
	}
	v.zeroBits.Or(&v.zeroBits, &that.zeroBits)
	v.oneBits.Or(&v.oneBits, &that.oneBits)
	return v
}

// Project ands each component of the abstract value with the mask.
func (v AbstractValue) Project(mask *uint256.Int) AbstractValue {
	v.zeroBits.And(&v.zeroBits, mask)
	v.oneBits.And(&v.oneBits, mask)
	return v
}

// ZeroExtend extends the value to the given size; the new top bits are
// known zeros.
func (v AbstractValue) ZeroExtend(size int) AbstractValue {
	if size <= v.size {
		return v
	}
	ext := extensionMask(v.size, size)
	v.zeroBits.Or(&v.zeroBits, &ext)
	v.size = clampSize(size)
	return v
}

// SignExtend extends the value to the given size; the new top bits take
// the possibilities of the sign bit.
func (v AbstractValue) SignExtend(size int) AbstractValue {
	if size <= v.size {
		return v
	}
	signMask := bitAt(v.size - 1)
	ext := extensionMask(v.size, size)
	var x uint256.Int
	if !x.And(&v.zeroBits, &signMask).IsZero() {
		v.zeroBits.Or(&v.zeroBits, &ext)
	}
	if !x.And(&v.oneBits, &signMask).IsZero() {
		v.oneBits.Or(&v.oneBits, &ext)
	}
	v.size = clampSize(size)
	return v
}

func (v AbstractValue) String() string {
	return fmt.Sprintf("abstract{size: %d, zero: %s, one: %s}", v.size, v.zeroBits.Hex(), v.oneBits.Hex())
}

func clampSize(size int) int {
	if size < 0 {
		return 0
	}
	if size > MaxBitSize {
		return MaxBitSize
	}
	return size
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// bitMask returns a mask with the low size bits set.
func bitMask(size int) uint256.Int {
	var m uint256.Int
	if size <= 0 {
		return m
	}
	if size >= MaxBitSize {
		m.SetAllOne()
		return m
	}
	m.SetUint64(1)
	m.Lsh(&m, uint(size))
	m.SubUint64(&m, 1)
	return m
}

// bitAt returns a mask with only the given bit position set.
func bitAt(pos int) uint256.Int {
	var m uint256.Int
	if pos < 0 || pos >= MaxBitSize {
		return m
	}
	m.SetUint64(1)
	m.Lsh(&m, uint(pos))
	return m
}

// extensionMask returns the mask of the bits added when growing from
// oldSize to newSize.
func extensionMask(oldSize, newSize int) uint256.Int {
	low := bitMask(oldSize)
	high := bitMask(newSize)
	var m uint256.Int
	m.Xor(&high, &low)
	return m
}

// signExtend256 interprets v as a size-bit two's complement integer and
// sign-extends it to the full 256 bits.
func signExtend256(v *uint256.Int, size int) uint256.Int {
	var r uint256.Int
	r.Set(v)
	if size <= 0 || size >= MaxBitSize {
		return r
	}
	signMask := bitAt(size - 1)
	var x uint256.Int
	if !x.And(&r, &signMask).IsZero() {
		ext := extensionMask(size, MaxBitSize)
		r.Or(&r, &ext)
	}
	return r
}
