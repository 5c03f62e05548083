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

// Package types defines the type-reconstruction oracle the
// synthesizer consumes.
package types

import "github.com/revc/revc/core/ir"

// Type is a reconstructed type: an integer of a known size and
// signedness, optionally a pointer to another type.
type Type struct {
	size     int
	unsigned bool
	pointee  *Type
}

// NewInteger returns an integer type of the given size in bits.
func NewInteger(size int, unsigned bool) *Type {
	return &Type{size: size, unsigned: unsigned}
}

// NewPointer returns a pointer type of the given size in bits.
func NewPointer(size int, pointee *Type) *Type {
	return &Type{size: size, unsigned: true, pointee: pointee}
}

// Size returns the type's size in bits.
func (t *Type) Size() int { return t.size }

func (t *Type) IsUnsigned() bool { return t.unsigned }

// Pointee returns the pointed-to type, or nil for plain integers.
func (t *Type) Pointee() *Type { return t.pointee }

// Types maps terms to their reconstructed types.
type Types interface {
	GetType(t ir.Term) *Type
}

// Unsigned types every term as an unsigned integer of the term's
// size. It is the fallback when no type reconstruction ran.
type Unsigned struct{}

func (Unsigned) GetType(t ir.Term) *Type { return NewInteger(t.Size(), true) }

// Map is a Types oracle backed by an explicit map, falling back to
// unsigned integers of the term's size.
type Map map[ir.Term]*Type

func (m Map) GetType(t ir.Term) *Type {
	if typ := m[t]; typ != nil {
		return typ
	}
	return NewInteger(t.Size(), true)
}
