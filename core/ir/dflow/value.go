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

type triState int

const (
	triUnknown triState = iota
	triYes
	triNo
)

// Value is the information the analyzer computes about a term: its
// abstract value plus two orthogonal three-valued flags, whether the
// value is an offset from the entry stack pointer and whether it is a
// product.
type Value struct {
	abstract AbstractValue

	stackOffsetState triState
	stackOffset      int64 // signed byte offset from the entry stack pointer

	productState triState
}

// NewValue creates a value with everything unknown.
func NewValue() *Value { return &Value{} }

// AbstractValue returns the term's abstract value.
func (v *Value) AbstractValue() AbstractValue { return v.abstract }

// SetAbstractValue sets the term's abstract value.
func (v *Value) SetAbstractValue(a AbstractValue) { v.abstract = a }

// IsStackOffset reports whether the value is known to be a stack
// offset.
func (v *Value) IsStackOffset() bool { return v.stackOffsetState == triYes }

// IsNotStackOffset reports whether the value is known not to be a
// stack offset.
func (v *Value) IsNotStackOffset() bool { return v.stackOffsetState == triNo }

// StackOffset returns the signed byte offset from the entry stack
// pointer. Meaningful only when IsStackOffset reports true.
func (v *Value) StackOffset() int64 { return v.stackOffset }

// MakeStackOffset marks the value as the given stack offset.
func (v *Value) MakeStackOffset(offset int64) {
	v.stackOffsetState = triYes
	v.stackOffset = offset
}

// MakeNotStackOffset marks the value as not being a stack offset.
func (v *Value) MakeNotStackOffset() {
	v.stackOffsetState = triNo
	v.stackOffset = 0
}

// IsProduct reports whether the value is known to be a product.
func (v *Value) IsProduct() bool { return v.productState == triYes }

// IsNotProduct reports whether the value is known not to be a product.
func (v *Value) IsNotProduct() bool { return v.productState == triNo }

// MakeProduct marks the value as a product.
func (v *Value) MakeProduct() { v.productState = triYes }

// MakeNotProduct marks the value as not being a product.
func (v *Value) MakeNotProduct() { v.productState = triNo }

// copyFrom overwrites v with the contents of that.
func (v *Value) copyFrom(that *Value) { *v = *that }
