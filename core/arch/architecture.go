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

// Package arch describes the target architecture to the analyses:
// byte order, the register file layout and the pointer and integer
// sizes. Instruction decoding and lifting live outside this library.
package arch

import "github.com/revc/revc/core/ir"

// ByteOrder is the order in which an architecture lays out the bytes
// of a multi-byte value.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

func (o ByteOrder) String() string {
	if o == BigEndian {
		return "big-endian"
	}
	return "little-endian"
}

// Register is a named register occupying a fixed memory location in
// the register domain.
type Register struct {
	Name     string
	Location ir.MemoryLocation
}

// Architecture describes a target to the dataflow analyzer and the
// code synthesizer.
type Architecture interface {
	// ByteOrder returns the architecture's byte order.
	ByteOrder() ByteOrder

	// InstructionPointer returns the location of the instruction
	// pointer register, if the architecture exposes one.
	InstructionPointer() (ir.MemoryLocation, bool)

	// RegisterByLocation returns the register occupying exactly the
	// given location.
	RegisterByLocation(loc ir.MemoryLocation) (*Register, bool)

	// PointerSize returns the size of a pointer in bits.
	PointerSize() int

	// IntSize returns the size of the natural integer in bits.
	IntSize() int

	// IsGlobalMemory reports whether the location belongs to the
	// program's global memory rather than to a register or the stack.
	IsGlobalMemory(loc ir.MemoryLocation) bool
}
