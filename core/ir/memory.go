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

package ir

import "fmt"

// MemoryDomain identifies an address space a memory location belongs to.
type MemoryDomain int

const (
	// DomainMemory is the global memory of the program image.
	DomainMemory MemoryDomain = iota

	// DomainStack is addressed relative to the stack pointer value at
	// function entry.
	DomainStack

	// DomainRegister holds the architecture's registers, laid out at
	// architecture-chosen bit offsets.
	DomainRegister

	// DomainFirstArch is the first domain value available to
	// architecture-specific address spaces (segment bases, flags and
	// the like).
	DomainFirstArch
)

func (d MemoryDomain) String() string {
	switch d {
	case DomainMemory:
		return "mem"
	case DomainStack:
		return "stack"
	case DomainRegister:
		return "reg"
	default:
		return fmt.Sprintf("domain%d", int(d))
	}
}

// MemoryLocation identifies a contiguous run of bits in some domain.
// Addr and Size are both measured in bits. The zero MemoryLocation is
// invalid and doubles as "no location".
type MemoryLocation struct {
	Domain MemoryDomain
	Addr   int64
	Size   int
}

// IsValid reports whether the location denotes an actual place.
func (l MemoryLocation) IsValid() bool { return l.Size > 0 }

// EndAddr returns the bit address just past the end of the location.
func (l MemoryLocation) EndAddr() int64 { return l.Addr + int64(l.Size) }

// Covers reports whether l fully contains o.
func (l MemoryLocation) Covers(o MemoryLocation) bool {
	return l.Domain == o.Domain && l.Addr <= o.Addr && l.EndAddr() >= o.EndAddr()
}

// Overlaps reports whether l and o share at least one bit.
func (l MemoryLocation) Overlaps(o MemoryLocation) bool {
	return l.Domain == o.Domain && l.Addr < o.EndAddr() && o.Addr < l.EndAddr()
}

// Intersect returns the common part of l and o, or the invalid location
// if they do not overlap.
func (l MemoryLocation) Intersect(o MemoryLocation) MemoryLocation {
	if !l.Overlaps(o) {
		return MemoryLocation{}
	}
	addr := max64(l.Addr, o.Addr)
	end := min64(l.EndAddr(), o.EndAddr())
	return MemoryLocation{Domain: l.Domain, Addr: addr, Size: int(end - addr)}
}

func (l MemoryLocation) String() string {
	return fmt.Sprintf("%s:%d..%d", l.Domain, l.Addr, l.EndAddr())
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
