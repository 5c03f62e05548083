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

package arch

import "github.com/revc/revc/core/ir"

// amd64 lays the general purpose registers out at consecutive 64-bit
// slots of the register domain, with the 32-bit forms aliasing the low
// halves.
type amd64 struct {
	registers  []*Register
	byLocation map[ir.MemoryLocation]*Register
	ip         ir.MemoryLocation
}

// AMD64 returns the descriptor of the x86-64 architecture.
func AMD64() Architecture {
	a := &amd64{byLocation: make(map[ir.MemoryLocation]*Register)}

	names64 := []string{"rax", "rbx", "rcx", "rdx", "rsp", "rbp", "rsi", "rdi",
		"r8", "r9", "r10", "r11", "r12", "r13", "r14", "r15", "rip"}
	names32 := []string{"eax", "ebx", "ecx", "edx", "esp", "ebp", "esi", "edi",
		"r8d", "r9d", "r10d", "r11d", "r12d", "r13d", "r14d", "r15d", ""}

	for i, name := range names64 {
		loc := ir.MemoryLocation{Domain: ir.DomainRegister, Addr: int64(i) * 64, Size: 64}
		a.add(&Register{Name: name, Location: loc})
		if name == "rip" {
			a.ip = loc
		}
		if names32[i] != "" {
			a.add(&Register{Name: names32[i], Location: ir.MemoryLocation{
				Domain: ir.DomainRegister, Addr: loc.Addr, Size: 32,
			}})
		}
	}
	return a
}

func (a *amd64) add(r *Register) {
	a.registers = append(a.registers, r)
	a.byLocation[r.Location] = r
}

func (a *amd64) ByteOrder() ByteOrder { return LittleEndian }

func (a *amd64) InstructionPointer() (ir.MemoryLocation, bool) { return a.ip, true }

func (a *amd64) RegisterByLocation(loc ir.MemoryLocation) (*Register, bool) {
	r, ok := a.byLocation[loc]
	return r, ok
}

func (a *amd64) PointerSize() int { return 64 }

func (a *amd64) IntSize() int { return 32 }

func (a *amd64) IsGlobalMemory(loc ir.MemoryLocation) bool {
	return loc.Domain == ir.DomainMemory
}

// StackPointer returns the location of the amd64 stack pointer. Handy
// for calling-convention models and tests.
func StackPointer() ir.MemoryLocation {
	return ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 4 * 64, Size: 64}
}
