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

package cgen

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/revc/revc/core/ir"
	"github.com/revc/revc/core/likec"
)

// SwitchContext is the per-switch state carried during synthesis: the
// integer type of the switch value, the mapping from target addresses
// to the case values jumping there, and the default basic block.
type SwitchContext struct {
	valueType  likec.IntegerType
	caseValues map[uint64][]uint64
	defaultBB  *ir.BasicBlock
}

func NewSwitchContext() *SwitchContext {
	return &SwitchContext{caseValues: make(map[uint64][]uint64)}
}

func (c *SwitchContext) ValueType() likec.IntegerType { return c.valueType }

func (c *SwitchContext) SetValueType(t likec.IntegerType) { c.valueType = t }

// AddCaseValue records that case value jumps to the given address.
func (c *SwitchContext) AddCaseValue(addr uint64, value uint64) {
	c.caseValues[addr] = append(c.caseValues[addr], value)
}

// CaseValues returns the case values jumping to the given address.
func (c *SwitchContext) CaseValues(addr uint64) []uint64 { return c.caseValues[addr] }

// EraseCaseValues consumes the case values of the given address.
func (c *SwitchContext) EraseCaseValues(addr uint64) { delete(c.caseValues, addr) }

func (c *SwitchContext) DefaultBasicBlock() *ir.BasicBlock { return c.defaultBB }

func (c *SwitchContext) SetDefaultBasicBlock(bb *ir.BasicBlock) { c.defaultBB = bb }

// AddressCases are the case values jumping to one address.
type AddressCases struct {
	Addr   uint64
	Values []uint64
}

// RemainingCaseValues returns the not yet consumed address-to-values
// entries, ordered by address.
func (c *SwitchContext) RemainingCaseValues() []AddressCases {
	addrs := maps.Keys(c.caseValues)
	slices.Sort(addrs)
	result := make([]AddressCases, 0, len(addrs))
	for _, addr := range addrs {
		result = append(result, AddressCases{Addr: addr, Values: c.caseValues[addr]})
	}
	return result
}
