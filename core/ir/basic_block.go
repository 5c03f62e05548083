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

// BasicBlock is an ordered list of statements ending in a terminator.
type BasicBlock struct {
	statements []Statement
	address    *uint64
}

// NewBasicBlock creates an empty basic block without an address.
func NewBasicBlock() *BasicBlock { return &BasicBlock{} }

// NewBasicBlockAt creates an empty basic block covering code at the
// given address.
func NewBasicBlockAt(address uint64) *BasicBlock {
	return &BasicBlock{address: &address}
}

// Address returns the block's start address, if it has one.
func (b *BasicBlock) Address() (uint64, bool) {
	if b.address == nil {
		return 0, false
	}
	return *b.address, true
}

// Statements returns the block's statements in order.
func (b *BasicBlock) Statements() []Statement { return b.statements }

// AddStatement appends a statement to the block.
func (b *BasicBlock) AddStatement(s Statement) {
	s.setBasicBlock(b)
	b.statements = append(b.statements, s)
}

// GetJump returns the block's terminating jump, or nil if the block
// does not end in one.
func (b *BasicBlock) GetJump() *Jump {
	if len(b.statements) == 0 {
		return nil
	}
	jump, _ := b.statements[len(b.statements)-1].(*Jump)
	return jump
}

func (b *BasicBlock) String() string {
	if b.address != nil {
		return fmt.Sprintf("bb@%#x", *b.address)
	}
	return fmt.Sprintf("bb@%p", b)
}

// Function is a reconstructed function: its basic blocks and the
// designated entry block.
type Function struct {
	name        string
	entry       *BasicBlock
	basicBlocks []*BasicBlock
}

func NewFunction(name string) *Function { return &Function{name: name} }

func (f *Function) Name() string { return f.name }

// Entry returns the function's entry basic block.
func (f *Function) Entry() *BasicBlock { return f.entry }

// SetEntry designates the entry basic block. The block must already be
// part of the function.
func (f *Function) SetEntry(bb *BasicBlock) { f.entry = bb }

// BasicBlocks returns the function's basic blocks in function order.
func (f *Function) BasicBlocks() []*BasicBlock { return f.basicBlocks }

// AddBasicBlock appends a basic block; the first block added becomes
// the entry.
func (f *Function) AddBasicBlock(bb *BasicBlock) {
	if f.entry == nil {
		f.entry = bb
	}
	f.basicBlocks = append(f.basicBlocks, bb)
}

// ForEachTerm calls fn for every term of the function, including the
// operands of compound terms.
func (f *Function) ForEachTerm(fn func(Term)) {
	for _, bb := range f.basicBlocks {
		for _, stmt := range bb.Statements() {
			stmt.Terms(func(t Term) {
				ForEachSubTerm(t, fn)
			})
		}
	}
}
