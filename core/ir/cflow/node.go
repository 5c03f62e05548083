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

// Package cflow models the control-flow structuring tree the code
// synthesizer consumes. Building the tree from the CFG is the
// structurer's job; this package only defines the shapes.
package cflow

import "github.com/revc/revc/core/ir"

// Node is a node of the region tree: either a *BasicNode leaf or a
// *Region (possibly a *Switch).
type Node interface {
	// EntryBasicBlock returns the basic block control enters the node
	// through.
	EntryBasicBlock() *ir.BasicBlock

	// IsCondition reports whether the node can be turned into a
	// boolean expression.
	IsCondition() bool

	// BasicBlocks calls fn for every basic block inside the node.
	BasicBlocks(fn func(*ir.BasicBlock))
}

// BasicNode is a leaf wrapping a single basic block.
type BasicNode struct {
	bb *ir.BasicBlock
}

func NewBasicNode(bb *ir.BasicBlock) *BasicNode { return &BasicNode{bb: bb} }

func (n *BasicNode) BasicBlock() *ir.BasicBlock      { return n.bb }
func (n *BasicNode) EntryBasicBlock() *ir.BasicBlock { return n.bb }

// IsCondition reports whether the block ends in a two-way jump whose
// targets are both known basic blocks.
func (n *BasicNode) IsCondition() bool {
	jump := n.bb.GetJump()
	return jump != nil && jump.IsConditional() &&
		jump.ThenTarget().BasicBlock() != nil && jump.ElseTarget().BasicBlock() != nil
}

func (n *BasicNode) BasicBlocks(fn func(*ir.BasicBlock)) { fn(n.bb) }

// RegionKind says which control construct a region stands for.
type RegionKind int

const (
	Unknown RegionKind = iota
	Block
	CompoundCondition
	IfThen
	IfThenElse
	Loop
	While
	DoWhile
	SwitchRegion
)

func (k RegionKind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case Block:
		return "block"
	case CompoundCondition:
		return "compound-condition"
	case IfThen:
		return "if-then"
	case IfThenElse:
		return "if-then-else"
	case Loop:
		return "loop"
	case While:
		return "while"
	case DoWhile:
		return "do-while"
	case SwitchRegion:
		return "switch"
	default:
		return "region?"
	}
}

// Region is an internal node grouping child nodes under one control
// construct. Child order is significant.
type Region struct {
	kind          RegionKind
	nodes         []Node
	entry         Node
	exitBB        *ir.BasicBlock
	loopCondition Node
}

func NewRegion(kind RegionKind) *Region { return &Region{kind: kind} }

func (r *Region) Kind() RegionKind { return r.kind }

// Nodes returns the region's children in order.
func (r *Region) Nodes() []Node { return r.nodes }

// AddNode appends a child; the first child becomes the entry unless
// one was set explicitly.
func (r *Region) AddNode(n Node) {
	if r.entry == nil {
		r.entry = n
	}
	r.nodes = append(r.nodes, n)
}

// Entry returns the child through which control enters the region; for
// While, DoWhile and the If kinds this is the condition head.
func (r *Region) Entry() Node { return r.entry }

func (r *Region) SetEntry(n Node) { r.entry = n }

// ExitBasicBlock returns the basic block control flows to when it
// leaves the region, or nil.
func (r *Region) ExitBasicBlock() *ir.BasicBlock { return r.exitBB }

func (r *Region) SetExitBasicBlock(bb *ir.BasicBlock) { r.exitBB = bb }

// LoopCondition returns the condition node of a DoWhile region.
func (r *Region) LoopCondition() Node { return r.loopCondition }

func (r *Region) SetLoopCondition(n Node) { r.loopCondition = n }

func (r *Region) EntryBasicBlock() *ir.BasicBlock {
	if r.entry != nil {
		return r.entry.EntryBasicBlock()
	}
	if len(r.nodes) > 0 {
		return r.nodes[0].EntryBasicBlock()
	}
	return nil
}

func (r *Region) IsCondition() bool {
	if r.kind != CompoundCondition || len(r.nodes) != 2 {
		return false
	}
	return r.nodes[0].IsCondition() && r.nodes[1].IsCondition()
}

func (r *Region) BasicBlocks(fn func(*ir.BasicBlock)) {
	for _, n := range r.nodes {
		n.BasicBlocks(fn)
	}
}

// Switch is a region synthesized into a C switch. It remembers the
// node with the table jump, the optional bounds check preceding it,
// the jump table size actually used and the default target.
type Switch struct {
	Region
	switchTerm      ir.Term
	switchNode      *BasicNode
	boundsCheckNode *BasicNode
	jumpTableSize   int
	defaultBB       *ir.BasicBlock
}

func NewSwitch(switchTerm ir.Term, switchNode *BasicNode, jumpTableSize int) *Switch {
	return &Switch{
		Region:        Region{kind: SwitchRegion},
		switchTerm:    switchTerm,
		switchNode:    switchNode,
		jumpTableSize: jumpTableSize,
	}
}

// SwitchTerm returns the term whose value selects the case.
func (s *Switch) SwitchTerm() ir.Term { return s.switchTerm }

// SwitchNode returns the node holding the table jump.
func (s *Switch) SwitchNode() *BasicNode { return s.switchNode }

// BoundsCheckNode returns the node with the jump-table bounds check,
// or nil.
func (s *Switch) BoundsCheckNode() *BasicNode { return s.boundsCheckNode }

func (s *Switch) SetBoundsCheckNode(n *BasicNode) { s.boundsCheckNode = n }

// JumpTableSize returns the number of leading jump-table entries
// belonging to the switch.
func (s *Switch) JumpTableSize() int { return s.jumpTableSize }

// DefaultBasicBlock returns the default target, or nil.
func (s *Switch) DefaultBasicBlock() *ir.BasicBlock { return s.defaultBB }

func (s *Switch) SetDefaultBasicBlock(bb *ir.BasicBlock) { s.defaultBB = bb }
