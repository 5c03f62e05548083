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

// CFG is the control-flow graph over a function's basic blocks,
// derived from their terminating jumps.
type CFG struct {
	blocks       []*BasicBlock
	predecessors map[*BasicBlock][]*BasicBlock
	successors   map[*BasicBlock][]*BasicBlock
}

// NewCFG builds the control-flow graph of the given blocks.
func NewCFG(blocks []*BasicBlock) *CFG {
	cfg := &CFG{
		blocks:       blocks,
		predecessors: make(map[*BasicBlock][]*BasicBlock, len(blocks)),
		successors:   make(map[*BasicBlock][]*BasicBlock, len(blocks)),
	}
	for _, bb := range blocks {
		jump := bb.GetJump()
		if jump == nil {
			continue
		}
		cfg.addTarget(bb, jump.ThenTarget())
		cfg.addTarget(bb, jump.ElseTarget())
	}
	return cfg
}

func (cfg *CFG) addTarget(from *BasicBlock, target JumpTarget) {
	if to := target.BasicBlock(); to != nil {
		cfg.addEdge(from, to)
	}
	for _, entry := range target.Table() {
		if entry.BasicBlock != nil {
			cfg.addEdge(from, entry.BasicBlock)
		}
	}
}

func (cfg *CFG) addEdge(from, to *BasicBlock) {
	for _, succ := range cfg.successors[from] {
		if succ == to {
			return
		}
	}
	cfg.successors[from] = append(cfg.successors[from], to)
	cfg.predecessors[to] = append(cfg.predecessors[to], from)
}

// BasicBlocks returns the graph's blocks in function order.
func (cfg *CFG) BasicBlocks() []*BasicBlock { return cfg.blocks }

// Predecessors returns the blocks with an edge into bb.
func (cfg *CFG) Predecessors(bb *BasicBlock) []*BasicBlock { return cfg.predecessors[bb] }

// Successors returns the blocks bb has an edge into.
func (cfg *CFG) Successors(bb *BasicBlock) []*BasicBlock { return cfg.successors[bb] }
