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

package cflow

import "github.com/revc/revc/core/ir"

// Preordering returns the region's children in depth-first preorder of
// the control flow between them, starting from the region's entry.
// Children unreachable from the entry follow at the tail: each one not
// yet visited, in original order, starts a further depth-first walk,
// so its unvisited successors come right after it. Emitting nodes in
// this order tends to minimize the number of gotos.
func Preordering(r *Region) []Node {
	entryOf := make(map[*ir.BasicBlock]Node, len(r.Nodes()))
	for _, n := range r.Nodes() {
		if bb := n.EntryBasicBlock(); bb != nil {
			entryOf[bb] = n
		}
	}

	var (
		order   []Node
		visited = make(map[Node]bool, len(r.Nodes()))
		visit   func(n Node)
	)
	visit = func(n Node) {
		visited[n] = true
		order = append(order, n)
		n.BasicBlocks(func(bb *ir.BasicBlock) {
			jump := bb.GetJump()
			if jump == nil {
				return
			}
			for _, target := range successorBlocks(jump) {
				if succ := entryOf[target]; succ != nil && !visited[succ] && succ != n {
					visit(succ)
				}
			}
		})
	}

	if r.Entry() != nil {
		visit(r.Entry())
	}
	for _, n := range r.Nodes() {
		if !visited[n] {
			visit(n)
		}
	}
	return order
}

func successorBlocks(jump *ir.Jump) []*ir.BasicBlock {
	var targets []*ir.BasicBlock
	for _, t := range []ir.JumpTarget{jump.ThenTarget(), jump.ElseTarget()} {
		if bb := t.BasicBlock(); bb != nil {
			targets = append(targets, bb)
		}
		for _, entry := range t.Table() {
			if entry.BasicBlock != nil {
				targets = append(targets, entry.BasicBlock)
			}
		}
	}
	return targets
}
