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

import "context"

// Dominators is the dominator tree of a function's CFG, computed with
// the iterative algorithm of Cooper, Harvey and Kennedy over a reverse
// postorder numbering.
type Dominators struct {
	idom  map[*BasicBlock]*BasicBlock
	order map[*BasicBlock]int
}

// NewDominators computes the dominator tree of the given CFG rooted at
// entry. The context is consulted between iterations; a canceled
// context aborts the computation.
func NewDominators(ctx context.Context, cfg *CFG, entry *BasicBlock) (*Dominators, error) {
	d := &Dominators{
		idom:  make(map[*BasicBlock]*BasicBlock),
		order: make(map[*BasicBlock]int),
	}

	rpo := reversePostorder(cfg, entry)
	for i, bb := range rpo {
		d.order[bb] = i
	}

	d.idom[entry] = entry
	for changed := true; changed; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		changed = false
		for _, bb := range rpo {
			if bb == entry {
				continue
			}
			var newIdom *BasicBlock
			for _, pred := range cfg.Predecessors(bb) {
				if d.idom[pred] == nil {
					continue
				}
				if newIdom == nil {
					newIdom = pred
				} else {
					newIdom = d.intersect(pred, newIdom)
				}
			}
			if newIdom != nil && d.idom[bb] != newIdom {
				d.idom[bb] = newIdom
				changed = true
			}
		}
	}
	return d, nil
}

func (d *Dominators) intersect(a, b *BasicBlock) *BasicBlock {
	for a != b {
		for d.order[a] > d.order[b] {
			a = d.idom[a]
		}
		for d.order[b] > d.order[a] {
			b = d.idom[b]
		}
	}
	return a
}

// IsDominating reports whether a dominates b. Every reachable block
// dominates itself.
func (d *Dominators) IsDominating(a, b *BasicBlock) bool {
	if d.idom[b] == nil {
		return false
	}
	for {
		if a == b {
			return true
		}
		next := d.idom[b]
		if next == b || next == nil {
			return false
		}
		b = next
	}
}

func reversePostorder(cfg *CFG, entry *BasicBlock) []*BasicBlock {
	var (
		order   []*BasicBlock
		visited = make(map[*BasicBlock]bool)
		visit   func(bb *BasicBlock)
	)
	visit = func(bb *BasicBlock) {
		visited[bb] = true
		for _, succ := range cfg.Successors(bb) {
			if !visited[succ] {
				visit(succ)
			}
		}
		order = append(order, bb)
	}
	if entry != nil {
		visit(entry)
	}
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}
