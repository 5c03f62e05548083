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
	"github.com/revc/revc/core/ir"
	"github.com/revc/revc/core/ir/vars"
)

// The substitution policy decides which assignments can be folded into
// their use sites during expression synthesis.

// isDominating reports whether the write is executed before the read
// on every path reaching the read. Inside one basic block the decision
// falls back from instruction addresses to statement order; across
// blocks it uses the dominator tree.
func (g *DefinitionGenerator) isDominating(write, read ir.Term) bool {
	if read.Statement() == nil || read.Statement().BasicBlock() == nil {
		return false
	}
	if write.Statement() == nil || write.Statement().BasicBlock() == nil {
		return false
	}

	writeStmt, readStmt := write.Statement(), read.Statement()

	if writeStmt.BasicBlock() == readStmt.BasicBlock() {
		if writeStmt.Instruction() != nil && readStmt.Instruction() != nil &&
			writeStmt.Instruction() != readStmt.Instruction() {
			return writeStmt.Instruction().Addr < readStmt.Instruction().Addr
		}
		seenWrite := false
		for _, s := range readStmt.BasicBlock().Statements() {
			if s == writeStmt {
				seenWrite = true
			}
			if s == readStmt {
				return seenWrite
			}
		}
		return false
	}

	return g.dominators.IsDominating(writeStmt.BasicBlock(), readStmt.BasicBlock())
}

// getSingleDefinition returns the variable's only write term, or nil
// when there are zero or several.
func (g *DefinitionGenerator) getSingleDefinition(variable *vars.Variable) ir.Term {
	var result ir.Term
	for _, tl := range variable.TermsAndLocations() {
		if tl.Term.IsWrite() {
			if result != nil {
				return nil
			}
			result = tl.Term
		}
	}
	return result
}

// getSingleUse returns the variable's only live read term, or nil when
// there are zero or several.
func (g *DefinitionGenerator) getSingleUse(variable *vars.Variable) ir.Term {
	var result ir.Term
	for _, tl := range variable.TermsAndLocations() {
		if tl.Term.IsRead() && g.liveness.IsLive(tl.Term) {
			if result != nil {
				return nil
			}
			result = tl.Term
		}
	}
	return result
}

// isSingleAssignment reports whether the variable is local, written
// exactly once, every write and every live read touches its full
// location and the definition dominates every live read.
func (g *DefinitionGenerator) isSingleAssignment(variable *vars.Variable) bool {
	if cached, ok := g.singleAssignment[variable]; ok {
		return cached
	}
	result := g.computeSingleAssignment(variable)
	g.singleAssignment[variable] = result
	return result
}

func (g *DefinitionGenerator) computeSingleAssignment(variable *vars.Variable) bool {
	if variable.IsGlobal() {
		return false
	}
	definition := g.getSingleDefinition(variable)
	if definition == nil {
		return false
	}
	for _, tl := range variable.TermsAndLocations() {
		if tl.Term.IsRead() && g.liveness.IsLive(tl.Term) {
			if !g.isDominating(definition, tl.Term) {
				return false
			}
			if tl.Location != variable.MemoryLocation() {
				return false
			}
		} else if tl.Term.IsWrite() {
			if tl.Location != variable.MemoryLocation() {
				return false
			}
		}
	}
	return true
}

// isMovable reports whether evaluating the term can be postponed to
// its use site without changing its value.
func (g *DefinitionGenerator) isMovable(t ir.Term) bool {
	if variable := g.parent.variables.GetVariable(t); variable != nil {
		return g.isSingleAssignment(variable)
	}
	switch t := t.(type) {
	case *ir.Constant:
		return true
	case *ir.Intrinsic, *ir.Undefined, *ir.MemoryLocationAccess, *ir.Dereference:
		return false
	case *ir.UnaryOperator:
		return g.isMovable(t.Operand())
	case *ir.BinaryOperator:
		return g.isMovable(t.Left()) && g.isMovable(t.Right())
	case *ir.Choice:
		if !g.dataflow.GetDefinitions(t.PreferredTerm()).IsEmpty() {
			return g.isMovable(t.PreferredTerm())
		}
		return g.isMovable(t.DefaultTerm())
	default:
		return false
	}
}

// isIntermediate reports whether the variable should disappear from
// the output, its defining expression substituted at the use sites.
// The heuristic is gated behind Options.InlineIntermediates because it
// is known to miscompile at least one binary.
func (g *DefinitionGenerator) isIntermediate(variable *vars.Variable) bool {
	if !g.parent.options.InlineIntermediates {
		return false
	}
	if cached, ok := g.intermediate[variable]; ok {
		return cached
	}
	result := g.computeIntermediate(variable)
	g.intermediate[variable] = result
	return result
}

func (g *DefinitionGenerator) computeIntermediate(variable *vars.Variable) bool {
	if variable.IsGlobal() {
		return false
	}
	if !g.isSingleAssignment(variable) {
		return false
	}
	definition := g.getSingleDefinition(variable)
	source := ir.Source(definition)
	if source == nil {
		return false
	}

	// Substituting a complex expression more than once would duplicate
	// its evaluation.
	if g.getSingleUse(variable) != nil {
		return g.isMovable(source)
	}
	if sourceVariable := g.parent.variables.GetVariable(source); sourceVariable != nil {
		return g.isSingleAssignment(sourceVariable)
	}
	return false
}
