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

// Instruction is the disassembled machine instruction a statement was
// lifted from. Lifting itself happens outside this library; the core
// only needs the address and the textual form.
type Instruction struct {
	Addr uint64
	Text string
}

func (i *Instruction) String() string {
	if i == nil {
		return ""
	}
	return i.Text
}

// Statement is one step of a basic block. Concrete statements are
// *InlineAssembly, *Comment, *Assignment, *Kill, *Jump, *Call,
// *Return, *Touch and *Callback.
type Statement interface {
	// BasicBlock returns the basic block containing the statement, or
	// nil for detached statements.
	BasicBlock() *BasicBlock

	// Instruction returns the instruction the statement was lifted
	// from, or nil.
	Instruction() *Instruction

	setBasicBlock(*BasicBlock)

	// Terms calls fn for every top-level term of the statement.
	Terms(fn func(Term))
}

type stmtBase struct {
	bb    *BasicBlock
	instr *Instruction
}

func (s *stmtBase) BasicBlock() *BasicBlock      { return s.bb }
func (s *stmtBase) Instruction() *Instruction    { return s.instr }
func (s *stmtBase) setBasicBlock(bb *BasicBlock) { s.bb = bb }
func (s *stmtBase) Terms(func(Term))             {}

// SetInstruction records the originating instruction.
func (s *stmtBase) SetInstruction(instr *Instruction) { s.instr = instr }

// InlineAssembly marks an instruction that could not be lifted.
type InlineAssembly struct {
	stmtBase
}

func NewInlineAssembly() *InlineAssembly { return &InlineAssembly{} }

// Comment carries free text through to the output.
type Comment struct {
	stmtBase
	text string
}

func NewComment(text string) *Comment { return &Comment{text: text} }

func (c *Comment) Text() string { return c.text }

// Assignment copies the value of the right term into the left term.
type Assignment struct {
	stmtBase
	left, right Term
}

func NewAssignment(left, right Term) *Assignment {
	s := &Assignment{left: left, right: right}
	left.SetStatement(s)
	right.SetStatement(s)
	return s
}

func (a *Assignment) Left() Term  { return a.left }
func (a *Assignment) Right() Term { return a.right }

func (a *Assignment) Terms(fn func(Term)) {
	fn(a.left)
	fn(a.right)
}

// Kill makes the value of a term undefined.
type Kill struct {
	stmtBase
	term Term
}

func NewKill(term Term) *Kill {
	s := &Kill{term: term}
	term.SetStatement(s)
	return s
}

func (k *Kill) Term() Term { return k.term }

func (k *Kill) Terms(fn func(Term)) { fn(k.term) }

// JumpTableEntry maps a jump-table slot to the address it transfers to.
type JumpTableEntry struct {
	Address    uint64
	BasicBlock *BasicBlock
}

// JumpTable is the ordered list of a table jump's entries.
type JumpTable []JumpTableEntry

// JumpTarget names where a jump transfers control: a basic block, a
// computed address, or a jump table.
type JumpTarget struct {
	bb      *BasicBlock
	address Term
	table   JumpTable
}

func BasicBlockTarget(bb *BasicBlock) JumpTarget { return JumpTarget{bb: bb} }

func AddressTarget(address Term) JumpTarget { return JumpTarget{address: address} }

func TableTarget(address Term, table JumpTable) JumpTarget {
	return JumpTarget{address: address, table: table}
}

func (t JumpTarget) BasicBlock() *BasicBlock { return t.bb }
func (t JumpTarget) Address() Term           { return t.address }
func (t JumpTarget) Table() JumpTable        { return t.table }
func (t JumpTarget) IsValid() bool           { return t.bb != nil || t.address != nil }

// Jump transfers control to the then target if the condition is absent
// or nonzero, and to the else target otherwise.
type Jump struct {
	stmtBase
	condition  Term
	thenTarget JumpTarget
	elseTarget JumpTarget
}

// NewJump creates an unconditional jump.
func NewJump(target JumpTarget) *Jump {
	s := &Jump{thenTarget: target}
	s.attachTargets()
	return s
}

// NewConditionalJump creates a two-way jump.
func NewConditionalJump(condition Term, thenTarget, elseTarget JumpTarget) *Jump {
	s := &Jump{condition: condition, thenTarget: thenTarget, elseTarget: elseTarget}
	condition.SetStatement(s)
	s.attachTargets()
	return s
}

func (j *Jump) attachTargets() {
	if j.thenTarget.address != nil {
		j.thenTarget.address.SetStatement(j)
	}
	if j.elseTarget.address != nil {
		j.elseTarget.address.SetStatement(j)
	}
}

func (j *Jump) Condition() Term        { return j.condition }
func (j *Jump) ThenTarget() JumpTarget { return j.thenTarget }
func (j *Jump) ElseTarget() JumpTarget { return j.elseTarget }
func (j *Jump) IsConditional() bool    { return j.condition != nil }
func (j *Jump) IsUnconditional() bool  { return j.condition == nil }

func (j *Jump) Terms(fn func(Term)) {
	if j.condition != nil {
		fn(j.condition)
	}
	if j.thenTarget.address != nil {
		fn(j.thenTarget.address)
	}
	if j.elseTarget.address != nil {
		fn(j.elseTarget.address)
	}
}

// Call transfers control to the callee at the target address.
type Call struct {
	stmtBase
	target Term
}

func NewCall(target Term) *Call {
	s := &Call{target: target}
	target.SetStatement(s)
	return s
}

func (c *Call) Target() Term { return c.target }

func (c *Call) Terms(fn func(Term)) { fn(c.target) }

// Return transfers control back to the caller.
type Return struct {
	stmtBase
}

func NewReturn() *Return { return &Return{} }

// Touch keeps a term alive for the analyses without generating code.
type Touch struct {
	stmtBase
	term Term
}

func NewTouch(term Term) *Touch {
	s := &Touch{term: term}
	term.SetStatement(s)
	return s
}

func (t *Touch) Term() Term { return t.term }

func (t *Touch) Terms(fn func(Term)) { fn(t.term) }

// Callback runs a host function when synthesis passes over the
// statement. It has no dataflow effect and produces no code.
type Callback struct {
	stmtBase
	fn func()
}

func NewCallback(fn func()) *Callback { return &Callback{fn: fn} }

func (c *Callback) Run() {
	if c.fn != nil {
		c.fn()
	}
}
