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

package dflow

import (
	"context"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revc/revc/core/arch"
	"github.com/revc/revc/core/ir"
)

type testCallsData struct {
	entry  FunctionAnalyzer
	called map[*ir.Call]uint64
}

func (c *testCallsData) GetFunctionAnalyzer(fn *ir.Function) FunctionAnalyzer { return c.entry }
func (c *testCallsData) GetCallAnalyzer(call *ir.Call) CallAnalyzer           { return nil }
func (c *testCallsData) GetReturnAnalyzer(fn *ir.Function, ret *ir.Return) ReturnAnalyzer {
	return nil
}
func (c *testCallsData) SetCalledAddress(call *ir.Call, addr uint64) {
	if c.called == nil {
		c.called = make(map[*ir.Call]uint64)
	}
	c.called[call] = addr
}

// stackEntry marks the stack pointer as offset zero at function entry
// and remembers the fixpoint flag it last observed.
type stackEntry struct {
	term     *ir.MemoryLocationAccess
	lastFlag bool
}

func newStackEntry() *stackEntry {
	return &stackEntry{term: ir.NewMemoryLocationAccess(arch.StackPointer(), ir.AccessWrite)}
}

func (h *stackEntry) SimulateEnter(ctx *SimulationContext) {
	a := ctx.Analyzer()
	a.Simulate(h.term, ctx)
	value := a.Dataflow().GetValue(h.term)
	value.SetAbstractValue(Top(arch.StackPointer().Size))
	value.MakeStackOffset(0)
	h.lastFlag = ctx.FixpointReached()
}

func (h *stackEntry) ForEachTerm(fn func(ir.Term)) { fn(h.term) }

func singleBlockFunction(statements ...ir.Statement) *ir.Function {
	fn := ir.NewFunction("test")
	bb := ir.NewBasicBlockAt(0x1000)
	for _, s := range statements {
		bb.AddStatement(s)
	}
	fn.AddBasicBlock(bb)
	return fn
}

func analyze(t *testing.T, fn *ir.Function, callsData CallsData) *Dataflow {
	t.Helper()
	dataflow := NewDataflow()
	analyzer := NewAnalyzer(dataflow, arch.AMD64(), callsData)
	require.NoError(t, analyzer.Analyze(context.Background(), fn))
	return dataflow
}

func TestConstantPropagationThroughAssignment(t *testing.T) {
	locX := ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 0, Size: 8}
	locY := ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 64, Size: 8}

	xWrite := ir.NewMemoryLocationAccess(locX, ir.AccessWrite)
	xRead := ir.NewMemoryLocationAccess(locX, ir.AccessRead)
	sum := ir.NewBinaryOperator(ir.ADD, xRead, ir.NewConstantUint64(8, 3), 8)
	yWrite := ir.NewMemoryLocationAccess(locY, ir.AccessWrite)

	fn := singleBlockFunction(
		ir.NewAssignment(xWrite, ir.NewConstantUint64(8, 5)),
		ir.NewAssignment(yWrite, sum),
	)
	dataflow := analyze(t, fn, nil)

	value := dataflow.GetValue(yWrite).AbstractValue()
	require.True(t, value.IsConcrete(), "y must be concrete, got %s", spew.Sdump(value))
	assert.Equal(t, uint64(8), value.AsConcreteUint64())

	// Def-use chains: the write of x feeds the read of x.
	uses := dataflow.GetUses(xWrite)
	require.NotNil(t, uses)
	assert.True(t, uses.Contains(ir.Term(xRead)))
}

func TestInstructionPointerReads(t *testing.T) {
	a := arch.AMD64()
	ip, ok := a.InstructionPointer()
	require.True(t, ok)

	ipRead := ir.NewMemoryLocationAccess(ip, ir.AccessRead)
	target := ir.NewMemoryLocationAccess(
		ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 0, Size: 64}, ir.AccessWrite)
	assignment := ir.NewAssignment(target, ipRead)
	assignment.SetInstruction(&ir.Instruction{Addr: 0x401000, Text: "lea rax, [rip]"})

	fn := singleBlockFunction(assignment)
	dataflow := analyze(t, fn, nil)

	value := dataflow.GetValue(ipRead).AbstractValue()
	require.True(t, value.IsConcrete())
	assert.Equal(t, uint64(0x401000), value.AsConcreteUint64())
}

func TestStackOffsetTracking(t *testing.T) {
	sp := arch.StackPointer()

	spRead1 := ir.NewMemoryLocationAccess(sp, ir.AccessRead)
	spWrite1 := ir.NewMemoryLocationAccess(sp, ir.AccessWrite)
	sub := ir.NewBinaryOperator(ir.SUB, spRead1, ir.NewConstantUint64(64, 8), 64)

	spRead2 := ir.NewMemoryLocationAccess(sp, ir.AccessRead)
	spWrite2 := ir.NewMemoryLocationAccess(sp, ir.AccessWrite)
	align := ir.NewBinaryOperator(ir.AND, spRead2, ir.NewConstantUint64(64, 0xfffffffffffffff0), 64)

	fn := singleBlockFunction(
		ir.NewAssignment(spWrite1, sub),
		ir.NewAssignment(spWrite2, align),
	)

	entry := newStackEntry()
	dataflow := analyze(t, fn, &testCallsData{entry: entry})

	require.True(t, dataflow.GetValue(spRead1).IsStackOffset(), "entry stack pointer must be an offset")
	assert.Equal(t, int64(0), dataflow.GetValue(spRead1).StackOffset())

	require.True(t, dataflow.GetValue(spWrite1).IsStackOffset())
	assert.Equal(t, int64(-8), dataflow.GetValue(spWrite1).StackOffset())

	require.True(t, dataflow.GetValue(spWrite2).IsStackOffset(), "alignment must preserve the offset property")
	assert.Equal(t, int64(-16), dataflow.GetValue(spWrite2).StackOffset())

	assert.True(t, entry.lastFlag, "the final iteration must run with the fixpoint flag raised")
}

func TestDereferenceLocations(t *testing.T) {
	sp := arch.StackPointer()

	// A dereference of a concrete address resolves into global memory.
	memDeref := ir.NewDereference(ir.DomainMemory, ir.NewConstantUint64(64, 0x2000), 32, ir.AccessRead)
	// A dereference of the stack pointer resolves into the stack.
	spRead := ir.NewMemoryLocationAccess(sp, ir.AccessRead)
	stackDeref := ir.NewDereference(ir.DomainMemory, spRead, 32, ir.AccessWrite)

	target := ir.NewMemoryLocationAccess(
		ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 0, Size: 32}, ir.AccessWrite)

	fn := singleBlockFunction(
		ir.NewAssignment(target, memDeref),
		ir.NewAssignment(stackDeref, ir.NewConstantUint64(32, 1)),
	)
	entry := newStackEntry()
	dataflow := analyze(t, fn, &testCallsData{entry: entry})

	loc, ok := dataflow.GetMemoryLocation(memDeref)
	require.True(t, ok)
	assert.Equal(t, ir.MemoryLocation{Domain: ir.DomainMemory, Addr: 0x2000 * 8, Size: 32}, loc)

	loc, ok = dataflow.GetMemoryLocation(stackDeref)
	require.True(t, ok)
	assert.Equal(t, ir.MemoryLocation{Domain: ir.DomainStack, Addr: 0, Size: 32}, loc)
}

func TestPartialReadLittleEndian(t *testing.T) {
	wide := ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 0, Size: 32}
	byte1 := ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 8, Size: 8}

	wideWrite := ir.NewMemoryLocationAccess(wide, ir.AccessWrite)
	byteRead := ir.NewMemoryLocationAccess(byte1, ir.AccessRead)
	sink := ir.NewMemoryLocationAccess(
		ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 64, Size: 8}, ir.AccessWrite)

	fn := singleBlockFunction(
		ir.NewAssignment(wideWrite, ir.NewConstantUint64(32, 0x11223344)),
		ir.NewAssignment(sink, byteRead),
	)
	dataflow := analyze(t, fn, nil)

	value := dataflow.GetValue(byteRead).AbstractValue()
	require.True(t, value.IsConcrete(), "the partial read must see the overlapping definition")
	assert.Equal(t, uint64(0x33), value.AsConcreteUint64())
}

func TestChoiceResolution(t *testing.T) {
	locX := ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 0, Size: 8}
	locY := ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 64, Size: 8}

	xWrite := ir.NewMemoryLocationAccess(locX, ir.AccessWrite)

	defined := ir.NewChoice(ir.NewMemoryLocationAccess(locX, ir.AccessRead), ir.NewConstantUint64(8, 7))
	undefined := ir.NewChoice(ir.NewMemoryLocationAccess(locY, ir.AccessRead), ir.NewConstantUint64(8, 9))

	sink1 := ir.NewMemoryLocationAccess(ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 128, Size: 8}, ir.AccessWrite)
	sink2 := ir.NewMemoryLocationAccess(ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 192, Size: 8}, ir.AccessWrite)

	fn := singleBlockFunction(
		ir.NewAssignment(xWrite, ir.NewConstantUint64(8, 42)),
		ir.NewAssignment(sink1, defined),
		ir.NewAssignment(sink2, undefined),
	)
	dataflow := analyze(t, fn, nil)

	value := dataflow.GetValue(defined).AbstractValue()
	require.True(t, value.IsConcrete())
	assert.Equal(t, uint64(42), value.AsConcreteUint64(), "a choice with definitions resolves to the preferred term")

	value = dataflow.GetValue(undefined).AbstractValue()
	require.True(t, value.IsConcrete())
	assert.Equal(t, uint64(9), value.AsConcreteUint64(), "a choice without definitions resolves to the default term")
}

func TestLoopConvergence(t *testing.T) {
	locN := ir.MemoryLocation{Domain: ir.DomainRegister, Addr: 0, Size: 32}

	bbCond := ir.NewBasicBlockAt(0x1000)
	bbBody := ir.NewBasicBlockAt(0x1010)
	bbExit := ir.NewBasicBlockAt(0x1020)

	nRead := ir.NewMemoryLocationAccess(locN, ir.AccessRead)
	cond := ir.NewBinaryOperator(ir.EQ, nRead, ir.NewConstantUint64(32, 0), 1)
	bbCond.AddStatement(ir.NewConditionalJump(cond,
		ir.BasicBlockTarget(bbExit), ir.BasicBlockTarget(bbBody)))

	bbBody.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locN, ir.AccessWrite),
		ir.NewBinaryOperator(ir.SUB,
			ir.NewMemoryLocationAccess(locN, ir.AccessRead),
			ir.NewConstantUint64(32, 1), 32)))
	bbBody.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbCond)))

	bbExit.AddStatement(ir.NewReturn())

	fn := ir.NewFunction("loop")
	for _, bb := range []*ir.BasicBlock{bbCond, bbBody, bbExit} {
		fn.AddBasicBlock(bb)
	}

	dataflow := NewDataflow()
	analyzer := NewAnalyzer(dataflow, arch.AMD64(), nil)
	require.NoError(t, analyzer.Analyze(context.Background(), fn))

	assert.Greater(t, analyzer.Iterations, 0)
	assert.LessOrEqual(t, analyzer.Iterations, analyzer.MaxIterations,
		"a two-block loop must converge well within the cap")

	// With no entry definition the loop counter read stays unrefined.
	assert.False(t, dataflow.GetValue(nRead).AbstractValue().IsConcrete())
	// Both the initial absence and the loop body write reach the read.
	defs := dataflow.GetDefinitions(nRead)
	assert.False(t, defs.IsEmpty())
}

func TestCancellation(t *testing.T) {
	fn := singleBlockFunction(ir.NewReturn())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	analyzer := NewAnalyzer(NewDataflow(), arch.AMD64(), nil)
	err := analyzer.Analyze(ctx, fn)
	assert.ErrorIs(t, err, context.Canceled)
}
