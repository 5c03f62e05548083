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
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revc/revc/core/arch"
	"github.com/revc/revc/core/image"
	"github.com/revc/revc/core/ir"
	"github.com/revc/revc/core/ir/calling"
	"github.com/revc/revc/core/ir/cflow"
	"github.com/revc/revc/core/ir/dflow"
	"github.com/revc/revc/core/ir/liveness"
	"github.com/revc/revc/core/ir/types"
	"github.com/revc/revc/core/ir/vars"
	"github.com/revc/revc/core/likec"
)

type staticSignatures map[*ir.Function]*calling.Signature

func (s staticSignatures) GetFunctionSignature(fn *ir.Function) *calling.Signature { return s[fn] }
func (s staticSignatures) GetCallSignature(*ir.Call) *calling.Signature           { return nil }
func (s staticSignatures) GetAddressSignature(uint64) *calling.Signature          { return nil }

// fixture bundles one hand-built function with everything synthesis
// needs.
type fixture struct {
	t        *testing.T
	fn       *ir.Function
	dataflow *dflow.Dataflow
	vars     vars.Map
	liveness liveness.Liveness
	types    types.Map
	img      *image.Image
	options  Options
}

func newFixture(t *testing.T, fn *ir.Function) *fixture {
	return &fixture{
		t:        t,
		fn:       fn,
		dataflow: dflow.NewDataflow(),
		vars:     vars.Map{},
		liveness: liveness.Full{},
		types:    types.Map{},
	}
}

// analyze runs the dataflow analysis and groups terms into one
// variable per accessed location.
func (f *fixture) analyze() {
	f.t.Helper()
	analyzer := dflow.NewAnalyzer(f.dataflow, arch.AMD64(), nil)
	require.NoError(f.t, analyzer.Analyze(context.Background(), f.fn))

	byLocation := make(map[ir.MemoryLocation]*vars.Variable)
	f.fn.ForEachTerm(func(t ir.Term) {
		loc, ok := f.dataflow.GetMemoryLocation(t)
		if !ok {
			return
		}
		variable := byLocation[loc]
		if variable == nil {
			variable = vars.NewVariable(loc, false)
			byLocation[loc] = variable
		}
		f.vars.Assign(t, variable, loc)
	})
}

// generate synthesizes the function over the given structuring tree
// and returns its whitespace-normalized text.
func (f *fixture) generate(graph *cflow.Region) string {
	f.t.Helper()
	parent := NewCodeGenerator(arch.AMD64(), f.img,
		staticSignatures{f.fn: calling.NewSignature(f.fn.Name())}, nil, f.types, f.vars, f.options)
	definition, err := NewDefinitionGenerator(parent, f.fn, f.dataflow, graph, f.liveness).
		CreateDefinition(context.Background())
	require.NoError(f.t, err)
	return normalize(likec.Print(definition))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func reg(slot int64, size int) ir.MemoryLocation {
	return ir.MemoryLocation{Domain: ir.DomainRegister, Addr: slot * 64, Size: size}
}

func TestDiamondIfThenElse(t *testing.T) {
	locA, locB, locC := reg(0, 32), reg(1, 32), reg(2, 32)

	bbCond := ir.NewBasicBlockAt(0x1000)
	bbThen := ir.NewBasicBlockAt(0x1010)
	bbElse := ir.NewBasicBlockAt(0x1020)
	bbExit := ir.NewBasicBlockAt(0x1030)

	bbCond.AddStatement(ir.NewConditionalJump(
		ir.NewBinaryOperator(ir.ULT,
			ir.NewMemoryLocationAccess(locA, ir.AccessRead),
			ir.NewMemoryLocationAccess(locB, ir.AccessRead), 1),
		ir.BasicBlockTarget(bbThen), ir.BasicBlockTarget(bbElse)))

	bbThen.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locC, ir.AccessWrite),
		ir.NewMemoryLocationAccess(locB, ir.AccessRead)))
	bbThen.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))

	bbElse.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locC, ir.AccessWrite),
		ir.NewMemoryLocationAccess(locA, ir.AccessRead)))
	bbElse.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))

	bbExit.AddStatement(ir.NewReturn())

	fn := ir.NewFunction("diamond")
	for _, bb := range []*ir.BasicBlock{bbCond, bbThen, bbElse, bbExit} {
		fn.AddBasicBlock(bb)
	}

	ite := cflow.NewRegion(cflow.IfThenElse)
	ite.AddNode(cflow.NewBasicNode(bbCond))
	ite.AddNode(cflow.NewBasicNode(bbThen))
	ite.AddNode(cflow.NewBasicNode(bbElse))

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(ite)
	root.AddNode(cflow.NewBasicNode(bbExit))

	f := newFixture(t, fn)
	f.analyze()
	text := f.generate(root)

	assert.Contains(t, text, "if (")
	assert.Contains(t, text, "else")
	assert.Contains(t, text, "return;")
	assert.NotContains(t, text, "goto", "a structured diamond needs no gotos")
}

func TestShortCircuitAnd(t *testing.T) {
	locA, locB := reg(0, 32), reg(1, 32)

	bbA := ir.NewBasicBlockAt(0x1000)
	bbB := ir.NewBasicBlockAt(0x1010)
	bbThen := ir.NewBasicBlockAt(0x1020)
	bbElse := ir.NewBasicBlockAt(0x1030)
	bbExit := ir.NewBasicBlockAt(0x1040)

	// a && b: a's else-target is the outer else.
	bbA.AddStatement(ir.NewConditionalJump(
		ir.NewBinaryOperator(ir.EQ,
			ir.NewMemoryLocationAccess(locA, ir.AccessRead),
			ir.NewConstantUint64(32, 0), 1),
		ir.BasicBlockTarget(bbB), ir.BasicBlockTarget(bbElse)))
	bbB.AddStatement(ir.NewConditionalJump(
		ir.NewBinaryOperator(ir.EQ,
			ir.NewMemoryLocationAccess(locB, ir.AccessRead),
			ir.NewConstantUint64(32, 0), 1),
		ir.BasicBlockTarget(bbThen), ir.BasicBlockTarget(bbElse)))

	bbThen.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))
	bbElse.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))
	bbExit.AddStatement(ir.NewReturn())

	fn := ir.NewFunction("shortcircuit")
	for _, bb := range []*ir.BasicBlock{bbA, bbB, bbThen, bbElse, bbExit} {
		fn.AddBasicBlock(bb)
	}

	cc := cflow.NewRegion(cflow.CompoundCondition)
	cc.AddNode(cflow.NewBasicNode(bbA))
	cc.AddNode(cflow.NewBasicNode(bbB))

	ite := cflow.NewRegion(cflow.IfThenElse)
	ite.AddNode(cc)
	ite.AddNode(cflow.NewBasicNode(bbThen))
	ite.AddNode(cflow.NewBasicNode(bbElse))

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(ite)
	root.AddNode(cflow.NewBasicNode(bbExit))

	f := newFixture(t, fn)
	f.analyze()
	text := f.generate(root)

	assert.Contains(t, text, "&&")
	assert.NotContains(t, text, "||")
}

func TestWhileLoop(t *testing.T) {
	locN := reg(0, 32)

	bbCond := ir.NewBasicBlockAt(0x2000)
	bbBody := ir.NewBasicBlockAt(0x2010)
	bbExit := ir.NewBasicBlockAt(0x2020)

	bbCond.AddStatement(ir.NewConditionalJump(
		ir.NewBinaryOperator(ir.ULT,
			ir.NewConstantUint64(32, 0),
			ir.NewMemoryLocationAccess(locN, ir.AccessRead), 1),
		ir.BasicBlockTarget(bbBody), ir.BasicBlockTarget(bbExit)))

	bbBody.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locN, ir.AccessWrite),
		ir.NewBinaryOperator(ir.SUB,
			ir.NewMemoryLocationAccess(locN, ir.AccessRead),
			ir.NewConstantUint64(32, 1), 32)))
	bbBody.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbCond)))

	bbExit.AddStatement(ir.NewReturn())

	fn := ir.NewFunction("whileloop")
	for _, bb := range []*ir.BasicBlock{bbCond, bbBody, bbExit} {
		fn.AddBasicBlock(bb)
	}

	while := cflow.NewRegion(cflow.While)
	while.AddNode(cflow.NewBasicNode(bbCond))
	while.AddNode(cflow.NewBasicNode(bbBody))
	while.SetExitBasicBlock(bbExit)

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(while)
	root.AddNode(cflow.NewBasicNode(bbExit))

	f := newFixture(t, fn)
	f.analyze()
	text := f.generate(root)

	assert.Contains(t, text, "addr_0x2000_0:", "the condition head keeps its label")
	assert.Contains(t, text, "while (")
	assert.NotContains(t, text, "goto", "the loop back-edge and exit are fallthroughs")
}

func TestSwitchWithDefaultAndEscapingCase(t *testing.T) {
	locS := reg(0, 32)

	bbSwitch := ir.NewBasicBlockAt(0x100_0)
	bbCase0 := ir.NewBasicBlockAt(0x100)
	bbCase1 := ir.NewBasicBlockAt(0x200)
	bbDefault := ir.NewBasicBlockAt(0x300)
	bbExit := ir.NewBasicBlockAt(0x400)

	switchTerm := ir.NewMemoryLocationAccess(locS, ir.AccessRead)
	table := ir.JumpTable{
		{Address: 0x100, BasicBlock: bbCase0},
		{Address: 0x200, BasicBlock: bbCase1},
		{Address: 0x5000, BasicBlock: nil}, // target outside the switch region
	}
	bbSwitch.AddStatement(ir.NewTouch(switchTerm))
	bbSwitch.AddStatement(ir.NewJump(ir.TableTarget(ir.NewIntrinsic(64), table)))

	sink := func(v uint64) ir.Statement {
		return ir.NewAssignment(
			ir.NewMemoryLocationAccess(reg(1, 32), ir.AccessWrite),
			ir.NewConstantUint64(32, v))
	}
	bbCase0.AddStatement(sink(10))
	bbCase0.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))
	bbCase1.AddStatement(sink(11))
	bbCase1.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))
	bbDefault.AddStatement(sink(12))
	bbDefault.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))
	bbExit.AddStatement(ir.NewReturn())

	fn := ir.NewFunction("dispatch")
	for _, bb := range []*ir.BasicBlock{bbSwitch, bbCase0, bbCase1, bbDefault, bbExit} {
		fn.AddBasicBlock(bb)
	}

	witch := cflow.NewSwitch(switchTerm, cflow.NewBasicNode(bbSwitch), len(table))
	witch.AddNode(witch.SwitchNode())
	witch.AddNode(cflow.NewBasicNode(bbCase0))
	witch.AddNode(cflow.NewBasicNode(bbCase1))
	witch.AddNode(cflow.NewBasicNode(bbDefault))
	witch.SetDefaultBasicBlock(bbDefault)
	witch.SetExitBasicBlock(bbExit)

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(witch)
	root.AddNode(cflow.NewBasicNode(bbExit))

	f := newFixture(t, fn)
	f.analyze()
	text := f.generate(root)

	assert.Contains(t, text, "switch ((int32_t)")
	assert.Contains(t, text, "case 0:")
	assert.Contains(t, text, "case 1:")
	assert.Contains(t, text, "default:")
	assert.Contains(t, text, "break;")
	assert.Regexp(t, `case 2:\s+goto 0x5000;`, text,
		"table entries leaving the region become case-goto pairs")
}

func TestConstantStringLowering(t *testing.T) {
	pointer := ir.NewConstantUint64(64, 0x3000)
	sink := ir.NewMemoryLocationAccess(reg(0, 64), ir.AccessWrite)

	bb := ir.NewBasicBlockAt(0x1000)
	bb.AddStatement(ir.NewAssignment(sink, pointer))
	bb.AddStatement(ir.NewReturn())

	fn := ir.NewFunction("strings")
	fn.AddBasicBlock(bb)

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(cflow.NewBasicNode(bb))

	build := func(cstrings, globals bool) string {
		f := newFixture(t, fn)
		f.types[pointer] = types.NewPointer(64, types.NewInteger(8, false))
		f.img = image.NewImage(&image.Section{
			Name:      ".rodata",
			Addr:      0x3000,
			Data:      []byte{'H', 'e', 'l', 'l', 'o', 0},
			Allocated: true,
		})
		f.options = Options{
			PreferCStringsToConstants:        cstrings,
			PreferGlobalVariablesToConstants: globals,
		}
		f.analyze()
		return f.generate(root)
	}

	assert.Contains(t, build(true, false), `"Hello"`)

	withoutStrings := build(false, false)
	assert.NotContains(t, withoutStrings, "Hello")
	assert.Contains(t, withoutStrings, "(int8_t*)0x3000")

	assert.Contains(t, build(false, true), "&g_3000")
}

func TestDeadStoreElision(t *testing.T) {
	locX, locY := reg(0, 8), reg(1, 8)

	xWrite := ir.NewMemoryLocationAccess(locX, ir.AccessWrite)
	xRead := ir.NewMemoryLocationAccess(locX, ir.AccessRead)
	yWrite := ir.NewMemoryLocationAccess(locY, ir.AccessWrite)
	sum := ir.NewBinaryOperator(ir.ADD, xRead, ir.NewConstantUint64(8, 3), 8)

	bb := ir.NewBasicBlockAt(0x1000)
	bb.AddStatement(ir.NewAssignment(xWrite, ir.NewConstantUint64(8, 5)))
	bb.AddStatement(ir.NewAssignment(yWrite, sum))
	bb.AddStatement(ir.NewReturn())

	fn := ir.NewFunction("deadstore")
	fn.AddBasicBlock(bb)

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(cflow.NewBasicNode(bb))

	f := newFixture(t, fn)
	f.analyze()

	// Only the second assignment's sides are live; the store of 5 is
	// dead, yet its value still flows into the read of x.
	f.liveness = liveness.Set{yWrite: true, xRead: true, sum: true}
	f.options = Options{PreferConstantsToExpressions: true}

	text := f.generate(root)
	assert.NotContains(t, text, "5", "the dead store must produce no statement")
	assert.Contains(t, text, "8", "the live read folds to the reaching value")
}

func TestIntermediateInliningDisabledByDefault(t *testing.T) {
	locX, locY := reg(0, 8), reg(1, 8)

	bb := ir.NewBasicBlockAt(0x1000)
	bb.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locX, ir.AccessWrite),
		ir.NewConstantUint64(8, 5)))
	bb.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locY, ir.AccessWrite),
		ir.NewMemoryLocationAccess(locX, ir.AccessRead)))
	bb.AddStatement(ir.NewReturn())

	fn := ir.NewFunction("chain")
	fn.AddBasicBlock(bb)

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(cflow.NewBasicNode(bb))

	f := newFixture(t, fn)
	f.analyze()
	text := f.generate(root)

	assert.Contains(t, text, "v0 = ")
	assert.Contains(t, text, "v1 = ")
}
