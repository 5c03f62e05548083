// Copyright 2024 The revc Authors
// This file is part of revc.
//
// revc is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// revc is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with revc. If not, see <http://www.gnu.org/licenses/>.

// revc runs the dataflow analysis and C-code synthesis pipeline over
// built-in sample functions (a diamond, a short-circuit condition, a
// loop and a switch) and prints the result. It exists to exercise the
// library end to end; real frontends feed it lifted IR instead.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/revc/revc/core/arch"
	"github.com/revc/revc/core/ir"
	"github.com/revc/revc/core/ir/calling"
	"github.com/revc/revc/core/ir/cflow"
	"github.com/revc/revc/core/ir/cgen"
	"github.com/revc/revc/core/ir/dflow"
	"github.com/revc/revc/core/ir/liveness"
	"github.com/revc/revc/core/ir/types"
	"github.com/revc/revc/core/ir/vars"
	"github.com/revc/revc/core/likec"
	"github.com/revc/revc/log"
)

var (
	constantsFlag = &cli.BoolFlag{
		Name:  "constants",
		Usage: "replace expressions by their concrete reaching values",
	}
	registerNamesFlag = &cli.BoolFlag{
		Name:  "register-names",
		Usage: "name variables after the registers they live in",
	}
	inlineFlag = &cli.BoolFlag{
		Name:  "inline-intermediates",
		Usage: "inline single-use intermediate variables (experimental)",
	}
	killAsmFlag = &cli.BoolFlag{
		Name:  "kill-on-asm",
		Usage: "make inline assembly destroy reaching definitions",
	}
	maxIterationsFlag = &cli.IntFlag{
		Name:  "max-iterations",
		Usage: "cap on dataflow fixpoint iterations",
		Value: dflow.DefaultMaxIterations,
	}
)

func main() {
	app := &cli.App{
		Name:  "revc",
		Usage: "decompile the built-in sample functions to C-like code",
		Flags: []cli.Flag{
			constantsFlag,
			registerNamesFlag,
			inlineFlag,
			killAsmFlag,
			maxIterationsFlag,
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Crit("revc failed", "err", err)
	}
}

func run(c *cli.Context) error {
	options := cgen.Options{
		PreferConstantsToExpressions: c.Bool(constantsFlag.Name),
		RegisterVariableNames:        c.Bool(registerNamesFlag.Name),
		InlineIntermediates:          c.Bool(inlineFlag.Name),
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Function", "Iterations", "Terms", "Definitions", "Statements"})

	heading := color.New(color.FgCyan, color.Bold)

	samples := []func() *sampleFunction{
		maxSample,       // diamond
		gateSample,      // short-circuit condition
		countdownSample, // loop
		dispatchSample,  // switch
	}
	for _, sample := range samples {
		s := sample()

		definition, stats, err := decompile(c, s, options)
		if err != nil {
			return fmt.Errorf("decompiling %q: %w", s.function.Name(), err)
		}

		heading.Printf("// %s\n", s.function.Name())
		fmt.Println(likec.Print(definition))

		table.Append([]string{
			s.function.Name(),
			fmt.Sprint(stats.iterations),
			fmt.Sprint(stats.terms),
			fmt.Sprint(stats.definitions),
			fmt.Sprint(stats.emittedStatements),
		})
	}

	table.Render()
	return nil
}

// analysisStats is what the summary table reports per function.
type analysisStats struct {
	iterations        int
	terms             int
	definitions       int
	emittedStatements int
}

func decompile(c *cli.Context, s *sampleFunction, options cgen.Options) (*likec.FunctionDefinition, *analysisStats, error) {
	architecture := arch.AMD64()

	dataflow := dflow.NewDataflow()
	analyzer := dflow.NewAnalyzer(dataflow, architecture, nil)
	analyzer.MaxIterations = c.Int(maxIterationsFlag.Name)
	analyzer.KillOnInlineAssembly = c.Bool(killAsmFlag.Name)

	if err := analyzer.Analyze(context.Background(), s.function); err != nil {
		return nil, nil, err
	}

	stats := &analysisStats{iterations: analyzer.Iterations}

	variables := vars.Map{}
	s.function.ForEachTerm(func(t ir.Term) {
		stats.terms++
		if t.IsRead() {
			for _, def := range dataflow.GetDefinitions(t).Definitions() {
				stats.definitions += def.Definers.Cardinality()
			}
		}
		loc, ok := dataflow.GetMemoryLocation(t)
		if !ok {
			return
		}
		variable := s.variables[loc]
		if variable == nil {
			variable = vars.NewVariable(loc, false)
			s.variables[loc] = variable
		}
		variables.Assign(t, variable, loc)
	})

	generator := cgen.NewCodeGenerator(
		architecture, nil, s.signatures, nil, types.Unsigned{}, variables, options)

	definition, err := cgen.NewDefinitionGenerator(
		generator, s.function, dataflow, s.graph, liveness.Full{},
	).CreateDefinition(context.Background())
	if err != nil {
		return nil, nil, err
	}

	for _, stmt := range definition.Block().Statements {
		stats.emittedStatements += countStatements(stmt)
	}
	return definition, stats, nil
}

// countStatements counts a statement and everything nested in it.
func countStatements(s likec.Statement) int {
	switch s := s.(type) {
	case *likec.Block:
		n := 0
		for _, child := range s.Statements {
			n += countStatements(child)
		}
		return n
	case *likec.If:
		n := 1 + countStatements(s.Then)
		if s.Else != nil {
			n += countStatements(s.Else)
		}
		return n
	case *likec.While:
		return 1 + countStatements(s.Body)
	case *likec.DoWhile:
		return 1 + countStatements(s.Body)
	case *likec.Switch:
		return 1 + countStatements(s.Body)
	case nil:
		return 0
	default:
		return 1
	}
}

// sampleFunction bundles a hand-built IR function with its structuring
// tree and signature.
type sampleFunction struct {
	function   *ir.Function
	graph      *cflow.Region
	signatures staticSignatures
	variables  map[ir.MemoryLocation]*vars.Variable
}

type staticSignatures map[*ir.Function]*calling.Signature

func (s staticSignatures) GetFunctionSignature(fn *ir.Function) *calling.Signature { return s[fn] }
func (s staticSignatures) GetCallSignature(*ir.Call) *calling.Signature           { return nil }
func (s staticSignatures) GetAddressSignature(uint64) *calling.Signature          { return nil }

func newSample(fn *ir.Function, graph *cflow.Region) *sampleFunction {
	return &sampleFunction{
		function:   fn,
		graph:      graph,
		signatures: staticSignatures{fn: calling.NewSignature(fn.Name())},
		variables:  make(map[ir.MemoryLocation]*vars.Variable),
	}
}

func reg(slot int64, size int) ir.MemoryLocation {
	return ir.MemoryLocation{Domain: ir.DomainRegister, Addr: slot * 64, Size: size}
}

// maxSample builds the classic diamond: c = a < b ? b : a.
func maxSample() *sampleFunction {
	fn := ir.NewFunction("max32")

	locA, locB, locC := reg(0, 32), reg(1, 32), reg(2, 32)

	bbA := ir.NewBasicBlockAt(0x1000)
	bbThen := ir.NewBasicBlockAt(0x1010)
	bbElse := ir.NewBasicBlockAt(0x1020)
	bbExit := ir.NewBasicBlockAt(0x1030)

	cond := ir.NewBinaryOperator(ir.ULT,
		ir.NewMemoryLocationAccess(locA, ir.AccessRead),
		ir.NewMemoryLocationAccess(locB, ir.AccessRead), 1)
	bbA.AddStatement(ir.NewConditionalJump(cond,
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

	for _, bb := range []*ir.BasicBlock{bbA, bbThen, bbElse, bbExit} {
		fn.AddBasicBlock(bb)
	}

	ite := cflow.NewRegion(cflow.IfThenElse)
	ite.AddNode(cflow.NewBasicNode(bbA))
	ite.AddNode(cflow.NewBasicNode(bbThen))
	ite.AddNode(cflow.NewBasicNode(bbElse))

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(ite)
	root.AddNode(cflow.NewBasicNode(bbExit))

	return newSample(fn, root)
}

// gateSample builds a short-circuit conjunction:
// if (a == 0 && b == 0) r = 1; else r = 0.
func gateSample() *sampleFunction {
	fn := ir.NewFunction("gate")

	locA, locB, locR := reg(0, 32), reg(1, 32), reg(2, 32)

	bbA := ir.NewBasicBlockAt(0x3000)
	bbB := ir.NewBasicBlockAt(0x3010)
	bbThen := ir.NewBasicBlockAt(0x3020)
	bbElse := ir.NewBasicBlockAt(0x3030)
	bbExit := ir.NewBasicBlockAt(0x3040)

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

	bbThen.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locR, ir.AccessWrite),
		ir.NewConstantUint64(32, 1)))
	bbThen.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))

	bbElse.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locR, ir.AccessWrite),
		ir.NewConstantUint64(32, 0)))
	bbElse.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))

	bbExit.AddStatement(ir.NewReturn())

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

	return newSample(fn, root)
}

// countdownSample builds a while loop: while (0 < n) n = n - 1.
func countdownSample() *sampleFunction {
	fn := ir.NewFunction("countdown")

	locN := reg(0, 32)

	bbCond := ir.NewBasicBlockAt(0x2000)
	bbBody := ir.NewBasicBlockAt(0x2010)
	bbExit := ir.NewBasicBlockAt(0x2020)

	cond := ir.NewBinaryOperator(ir.ULT,
		ir.NewConstantUint64(32, 0),
		ir.NewMemoryLocationAccess(locN, ir.AccessRead), 1)
	bbCond.AddStatement(ir.NewConditionalJump(cond,
		ir.BasicBlockTarget(bbBody), ir.BasicBlockTarget(bbExit)))

	bbBody.AddStatement(ir.NewAssignment(
		ir.NewMemoryLocationAccess(locN, ir.AccessWrite),
		ir.NewBinaryOperator(ir.SUB,
			ir.NewMemoryLocationAccess(locN, ir.AccessRead),
			ir.NewConstantUint64(32, 1), 32)))
	bbBody.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbCond)))

	bbExit.AddStatement(ir.NewReturn())

	for _, bb := range []*ir.BasicBlock{bbCond, bbBody, bbExit} {
		fn.AddBasicBlock(bb)
	}

	loop := cflow.NewRegion(cflow.While)
	loop.AddNode(cflow.NewBasicNode(bbCond))
	loop.AddNode(cflow.NewBasicNode(bbBody))
	loop.SetExitBasicBlock(bbExit)

	root := cflow.NewRegion(cflow.Block)
	root.AddNode(loop)
	root.AddNode(cflow.NewBasicNode(bbExit))

	return newSample(fn, root)
}

// dispatchSample builds a two-case jump-table switch with a default
// and a table entry leaving the region.
func dispatchSample() *sampleFunction {
	fn := ir.NewFunction("dispatch")

	locS, locR := reg(0, 32), reg(1, 32)

	bbSwitch := ir.NewBasicBlockAt(0x4000)
	bbCase0 := ir.NewBasicBlockAt(0x4100)
	bbCase1 := ir.NewBasicBlockAt(0x4200)
	bbDefault := ir.NewBasicBlockAt(0x4300)
	bbExit := ir.NewBasicBlockAt(0x4400)

	switchTerm := ir.NewMemoryLocationAccess(locS, ir.AccessRead)
	table := ir.JumpTable{
		{Address: 0x4100, BasicBlock: bbCase0},
		{Address: 0x4200, BasicBlock: bbCase1},
		{Address: 0x9000, BasicBlock: nil}, // target outside the switch region
	}
	bbSwitch.AddStatement(ir.NewTouch(switchTerm))
	bbSwitch.AddStatement(ir.NewJump(ir.TableTarget(ir.NewIntrinsic(64), table)))

	sink := func(v uint64) ir.Statement {
		return ir.NewAssignment(
			ir.NewMemoryLocationAccess(locR, ir.AccessWrite),
			ir.NewConstantUint64(32, v))
	}
	bbCase0.AddStatement(sink(10))
	bbCase0.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))
	bbCase1.AddStatement(sink(11))
	bbCase1.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))
	bbDefault.AddStatement(sink(12))
	bbDefault.AddStatement(ir.NewJump(ir.BasicBlockTarget(bbExit)))
	bbExit.AddStatement(ir.NewReturn())

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

	return newSample(fn, root)
}
