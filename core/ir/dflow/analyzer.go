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

	"github.com/holiman/uint256"

	"github.com/revc/revc/core/arch"
	"github.com/revc/revc/core/ir"
	"github.com/revc/revc/log"
)

// DefaultMaxIterations caps the outer fixpoint loop. The value is
// empirical; raise it for functions with very deep definition chains.
const DefaultMaxIterations = 30

// FunctionAnalyzer lets a calling-convention model inject argument
// definitions at the function entry.
type FunctionAnalyzer interface {
	SimulateEnter(ctx *SimulationContext)
}

// CallAnalyzer models the dataflow effect of one call site.
type CallAnalyzer interface {
	SimulateCall(ctx *SimulationContext)
}

// ReturnAnalyzer models the dataflow effect of one return site.
type ReturnAnalyzer interface {
	SimulateReturn(ctx *SimulationContext)
}

// CallsData connects the analyzer to the calling-convention machinery.
// All methods may return nil.
type CallsData interface {
	GetFunctionAnalyzer(fn *ir.Function) FunctionAnalyzer
	GetCallAnalyzer(call *ir.Call) CallAnalyzer
	GetReturnAnalyzer(fn *ir.Function, ret *ir.Return) ReturnAnalyzer

	// SetCalledAddress records the concrete target of a call.
	SetCalledAddress(call *ir.Call, addr uint64)
}

// TermEnumerator is implemented by CallsData providers whose hooks own
// cloned terms that take part in the dataflow; the analyzer includes
// them when rebuilding def-use chains.
type TermEnumerator interface {
	ForEachTerm(fn func(ir.Term))
}

// Analyzer computes, for every term of a function, a Value and
// optionally a MemoryLocation, plus the reaching definitions of reads,
// by an iterative fixpoint over the CFG.
type Analyzer struct {
	dataflow  *Dataflow
	arch      arch.Architecture
	callsData CallsData

	// MaxIterations caps the outer fixpoint loop.
	MaxIterations int

	// KillOnInlineAssembly makes inline assembly destroy all reaching
	// definitions. The default keeps them, which is unsound but
	// usually produces better code.
	KillOnInlineAssembly bool

	// Iterations is the number of fixpoint iterations the last call to
	// Analyze took, including the extra flag-raised pass.
	Iterations int
}

// NewAnalyzer creates an analyzer writing into the given dataflow.
// callsData may be nil.
func NewAnalyzer(dataflow *Dataflow, architecture arch.Architecture, callsData CallsData) *Analyzer {
	return &Analyzer{
		dataflow:      dataflow,
		arch:          architecture,
		callsData:     callsData,
		MaxIterations: DefaultMaxIterations,
	}
}

// Dataflow returns the tables the analyzer writes into.
func (a *Analyzer) Dataflow() *Dataflow { return a.dataflow }

// Architecture returns the architecture being analyzed for.
func (a *Analyzer) Architecture() arch.Architecture { return a.arch }

// Analyze runs the simulation until reaching a stationary point twice
// in a row. A canceled context aborts between iterations.
func (a *Analyzer) Analyze(ctx context.Context, fn *ir.Function) error {
	cfg := ir.NewCFG(fn.BasicBlocks())
	outputDefinitions := make(map[*ir.BasicBlock]*ReachingDefinitions)

	var (
		niterations     int
		changed         bool
		fixpointReached bool
		progress        = log.Progress{First: 2, N: 5}
	)

	for {
		changed = false

		for _, bb := range fn.BasicBlocks() {
			sctx := newSimulationContext(a, fn, fixpointReached)

			// Merge the reaching definitions from predecessors.
			for _, pred := range cfg.Predecessors(bb) {
				if out := outputDefinitions[pred]; out != nil {
					sctx.definitions.Merge(out)
				}
			}

			// If this is the function entry, run the calling
			// convention-specific code.
			if bb == fn.Entry() && a.callsData != nil {
				if fa := a.callsData.GetFunctionAnalyzer(fn); fa != nil {
					fa.SimulateEnter(sctx)
				}
			}

			for _, stmt := range bb.Statements() {
				a.simulateStatement(stmt, sctx)
			}

			if prev := outputDefinitions[bb]; prev == nil || !prev.Equal(&sctx.definitions) {
				out := sctx.definitions.Clone()
				outputDefinitions[bb] = &out
				changed = true
			}
		}

		a.rebuildUses(fn)

		if changed {
			fixpointReached = false
		} else if !fixpointReached {
			// Run one extra iteration with the flag raised so that
			// hooks observing it can refine their results.
			fixpointReached = true
			changed = true
		}

		niterations++
		a.Iterations = niterations
		log.DebugBy(&progress, "Dataflow iteration", "function", fn.Name(), "iteration", niterations)
		if niterations >= a.MaxIterations {
			log.Warn("Didn't reach a fixpoint while analyzing dataflow, giving up",
				"function", fn.Name(), "iterations", niterations)
			break
		}
		if !changed {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// rebuildUses recomputes the def-use chains from the recorded reaching
// definitions.
func (a *Analyzer) rebuildUses(fn *ir.Function) {
	forEachTerm := func(do func(ir.Term)) {
		fn.ForEachTerm(do)
		if enum, ok := a.callsData.(TermEnumerator); ok {
			enum.ForEachTerm(do)
		}
	}

	forEachTerm(func(t ir.Term) {
		if t.IsWrite() {
			a.dataflow.ClearUses(t)
		}
	})
	forEachTerm(func(t ir.Term) {
		if !t.IsRead() {
			return
		}
		for _, def := range a.dataflow.GetDefinitions(t).Definitions() {
			def.Definers.Each(func(definition ir.Term) bool {
				a.dataflow.AddUse(definition, t)
				return false
			})
		}
	})
}

func (a *Analyzer) simulateStatement(stmt ir.Statement, sctx *SimulationContext) {
	switch stmt := stmt.(type) {
	case *ir.Comment:
		// No dataflow effect.
	case *ir.InlineAssembly:
		// To be completely correct, one should clear reaching
		// definitions. However, not doing this usually leads to
		// better code.
		if a.KillOnInlineAssembly {
			sctx.definitions = ReachingDefinitions{}
		}
	case *ir.Assignment:
		a.Simulate(stmt.Right(), sctx)
		a.Simulate(stmt.Left(), sctx)

		// The write receives the value of the right-hand side, so
		// reads reached by this definition see it.
		leftValue := a.dataflow.GetValue(stmt.Left())
		rightValue := a.dataflow.GetValue(stmt.Right())
		leftValue.SetAbstractValue(rightValue.AbstractValue().Resize(stmt.Left().Size()))
		if rightValue.IsStackOffset() {
			leftValue.MakeStackOffset(rightValue.StackOffset())
		} else if rightValue.IsNotStackOffset() {
			leftValue.MakeNotStackOffset()
		}
		if rightValue.IsProduct() {
			leftValue.MakeProduct()
		} else if rightValue.IsNotProduct() {
			leftValue.MakeNotProduct()
		}
	case *ir.Kill:
		a.Simulate(stmt.Term(), sctx)
	case *ir.Jump:
		if stmt.Condition() != nil {
			a.Simulate(stmt.Condition(), sctx)
		}
		if addr := stmt.ThenTarget().Address(); addr != nil {
			a.Simulate(addr, sctx)
		}
		if addr := stmt.ElseTarget().Address(); addr != nil {
			a.Simulate(addr, sctx)
		}
	case *ir.Call:
		a.Simulate(stmt.Target(), sctx)
		if a.callsData != nil {
			targetValue := a.dataflow.GetValue(stmt.Target())
			if av := targetValue.AbstractValue(); av.IsConcrete() {
				a.callsData.SetCalledAddress(stmt, av.AsConcreteUint64())
			}
			if ca := a.callsData.GetCallAnalyzer(stmt); ca != nil {
				ca.SimulateCall(sctx)
			}
		}
	case *ir.Return:
		if a.callsData != nil && sctx.Function() != nil {
			if ra := a.callsData.GetReturnAnalyzer(sctx.Function(), stmt); ra != nil {
				ra.SimulateReturn(sctx)
			}
		}
	case *ir.Touch:
		a.Simulate(stmt.Term(), sctx)
	case *ir.Callback:
		// No dataflow effect.
	default:
		log.Warn("Simulation of unsupported statement kind", "statement", stmt)
	}
}

// Simulate computes the value and memory location of a term and its
// operands, and updates the reaching definitions flowing through the
// context. Exported so calling-convention hooks can simulate the terms
// they clone.
func (a *Analyzer) Simulate(t ir.Term, sctx *SimulationContext) {
	switch t := t.(type) {
	case *ir.Constant:
		value := a.dataflow.GetValue(t)
		value.SetAbstractValue(Concrete(t.Size(), t.Value()))
		value.MakeNotStackOffset()
		value.MakeNotProduct()

	case *ir.Intrinsic, *ir.Undefined:
		value := a.dataflow.GetValue(t)
		value.SetAbstractValue(Top(t.Size()))
		value.MakeNotStackOffset()
		value.MakeNotProduct()

	case *ir.MemoryLocationAccess:
		a.dataflow.SetMemoryLocation(t, t.MemoryLocation())

		// The value of the instruction pointer is always easy to guess.
		if ip, ok := a.arch.InstructionPointer(); ok &&
			t.MemoryLocation() == ip &&
			t.Statement() != nil &&
			t.Statement().Instruction() != nil {
			a.dataflow.GetValue(t).SetAbstractValue(
				ConcreteUint64(t.Size(), t.Statement().Instruction().Addr))
		}

	case *ir.Dereference:
		a.Simulate(t.Address(), sctx)

		addressValue := a.dataflow.GetValue(t.Address())
		if av := addressValue.AbstractValue(); av.IsConcrete() {
			if t.Domain() == ir.DomainMemory {
				a.dataflow.SetMemoryLocation(t, ir.MemoryLocation{
					Domain: t.Domain(),
					Addr:   int64(av.AsConcreteUint64()) * 8,
					Size:   t.Size(),
				})
			} else {
				a.dataflow.SetMemoryLocation(t, ir.MemoryLocation{
					Domain: t.Domain(),
					Addr:   int64(av.AsConcreteUint64()),
					Size:   t.Size(),
				})
			}
		} else if addressValue.IsStackOffset() {
			a.dataflow.SetMemoryLocation(t, ir.MemoryLocation{
				Domain: ir.DomainStack,
				Addr:   addressValue.StackOffset() * 8,
				Size:   t.Size(),
			})
		} else {
			a.dataflow.UnsetMemoryLocation(t)
		}

	case *ir.UnaryOperator:
		a.simulateUnaryOperator(t, sctx)

	case *ir.BinaryOperator:
		a.simulateBinaryOperator(t, sctx)

	case *ir.Choice:
		a.Simulate(t.PreferredTerm(), sctx)
		a.Simulate(t.DefaultTerm(), sctx)
		if !a.dataflow.GetDefinitions(t.PreferredTerm()).IsEmpty() {
			a.dataflow.GetValue(t).copyFrom(a.dataflow.GetValue(t.PreferredTerm()))
		} else {
			a.dataflow.GetValue(t).copyFrom(a.dataflow.GetValue(t.DefaultTerm()))
		}

	default:
		log.Warn("Simulation of unsupported term kind", "term", t)
	}

	termLocation, hasLocation := a.dataflow.GetMemoryLocation(t)
	if hasLocation && !a.arch.IsGlobalMemory(termLocation) {
		if t.IsRead() {
			definitions := sctx.definitions.GetDefinitions(termLocation)
			a.dataflow.SetDefinitions(t, definitions)
			a.mergeReachingValues(t, termLocation, &definitions)
		}
		if t.IsWrite() {
			sctx.definitions.AddDefinition(termLocation, t)
		}
		if t.IsKill() {
			sctx.definitions.KillDefinitions(termLocation)
		}
	} else if t.IsRead() {
		// Global memory reads are treated as unknown sources.
		a.dataflow.ClearDefinitions(t)
	}
}

// mergeReachingValues merges into the term's abstract value the values
// of all definitions reaching it, aligning partially overlapping
// locations bit by bit according to the architecture's byte order.
func (a *Analyzer) mergeReachingValues(t ir.Term, termLocation ir.MemoryLocation, definitions *ReachingDefinitions) {
	termValue := a.dataflow.GetValue(t)
	merged := termValue.AbstractValue()

	littleEndian := a.arch.ByteOrder() == arch.LittleEndian

	// When a single definition covers the whole read, its stack-offset
	// and product flags carry over to the read.
	var (
		soleContributor ir.Term
		contributors    int
	)

	for _, def := range definitions.Definitions() {
		definedLocation := def.Location

		def.Definers.Each(func(definition ir.Term) bool {
			definitionLocation, ok := a.dataflow.GetMemoryLocation(definition)
			if !ok || !definitionLocation.Covers(definedLocation) {
				return false
			}

			contributors++
			if definedLocation == termLocation {
				soleContributor = definition
			}

			value := a.dataflow.GetValue(definition).AbstractValue()

			// Shift the definition's value so the bits covering the
			// defined location line up with their position inside the
			// term's location, then project the defined slice out.
			var shift int
			if littleEndian {
				shift = int(definitionLocation.Addr - termLocation.Addr)
			} else {
				shift = int(termLocation.EndAddr() - definitionLocation.EndAddr())
			}
			value = value.Shift(shift)

			mask := bitMask(definedLocation.Size)
			var maskShift int
			if littleEndian {
				maskShift = int(definedLocation.Addr - termLocation.Addr)
			} else {
				maskShift = int(termLocation.EndAddr() - definedLocation.EndAddr())
			}
			mask = shiftMask(mask, maskShift)

			merged = merged.Merge(value.Project(&mask))
			return false
		})
	}

	termValue.SetAbstractValue(merged.Resize(t.Size()))

	if contributors == 1 && soleContributor != nil {
		definitionValue := a.dataflow.GetValue(soleContributor)
		if definitionValue.IsStackOffset() {
			termValue.MakeStackOffset(definitionValue.StackOffset())
		} else if definitionValue.IsNotStackOffset() {
			termValue.MakeNotStackOffset()
		}
		if definitionValue.IsProduct() {
			termValue.MakeProduct()
		} else if definitionValue.IsNotProduct() {
			termValue.MakeNotProduct()
		}
	}
}

func shiftMask(m uint256.Int, n int) uint256.Int {
	if n >= 0 {
		m.Lsh(&m, uint(min(n, MaxBitSize)))
	} else {
		m.Rsh(&m, uint(min(-n, MaxBitSize)))
	}
	return m
}

func (a *Analyzer) simulateUnaryOperator(t *ir.UnaryOperator, sctx *SimulationContext) {
	a.Simulate(t.Operand(), sctx)

	value := a.dataflow.GetValue(t)
	operandValue := a.dataflow.GetValue(t.Operand())

	value.SetAbstractValue(applyUnary(t.OperatorKind(), t.Size(), operandValue.AbstractValue()))

	switch t.OperatorKind() {
	case ir.SIGNEXTEND, ir.ZEROEXTEND, ir.TRUNCATE:
		if operandValue.IsStackOffset() {
			value.MakeStackOffset(operandValue.StackOffset())
		} else if operandValue.IsNotStackOffset() {
			value.MakeNotStackOffset()
		}
		if operandValue.IsProduct() {
			value.MakeProduct()
		} else if operandValue.IsNotProduct() {
			value.MakeNotProduct()
		}
	default:
		value.MakeNotStackOffset()
		value.MakeNotProduct()
	}
}

func (a *Analyzer) simulateBinaryOperator(t *ir.BinaryOperator, sctx *SimulationContext) {
	a.Simulate(t.Left(), sctx)
	a.Simulate(t.Right(), sctx)

	value := a.dataflow.GetValue(t)
	leftValue := a.dataflow.GetValue(t.Left())
	rightValue := a.dataflow.GetValue(t.Right())

	value.SetAbstractValue(applyBinary(t.OperatorKind(), t.Size(),
		leftValue.AbstractValue(), rightValue.AbstractValue()))

	// Compute the stack offset flag.
	switch t.OperatorKind() {
	case ir.ADD:
		if la := leftValue.AbstractValue(); la.IsConcrete() {
			if rightValue.IsStackOffset() {
				value.MakeStackOffset(la.AsConcreteInt64() + rightValue.StackOffset())
			} else if rightValue.IsNotStackOffset() {
				value.MakeNotStackOffset()
			}
		} else if la.IsNondeterministic() {
			value.MakeNotStackOffset()
		}
		if ra := rightValue.AbstractValue(); ra.IsConcrete() {
			if leftValue.IsStackOffset() {
				value.MakeStackOffset(leftValue.StackOffset() + ra.AsConcreteInt64())
			} else if leftValue.IsNotStackOffset() {
				value.MakeNotStackOffset()
			}
		} else if ra.IsNondeterministic() {
			value.MakeNotStackOffset()
		}

	case ir.SUB:
		if ra := rightValue.AbstractValue(); leftValue.IsStackOffset() && ra.IsConcrete() {
			value.MakeStackOffset(leftValue.StackOffset() - ra.AsConcreteInt64())
		} else if leftValue.IsNotStackOffset() || ra.IsNondeterministic() {
			value.MakeNotStackOffset()
		}

	case ir.AND:
		// Sometimes used for getting aligned stack pointer values.
		la, ra := leftValue.AbstractValue(), rightValue.AbstractValue()
		if leftValue.IsStackOffset() && ra.IsConcrete() {
			value.MakeStackOffset(leftValue.StackOffset() & ra.AsConcreteInt64())
		} else if rightValue.IsStackOffset() && la.IsConcrete() {
			value.MakeStackOffset(rightValue.StackOffset() & la.AsConcreteInt64())
		} else if (la.IsNondeterministic() && leftValue.IsNotStackOffset()) ||
			(ra.IsNondeterministic() && rightValue.IsNotStackOffset()) {
			value.MakeNotStackOffset()
		}

	default:
		value.MakeNotStackOffset()
	}

	// Compute the product flag.
	switch t.OperatorKind() {
	case ir.MUL, ir.SHL:
		value.MakeProduct()
	default:
		value.MakeNotProduct()
	}
}
