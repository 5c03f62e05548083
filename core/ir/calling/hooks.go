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

package calling

import (
	"github.com/revc/revc/core/ir"
	"github.com/revc/revc/core/ir/dflow"
)

// EntryHook binds the arguments of a function's signature to IR terms
// at the function entry and injects their definitions into the
// simulation.
type EntryHook interface {
	dflow.FunctionAnalyzer

	// GetArgumentTerm returns the hook's clone of the given signature
	// argument term.
	GetArgumentTerm(argument ir.Term) ir.Term
}

// CallHook binds the arguments and return value of a call site's
// signature to IR terms and models the call's dataflow effect.
type CallHook interface {
	dflow.CallAnalyzer

	GetArgumentTerm(argument ir.Term) ir.Term
	GetReturnValueTerm(returnValue ir.Term) ir.Term
}

// ReturnHook binds the return value of the function's signature to an
// IR term at a return site.
type ReturnHook interface {
	dflow.ReturnAnalyzer

	GetReturnValueTerm(returnValue ir.Term) ir.Term
}

// Hooks hands out the per-site hooks. Any method may return nil.
type Hooks interface {
	GetEntryHook(fn *ir.Function) EntryHook
	GetCallHook(call *ir.Call) CallHook
	GetReturnHook(ret *ir.Return) ReturnHook
}

// CallsData adapts Hooks to the analyzer and records what the analyzer
// learns about call targets.
type CallsData struct {
	hooks           Hooks
	calledAddresses map[*ir.Call]uint64
}

func NewCallsData(hooks Hooks) *CallsData {
	return &CallsData{hooks: hooks, calledAddresses: make(map[*ir.Call]uint64)}
}

func (c *CallsData) GetFunctionAnalyzer(fn *ir.Function) dflow.FunctionAnalyzer {
	if c.hooks == nil {
		return nil
	}
	if h := c.hooks.GetEntryHook(fn); h != nil {
		return h
	}
	return nil
}

func (c *CallsData) GetCallAnalyzer(call *ir.Call) dflow.CallAnalyzer {
	if c.hooks == nil {
		return nil
	}
	if h := c.hooks.GetCallHook(call); h != nil {
		return h
	}
	return nil
}

func (c *CallsData) GetReturnAnalyzer(fn *ir.Function, ret *ir.Return) dflow.ReturnAnalyzer {
	if c.hooks == nil {
		return nil
	}
	if h := c.hooks.GetReturnHook(ret); h != nil {
		return h
	}
	return nil
}

// SetCalledAddress records the concrete target address of a call.
func (c *CallsData) SetCalledAddress(call *ir.Call, addr uint64) {
	c.calledAddresses[call] = addr
}

// CalledAddress returns the recorded concrete target of a call.
func (c *CallsData) CalledAddress(call *ir.Call) (uint64, bool) {
	addr, ok := c.calledAddresses[call]
	return addr, ok
}

// ForEachTerm exposes the hook-cloned terms to the analyzer's def-use
// rebuilding when the hooks provider enumerates them.
func (c *CallsData) ForEachTerm(fn func(ir.Term)) {
	if enum, ok := c.hooks.(dflow.TermEnumerator); ok {
		enum.ForEachTerm(fn)
	}
}

var _ dflow.CallsData = (*CallsData)(nil)

// StackEntryHook is a small calling-convention model: at function
// entry it defines the stack pointer register as stack offset zero and
// injects definitions for the signature's argument terms. It covers
// the needs of tests and the demo driver; real convention models live
// with the host.
type StackEntryHook struct {
	sp        ir.MemoryLocation
	spTerm    *ir.MemoryLocationAccess
	arguments map[ir.Term]ir.Term
}

func NewStackEntryHook(sp ir.MemoryLocation) *StackEntryHook {
	return &StackEntryHook{
		sp:        sp,
		spTerm:    ir.NewMemoryLocationAccess(sp, ir.AccessWrite),
		arguments: make(map[ir.Term]ir.Term),
	}
}

// BindArgument clones the signature argument into a term of this
// entry.
func (h *StackEntryHook) BindArgument(argument ir.Term, clone ir.Term) {
	h.arguments[argument] = clone
}

func (h *StackEntryHook) GetArgumentTerm(argument ir.Term) ir.Term {
	return h.arguments[argument]
}

func (h *StackEntryHook) SimulateEnter(ctx *dflow.SimulationContext) {
	a := ctx.Analyzer()

	a.Simulate(h.spTerm, ctx)
	value := a.Dataflow().GetValue(h.spTerm)
	value.SetAbstractValue(dflow.Top(h.sp.Size))
	value.MakeStackOffset(0)

	for _, clone := range h.arguments {
		a.Simulate(clone, ctx)
	}
}

func (h *StackEntryHook) ForEachTerm(fn func(ir.Term)) {
	fn(h.spTerm)
	for _, clone := range h.arguments {
		fn(clone)
	}
}

var _ EntryHook = (*StackEntryHook)(nil)
