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

import "github.com/revc/revc/core/ir"

// SimulationContext carries the state flowing through one basic block
// during simulation: the mutable reaching definitions, the function
// being analyzed and the fixpoint flag. The flag is true only on the
// extra iteration run after the outer fixpoint stabilized, so that
// calling-convention simulators can produce their final refinement.
type SimulationContext struct {
	analyzer        *Analyzer
	definitions     ReachingDefinitions
	function        *ir.Function
	fixpointReached bool
}

func newSimulationContext(a *Analyzer, fn *ir.Function, fixpointReached bool) *SimulationContext {
	return &SimulationContext{analyzer: a, function: fn, fixpointReached: fixpointReached}
}

// Analyzer returns the analyzer driving the simulation. Hooks use it
// to simulate their cloned terms into the context.
func (c *SimulationContext) Analyzer() *Analyzer { return c.analyzer }

// Definitions returns the reaching definitions at the current point.
func (c *SimulationContext) Definitions() *ReachingDefinitions { return &c.definitions }

// Function returns the function being analyzed.
func (c *SimulationContext) Function() *ir.Function { return c.function }

// FixpointReached reports whether the outer iteration has stabilized.
func (c *SimulationContext) FixpointReached() bool { return c.fixpointReached }
