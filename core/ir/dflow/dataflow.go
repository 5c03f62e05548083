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
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/revc/revc/core/ir"
)

// Dataflow holds the analysis results for one function: per-term
// values, memory locations, reaching definitions of reads and the
// def-use chains. The tables reference IR nodes but do not own them.
type Dataflow struct {
	values          map[ir.Term]*Value
	memoryLocations map[ir.Term]ir.MemoryLocation
	definitions     map[ir.Term]*ReachingDefinitions
	uses            map[ir.Term]mapset.Set[ir.Term]
}

func NewDataflow() *Dataflow {
	return &Dataflow{
		values:          make(map[ir.Term]*Value),
		memoryLocations: make(map[ir.Term]ir.MemoryLocation),
		definitions:     make(map[ir.Term]*ReachingDefinitions),
		uses:            make(map[ir.Term]mapset.Set[ir.Term]),
	}
}

// GetValue returns the value computed for the term, creating an
// all-unknown record on first access.
func (d *Dataflow) GetValue(t ir.Term) *Value {
	v := d.values[t]
	if v == nil {
		v = NewValue()
		d.values[t] = v
	}
	return v
}

// SetMemoryLocation records where the term's access resolves.
func (d *Dataflow) SetMemoryLocation(t ir.Term, loc ir.MemoryLocation) {
	d.memoryLocations[t] = loc
}

// UnsetMemoryLocation forgets the term's location.
func (d *Dataflow) UnsetMemoryLocation(t ir.Term) {
	delete(d.memoryLocations, t)
}

// GetMemoryLocation returns the location the term's access resolves
// to, if known.
func (d *Dataflow) GetMemoryLocation(t ir.Term) (ir.MemoryLocation, bool) {
	loc, ok := d.memoryLocations[t]
	return loc, ok
}

// SetDefinitions records the definitions reaching the read term.
func (d *Dataflow) SetDefinitions(t ir.Term, defs ReachingDefinitions) {
	d.definitions[t] = &defs
}

// ClearDefinitions forgets the definitions reaching the read term.
func (d *Dataflow) ClearDefinitions(t ir.Term) {
	delete(d.definitions, t)
}

// GetDefinitions returns the definitions reaching the read term. The
// result is never nil.
func (d *Dataflow) GetDefinitions(t ir.Term) *ReachingDefinitions {
	if defs := d.definitions[t]; defs != nil {
		return defs
	}
	return &ReachingDefinitions{}
}

// ClearUses forgets the uses of the write term.
func (d *Dataflow) ClearUses(t ir.Term) {
	delete(d.uses, t)
}

// AddUse records that the read term uses the value written by the
// definition term.
func (d *Dataflow) AddUse(definition, use ir.Term) {
	set := d.uses[definition]
	if set == nil {
		set = mapset.NewThreadUnsafeSet[ir.Term]()
		d.uses[definition] = set
	}
	set.Add(use)
}

// GetUses returns the read terms using the value written by the
// definition term. The result may be nil.
func (d *Dataflow) GetUses(definition ir.Term) mapset.Set[ir.Term] {
	return d.uses[definition]
}
