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

// Package vars defines the variable-identification oracle the
// synthesizer consumes: the partition of terms into reconstructed
// variables.
package vars

import "github.com/revc/revc/core/ir"

// TermAndLocation is one term of a variable together with the memory
// location the term accesses.
type TermAndLocation struct {
	Term     ir.Term
	Location ir.MemoryLocation
}

// Variable is a reconstructed variable: a memory location and the
// terms accessing it.
type Variable struct {
	location          ir.MemoryLocation
	global            bool
	termsAndLocations []TermAndLocation
}

func NewVariable(location ir.MemoryLocation, global bool) *Variable {
	return &Variable{location: location, global: global}
}

func (v *Variable) IsGlobal() bool { return v.global }
func (v *Variable) IsLocal() bool  { return !v.global }

// MemoryLocation returns the variable's full location.
func (v *Variable) MemoryLocation() ir.MemoryLocation { return v.location }

// TermsAndLocations returns every term of the variable with the
// location it accesses.
func (v *Variable) TermsAndLocations() []TermAndLocation { return v.termsAndLocations }

// AddTerm records that the term accesses the given part of the
// variable.
func (v *Variable) AddTerm(t ir.Term, loc ir.MemoryLocation) {
	v.termsAndLocations = append(v.termsAndLocations, TermAndLocation{Term: t, Location: loc})
}

// Variables maps terms to the variables they access.
type Variables interface {
	// GetVariable returns the variable the term belongs to, or nil.
	GetVariable(t ir.Term) *Variable
}

// Map is a Variables oracle backed by an explicit map.
type Map map[ir.Term]*Variable

func (m Map) GetVariable(t ir.Term) *Variable { return m[t] }

// Assign associates the term with the variable and records the term on
// it with the given accessed location.
func (m Map) Assign(t ir.Term, v *Variable, loc ir.MemoryLocation) {
	m[t] = v
	v.AddTerm(t, loc)
}
