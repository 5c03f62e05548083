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

// Package calling connects the core to the calling-convention
// machinery: reconstructed signatures and the hooks binding signature
// slots to IR terms.
package calling

import "github.com/revc/revc/core/ir"

// Signature is a reconstructed function signature. Arguments and the
// return value are represented by IR terms; hooks map them to the
// terms of a concrete call or entry.
type Signature struct {
	name        string
	returnValue ir.Term
	arguments   []ir.Term
	variadic    bool
	comment     string
}

func NewSignature(name string) *Signature { return &Signature{name: name} }

func (s *Signature) Name() string { return s.name }

// ReturnValue returns the term standing for the return value, or nil
// for void functions.
func (s *Signature) ReturnValue() ir.Term { return s.returnValue }

func (s *Signature) SetReturnValue(t ir.Term) { s.returnValue = t }

// Arguments returns the terms standing for the arguments, in order.
func (s *Signature) Arguments() []ir.Term { return s.arguments }

func (s *Signature) AddArgument(t ir.Term) { s.arguments = append(s.arguments, t) }

func (s *Signature) Variadic() bool { return s.variadic }

func (s *Signature) SetVariadic(v bool) { s.variadic = v }

func (s *Signature) Comment() string { return s.comment }

func (s *Signature) SetComment(c string) { s.comment = c }

// Signatures is the oracle handing out reconstructed signatures. Any
// method may return nil.
type Signatures interface {
	// GetFunctionSignature returns the signature of a reconstructed
	// function.
	GetFunctionSignature(fn *ir.Function) *Signature

	// GetCallSignature returns the signature applying at a call site.
	GetCallSignature(call *ir.Call) *Signature

	// GetAddressSignature returns the signature of the function at the
	// given address.
	GetAddressSignature(addr uint64) *Signature
}
