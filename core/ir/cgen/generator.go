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

// Package cgen synthesizes C-like function definitions from analyzed
// IR: it walks the control-flow structuring tree, translates IR
// statements and terms into likec nodes and keeps the number of gotos
// down.
package cgen

import (
	"fmt"

	"github.com/revc/revc/core/arch"
	"github.com/revc/revc/core/image"
	"github.com/revc/revc/core/ir"
	"github.com/revc/revc/core/ir/calling"
	"github.com/revc/revc/core/ir/types"
	"github.com/revc/revc/core/ir/vars"
	"github.com/revc/revc/core/likec"
)

// CodeGenerator holds the program-wide synthesis state shared by the
// per-function definition generators: the oracles, the options and the
// declarations of globals.
type CodeGenerator struct {
	arch       arch.Architecture
	image      *image.Image
	signatures calling.Signatures
	hooks      calling.Hooks
	types      types.Types
	variables  vars.Variables
	options    Options

	globalVariables      map[ir.MemoryLocation]*likec.VariableDeclaration
	functionDeclarations map[*calling.Signature]*likec.FunctionDeclaration
}

// NewCodeGenerator wires a code generator to its collaborators. img
// and hooks may be nil.
func NewCodeGenerator(
	architecture arch.Architecture,
	img *image.Image,
	signatures calling.Signatures,
	hooks calling.Hooks,
	typesOracle types.Types,
	variables vars.Variables,
	options Options,
) *CodeGenerator {
	return &CodeGenerator{
		arch:                 architecture,
		image:                img,
		signatures:           signatures,
		hooks:                hooks,
		types:                typesOracle,
		variables:            variables,
		options:              options,
		globalVariables:      make(map[ir.MemoryLocation]*likec.VariableDeclaration),
		functionDeclarations: make(map[*calling.Signature]*likec.FunctionDeclaration),
	}
}

func (g *CodeGenerator) Options() Options { return g.options }

// MakeType maps a reconstructed type to a likec type.
func (g *CodeGenerator) MakeType(t *types.Type) likec.Type {
	if t == nil {
		return likec.VoidType{}
	}
	if pointee := t.Pointee(); pointee != nil {
		return likec.MakePointerType(t.Size(), g.MakeType(pointee))
	}
	return likec.MakeIntegerType(t.Size(), t.IsUnsigned())
}

// MakeVariableType returns the declared type of a reconstructed
// variable: an unsigned integer spanning its location.
func (g *CodeGenerator) MakeVariableType(v *vars.Variable) likec.Type {
	return likec.MakeIntegerType(v.MemoryLocation().Size, true)
}

// MakeGlobalVariableDeclaration returns the declaration of the global
// variable at the given location, creating it on first use.
func (g *CodeGenerator) MakeGlobalVariableDeclaration(loc ir.MemoryLocation, typ *types.Type) *likec.VariableDeclaration {
	if d := g.globalVariables[loc]; d != nil {
		return d
	}
	var declared likec.Type
	if typ != nil && typ.Pointee() != nil {
		declared = g.MakeType(typ.Pointee())
	} else {
		declared = likec.MakeIntegerType(loc.Size, true)
	}
	d := likec.NewVariableDeclaration(fmt.Sprintf("g_%x", loc.Addr/8), declared)
	g.globalVariables[loc] = d
	return d
}

// MakeGlobalVariableDeclarationFor returns the declaration of a global
// reconstructed variable.
func (g *CodeGenerator) MakeGlobalVariableDeclarationFor(v *vars.Variable) *likec.VariableDeclaration {
	loc := v.MemoryLocation()
	if d := g.globalVariables[loc]; d != nil {
		return d
	}
	d := likec.NewVariableDeclaration(fmt.Sprintf("g_%x", loc.Addr/8), g.MakeVariableType(v))
	g.globalVariables[loc] = d
	return d
}

// MakeFunctionDeclaration returns the declaration corresponding to a
// signature, creating it on first use.
func (g *CodeGenerator) MakeFunctionDeclaration(sig *calling.Signature) *likec.FunctionDeclaration {
	if d := g.functionDeclarations[sig]; d != nil {
		return d
	}
	var returnType likec.Type = likec.VoidType{}
	if ret := sig.ReturnValue(); ret != nil {
		returnType = g.MakeType(g.types.GetType(ret))
	}
	d := likec.NewFunctionDeclaration(sig.Name(), returnType, sig.Variadic())
	for i, argument := range sig.Arguments() {
		d.AddArgument(likec.NewVariableDeclaration(
			fmt.Sprintf("a%d", i+1), g.MakeType(g.types.GetType(argument))))
	}
	g.functionDeclarations[sig] = d
	return d
}
