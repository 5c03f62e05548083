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

package likec

// VariableDeclaration declares a local or global variable.
type VariableDeclaration struct {
	Name string
	Type Type
}

func NewVariableDeclaration(name string, typ Type) *VariableDeclaration {
	return &VariableDeclaration{Name: name, Type: typ}
}

// LabelDeclaration declares a goto label.
type LabelDeclaration struct {
	Name string
}

func NewLabelDeclaration(name string) *LabelDeclaration {
	return &LabelDeclaration{Name: name}
}

// FunctionDeclaration declares a function: name, return type and
// argument list.
type FunctionDeclaration struct {
	Name       string
	ReturnType Type
	Arguments  []*VariableDeclaration
	Variadic   bool
}

func NewFunctionDeclaration(name string, returnType Type, variadic bool) *FunctionDeclaration {
	return &FunctionDeclaration{Name: name, ReturnType: returnType, Variadic: variadic}
}

func (d *FunctionDeclaration) AddArgument(a *VariableDeclaration) {
	d.Arguments = append(d.Arguments, a)
}

// FunctionDefinition is a function declaration together with a body
// and the labels used inside it.
type FunctionDefinition struct {
	FunctionDeclaration
	Comment string
	body    *Block
	labels  []*LabelDeclaration
}

func NewFunctionDefinition(name string, returnType Type, variadic bool) *FunctionDefinition {
	return &FunctionDefinition{
		FunctionDeclaration: FunctionDeclaration{Name: name, ReturnType: returnType, Variadic: variadic},
		body:                NewBlock(),
	}
}

// Block returns the function's body block.
func (d *FunctionDefinition) Block() *Block { return d.body }

// Labels returns the labels declared in the function.
func (d *FunctionDefinition) Labels() []*LabelDeclaration { return d.labels }

// AddLabel registers a label with the function.
func (d *FunctionDefinition) AddLabel(l *LabelDeclaration) {
	d.labels = append(d.labels, l)
}
