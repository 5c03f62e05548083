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

// Package liveness defines the oracle the synthesizer asks whether a
// term's value is observable. The analysis computing it lives outside
// this library.
package liveness

import "github.com/revc/revc/core/ir"

// Liveness answers whether a term's value matters for the output.
type Liveness interface {
	IsLive(t ir.Term) bool
}

// Full considers every term live. It is the conservative fallback when
// no liveness analysis ran.
type Full struct{}

func (Full) IsLive(ir.Term) bool { return true }

// Set is a liveness oracle backed by an explicit set of live terms.
type Set map[ir.Term]bool

func (s Set) IsLive(t ir.Term) bool { return s[t] }
