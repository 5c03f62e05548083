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

package cgen

// maxStringLength bounds how far constant-string recovery scans for a
// terminating zero byte.
const maxStringLength = 1024

// Options tune the synthesized output.
type Options struct {
	// PreferConstantsToExpressions replaces a read whose reaching
	// value is concrete by that constant.
	PreferConstantsToExpressions bool

	// PreferCStringsToConstants renders pointer constants addressing
	// zero-terminated ASCII data as string literals.
	PreferCStringsToConstants bool

	// PreferGlobalVariablesToConstants renders pointer constants with
	// a sized pointee as &globalVar.
	PreferGlobalVariablesToConstants bool

	// RegisterVariableNames names local variables after the register
	// they live in instead of the generic "v" prefix.
	RegisterVariableNames bool

	// InlineIntermediates substitutes single-use single-assignment
	// variables by their defining expressions. Known to miscompile
	// some binaries, hence off by default.
	InlineIntermediates bool
}
