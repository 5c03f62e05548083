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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revc/revc/core/ir"
)

func regLoc(addr int64, size int) ir.MemoryLocation {
	return ir.MemoryLocation{Domain: ir.DomainRegister, Addr: addr, Size: size}
}

func writeTerm(loc ir.MemoryLocation) ir.Term {
	return ir.NewMemoryLocationAccess(loc, ir.AccessWrite)
}

func TestAddThenKill(t *testing.T) {
	var rd ReachingDefinitions
	loc := regLoc(0, 64)

	rd.AddDefinition(loc, writeTerm(loc))
	require.False(t, rd.IsEmpty())

	rd.KillDefinitions(loc)
	assert.True(t, rd.GetDefinitions(loc).IsEmpty())
	assert.True(t, rd.IsEmpty())
}

func TestAddReplacesCoveredDefinitions(t *testing.T) {
	var rd ReachingDefinitions
	loc := regLoc(0, 64)

	first, second := writeTerm(loc), writeTerm(loc)
	rd.AddDefinition(loc, first)
	rd.AddDefinition(loc, second)

	defs := rd.GetDefinitions(loc).Definitions()
	require.Len(t, defs, 1)
	assert.True(t, defs[0].Definers.Contains(second))
	assert.False(t, defs[0].Definers.Contains(first))
}

func TestPartialOverlapSplitsSurvivors(t *testing.T) {
	var rd ReachingDefinitions
	full := regLoc(0, 64)
	mid := regLoc(16, 16)

	wide := writeTerm(full)
	narrow := writeTerm(mid)

	rd.AddDefinition(full, wide)
	rd.AddDefinition(mid, narrow)

	defs := rd.GetDefinitions(full).Definitions()
	require.Len(t, defs, 3)

	assert.Equal(t, regLoc(0, 16), defs[0].Location)
	assert.True(t, defs[0].Definers.Contains(wide))

	assert.Equal(t, mid, defs[1].Location)
	assert.True(t, defs[1].Definers.Contains(narrow))

	assert.Equal(t, regLoc(32, 32), defs[2].Location)
	assert.True(t, defs[2].Definers.Contains(wide))
}

func TestGetDefinitionsReturnsIntersections(t *testing.T) {
	var rd ReachingDefinitions
	full := regLoc(0, 64)
	rd.AddDefinition(full, writeTerm(full))

	low := regLoc(0, 8)
	defs := rd.GetDefinitions(low).Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, low, defs[0].Location, "the returned piece must be covered by the queried location")
}

func TestMergeIdempotentAndCommutative(t *testing.T) {
	locA, locB := regLoc(0, 64), regLoc(64, 64)
	a, b := writeTerm(locA), writeTerm(locB)

	var m1 ReachingDefinitions
	m1.AddDefinition(locA, a)

	var m2 ReachingDefinitions
	m2.AddDefinition(locB, b)

	self := m1.Clone()
	self.Merge(&m1)
	assert.True(t, self.Equal(&m1), "merge(m, m) = m")

	ab := m1.Clone()
	ab.Merge(&m2)
	ba := m2.Clone()
	ba.Merge(&m1)
	assert.True(t, ab.Equal(&ba), "merge must be commutative")

	assert.False(t, ab.GetDefinitions(locA).IsEmpty())
	assert.False(t, ab.GetDefinitions(locB).IsEmpty())
}

func TestMergePreservesBothDefiners(t *testing.T) {
	loc := regLoc(0, 64)
	a, b := writeTerm(loc), writeTerm(loc)

	var m1 ReachingDefinitions
	m1.AddDefinition(loc, a)

	var m2 ReachingDefinitions
	m2.AddDefinition(loc, b)

	m1.Merge(&m2)
	defs := m1.GetDefinitions(loc).Definitions()
	require.Len(t, defs, 1)
	assert.True(t, defs[0].Definers.Contains(a))
	assert.True(t, defs[0].Definers.Contains(b))
}

func TestMergeDoesNotAliasSets(t *testing.T) {
	loc := regLoc(0, 64)
	a, b := writeTerm(loc), writeTerm(loc)

	var m1, m2 ReachingDefinitions
	m2.AddDefinition(loc, a)

	m1.Merge(&m2)
	m1.AddDefinition(regLoc(0, 8), b)

	// The donor map must be unaffected by mutations of the receiver.
	defs := m2.GetDefinitions(loc).Definitions()
	require.Len(t, defs, 1)
	assert.Equal(t, loc, defs[0].Location)
}

func TestEquality(t *testing.T) {
	loc := regLoc(0, 64)
	term := writeTerm(loc)

	var m1, m2 ReachingDefinitions
	m1.AddDefinition(loc, term)
	m2.AddDefinition(loc, term)
	assert.True(t, m1.Equal(&m2))

	m2.AddDefinition(regLoc(64, 64), writeTerm(regLoc(64, 64)))
	assert.False(t, m1.Equal(&m2))
}
