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
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/exp/slices"

	"github.com/revc/revc/core/ir"
)

// Definition is a memory location together with the write terms whose
// values may reach it.
type Definition struct {
	Location ir.MemoryLocation
	Definers mapset.Set[ir.Term]
}

// ReachingDefinitions maps memory locations to the unordered sets of
// write terms that may reach a program point. Locations held by
// distinct entries never overlap, except transiently inside the result
// of a Merge at a control-flow join.
type ReachingDefinitions struct {
	definitions []Definition
}

// IsEmpty reports whether no definition reaches.
func (rd ReachingDefinitions) IsEmpty() bool { return len(rd.definitions) == 0 }

// Definitions returns the entries ordered by location.
func (rd ReachingDefinitions) Definitions() []Definition {
	sorted := slices.Clone(rd.definitions)
	slices.SortStableFunc(sorted, func(a, b Definition) int {
		return compareLocations(a.Location, b.Location)
	})
	return sorted
}

func compareLocations(a, b ir.MemoryLocation) int {
	switch {
	case a.Domain != b.Domain:
		return int(a.Domain) - int(b.Domain)
	case a.Addr != b.Addr:
		if a.Addr < b.Addr {
			return -1
		}
		return 1
	default:
		return a.Size - b.Size
	}
}

// AddDefinition records term as the sole definition of loc, killing any
// overlapping definitions first.
func (rd *ReachingDefinitions) AddDefinition(loc ir.MemoryLocation, term ir.Term) {
	rd.KillDefinitions(loc)
	rd.definitions = append(rd.definitions, Definition{
		Location: loc,
		Definers: mapset.NewThreadUnsafeSet(term),
	})
}

// KillDefinitions removes all knowledge about loc: definitions fully
// covered by loc disappear; definitions overlapping it partially are
// narrowed to their surviving slices.
func (rd *ReachingDefinitions) KillDefinitions(loc ir.MemoryLocation) {
	var survivors []Definition
	for _, def := range rd.definitions {
		m := def.Location
		if !m.Overlaps(loc) {
			survivors = append(survivors, def)
			continue
		}
		if m.Addr < loc.Addr {
			left := ir.MemoryLocation{Domain: m.Domain, Addr: m.Addr, Size: int(loc.Addr - m.Addr)}
			survivors = append(survivors, Definition{Location: left, Definers: def.Definers})
		}
		if m.EndAddr() > loc.EndAddr() {
			right := ir.MemoryLocation{Domain: m.Domain, Addr: loc.EndAddr(), Size: int(m.EndAddr() - loc.EndAddr())}
			survivors = append(survivors, Definition{Location: right, Definers: def.Definers.Clone()})
		}
	}
	rd.definitions = survivors
}

// GetDefinitions returns, for each recorded location overlapping loc,
// the part common with loc together with its definers.
func (rd *ReachingDefinitions) GetDefinitions(loc ir.MemoryLocation) ReachingDefinitions {
	var result ReachingDefinitions
	for _, def := range rd.definitions {
		if piece := def.Location.Intersect(loc); piece.IsValid() {
			result.definitions = append(result.definitions, Definition{
				Location: piece,
				Definers: def.Definers.Clone(),
			})
		}
	}
	return result
}

// Merge unions the definitions of that into rd, preserving both
// overlapping and non-overlapping entries. It is the join used at
// control-flow merge points.
func (rd *ReachingDefinitions) Merge(that *ReachingDefinitions) {
	for _, theirs := range that.definitions {
		merged := false
		for _, ours := range rd.definitions {
			if ours.Location == theirs.Location {
				target := ours.Definers
				theirs.Definers.Each(func(t ir.Term) bool {
					target.Add(t)
					return false
				})
				merged = true
				break
			}
		}
		if !merged {
			rd.definitions = append(rd.definitions, Definition{
				Location: theirs.Location,
				Definers: theirs.Definers.Clone(),
			})
		}
	}
}

// Clone returns a deep copy of rd.
func (rd *ReachingDefinitions) Clone() ReachingDefinitions {
	var cp ReachingDefinitions
	cp.definitions = make([]Definition, len(rd.definitions))
	for i, def := range rd.definitions {
		cp.definitions[i] = Definition{Location: def.Location, Definers: def.Definers.Clone()}
	}
	return cp
}

// Equal reports whether rd and that record exactly the same
// definitions.
func (rd *ReachingDefinitions) Equal(that *ReachingDefinitions) bool {
	if len(rd.definitions) != len(that.definitions) {
		return false
	}
	ours, theirs := rd.Definitions(), that.Definitions()
	for i := range ours {
		if ours[i].Location != theirs[i].Location || !ours[i].Definers.Equal(theirs[i].Definers) {
			return false
		}
	}
	return true
}

func (rd *ReachingDefinitions) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, def := range rd.Definitions() {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(def.Location.String())
	}
	sb.WriteByte('}')
	return sb.String()
}
