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

package image

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadAsciizString(t *testing.T) {
	section := &Section{
		Name:      ".rodata",
		Addr:      0x1000,
		Data:      []byte("Hello\x00World"),
		Allocated: true,
	}
	r := NewReader(section)

	s, ok := r.ReadAsciizString(0x1000, 1024)
	assert.True(t, ok)
	assert.Equal(t, "Hello", s)

	s, ok = r.ReadAsciizString(0x1002, 1024)
	assert.True(t, ok)
	assert.Equal(t, "llo", s)

	// No terminator within the limit.
	_, ok = r.ReadAsciizString(0x1006, 3)
	assert.False(t, ok)

	// No terminator before the end of the section.
	_, ok = r.ReadAsciizString(0x1006, 1024)
	assert.False(t, ok)

	// Outside the section.
	_, ok = r.ReadAsciizString(0x2000, 1024)
	assert.False(t, ok)
}

func TestReadBytes(t *testing.T) {
	section := &Section{Addr: 0x100, Data: []byte{1, 2, 3, 4}}
	r := NewReader(section)

	assert.Equal(t, []byte{2, 3}, r.ReadBytes(0x101, 2))
	assert.Nil(t, r.ReadBytes(0x103, 2), "reads must not run past the section")
	assert.Nil(t, r.ReadBytes(0x99, 1))
}

func TestSectionContainsAddress(t *testing.T) {
	section := &Section{Addr: 0x100, Data: make([]byte, 16), Allocated: true}

	assert.True(t, section.ContainsAddress(0x100))
	assert.True(t, section.ContainsAddress(0x10f))
	assert.False(t, section.ContainsAddress(0x110))
	assert.False(t, section.ContainsAddress(0xff))
	assert.True(t, section.IsAllocated())
}
