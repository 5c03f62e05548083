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

// Package image gives the synthesizer read access to the sections of
// the executable being decompiled. Loading images is the host's job;
// the core only ever reads bytes out of them.
package image

// Section is a named range of the address space, optionally backed by
// bytes from the executable.
type Section struct {
	Name      string
	Addr      uint64
	Data      []byte
	Allocated bool
}

// IsAllocated reports whether the section occupies memory at runtime.
func (s *Section) IsAllocated() bool { return s.Allocated }

// ContainsAddress reports whether addr falls inside the section.
func (s *Section) ContainsAddress(addr uint64) bool {
	return addr >= s.Addr && addr < s.Addr+uint64(len(s.Data))
}

// Image is the collection of sections of one executable.
type Image struct {
	sections []*Section
}

func NewImage(sections ...*Section) *Image {
	return &Image{sections: sections}
}

// Sections returns all sections of the image.
func (img *Image) Sections() []*Section { return img.sections }

// AddSection appends a section to the image.
func (img *Image) AddSection(s *Section) { img.sections = append(img.sections, s) }
