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

// Reader reads byte-level data out of one section.
type Reader struct {
	section *Section
}

func NewReader(section *Section) Reader { return Reader{section: section} }

// ReadBytes reads size bytes starting at addr. It returns nil if any
// byte of the range is outside the section.
func (r Reader) ReadBytes(addr uint64, size int) []byte {
	if size < 0 || !r.section.ContainsAddress(addr) {
		return nil
	}
	offset := addr - r.section.Addr
	if offset+uint64(size) > uint64(len(r.section.Data)) {
		return nil
	}
	return r.section.Data[offset : offset+uint64(size)]
}

// ReadAsciizString reads the zero-terminated string starting at addr.
// It reports failure if the address is outside the section or no
// terminator occurs within maxSize bytes.
func (r Reader) ReadAsciizString(addr uint64, maxSize int) (string, bool) {
	if !r.section.ContainsAddress(addr) {
		return "", false
	}
	offset := addr - r.section.Addr
	limit := uint64(len(r.section.Data))
	if end := offset + uint64(maxSize); maxSize >= 0 && end < limit {
		limit = end
	}
	for i := offset; i < limit; i++ {
		if r.section.Data[i] == 0 {
			return string(r.section.Data[offset:i]), true
		}
	}
	return "", false
}
