/*
Copyright 2024 The Rowio Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package mysql

// This file contains the low-level encoding helpers for the protocol:
// little-endian integers and length-encoded integers and strings.
// All read helpers take the buffer and a position, and return the value,
// the new position, and whether the read succeeded.

// NullValue is the length-encoded marker for a NULL field in a text row.
const NullValue = 0xfb

func readUint16(data []byte, pos int) (uint16, int, bool) {
	if pos+2 > len(data) {
		return 0, 0, false
	}
	return uint16(data[pos]) |
		uint16(data[pos+1])<<8, pos + 2, true
}

func readUint32(data []byte, pos int) (uint32, int, bool) {
	if pos+4 > len(data) {
		return 0, 0, false
	}
	return uint32(data[pos]) |
		uint32(data[pos+1])<<8 |
		uint32(data[pos+2])<<16 |
		uint32(data[pos+3])<<24, pos + 4, true
}

func readUint64(data []byte, pos int) (uint64, int, bool) {
	if pos+8 > len(data) {
		return 0, 0, false
	}
	return uint64(data[pos]) |
		uint64(data[pos+1])<<8 |
		uint64(data[pos+2])<<16 |
		uint64(data[pos+3])<<24 |
		uint64(data[pos+4])<<32 |
		uint64(data[pos+5])<<40 |
		uint64(data[pos+6])<<48 |
		uint64(data[pos+7])<<56, pos + 8, true
}

// readLenEncInt reads a length-encoded integer. The 0xfb NULL marker is not
// a valid integer here; callers that can see NULL check for it first.
func readLenEncInt(data []byte, pos int) (uint64, int, bool) {
	if pos >= len(data) {
		return 0, 0, false
	}
	switch data[pos] {
	case 0xfc:
		// Two bytes.
		v, p, ok := readUint16(data, pos+1)
		return uint64(v), p, ok
	case 0xfd:
		// Three bytes.
		if pos+4 > len(data) {
			return 0, 0, false
		}
		return uint64(data[pos+1]) |
			uint64(data[pos+2])<<8 |
			uint64(data[pos+3])<<16, pos + 4, true
	case 0xfe:
		// Eight bytes.
		return readUint64(data, pos+1)
	default:
		return uint64(data[pos]), pos + 1, true
	}
}

// readLenEncString reads a length-encoded string and returns it as a
// sub-slice of data. It fails on the NULL marker.
func readLenEncString(data []byte, pos int) ([]byte, int, bool) {
	if pos < len(data) && data[pos] == NullValue {
		return nil, 0, false
	}
	size, pos, ok := readLenEncInt(data, pos)
	if !ok || pos+int(size) > len(data) {
		return nil, 0, false
	}
	return data[pos : pos+int(size)], pos + int(size), true
}

// readRowField reads one field of a text row: either the NULL marker, or a
// length-encoded string whose declared length is clamped to the remaining
// buffer. Servers are not trusted to declare lengths that fit.
func readRowField(data []byte, pos int) (value []byte, newPos int, null bool, ok bool) {
	if pos >= len(data) {
		return nil, 0, false, false
	}
	if data[pos] == NullValue {
		return nil, pos + 1, true, true
	}
	size, pos, ok := readLenEncInt(data, pos)
	if !ok {
		return nil, 0, false, false
	}
	end := pos + int(size)
	if uint64(len(data)-pos) < size {
		end = len(data)
	}
	return data[pos:end], end, false, true
}

func lenEncIntSize(i uint64) int {
	switch {
	case i < 0xfb:
		return 1
	case i < 1<<16:
		return 3
	case i < 1<<24:
		return 4
	default:
		return 9
	}
}

func writeLenEncInt(data []byte, pos int, i uint64) int {
	switch {
	case i < 0xfb:
		data[pos] = byte(i)
		return pos + 1
	case i < 1<<16:
		data[pos] = 0xfc
		data[pos+1] = byte(i)
		data[pos+2] = byte(i >> 8)
		return pos + 3
	case i < 1<<24:
		data[pos] = 0xfd
		data[pos+1] = byte(i)
		data[pos+2] = byte(i >> 8)
		data[pos+3] = byte(i >> 16)
		return pos + 4
	default:
		data[pos] = 0xfe
		data[pos+1] = byte(i)
		data[pos+2] = byte(i >> 8)
		data[pos+3] = byte(i >> 16)
		data[pos+4] = byte(i >> 24)
		data[pos+5] = byte(i >> 32)
		data[pos+6] = byte(i >> 40)
		data[pos+7] = byte(i >> 48)
		data[pos+8] = byte(i >> 56)
		return pos + 9
	}
}

func writeLenEncString(data []byte, pos int, value []byte) int {
	pos = writeLenEncInt(data, pos, uint64(len(value)))
	return pos + copy(data[pos:], value)
}
