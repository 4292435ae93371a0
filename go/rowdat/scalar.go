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

package rowdat

import (
	"fmt"
	"math"

	"github.com/datamill-io/rowio/go/mysql"
)

// cursor is a bounds-checked reader over the input buffer. Every accessor
// reports failure instead of reading past the end, and the decode loop
// turns any failure into ErrMisaligned.
type cursor struct {
	data []byte
	pos  int
}

func (c *cursor) done() bool {
	return c.pos >= len(c.data)
}

func (c *cursor) byte() (byte, bool) {
	if c.pos+1 > len(c.data) {
		return 0, false
	}
	b := c.data[c.pos]
	c.pos++
	return b, true
}

func (c *cursor) uint16() (uint16, bool) {
	if c.pos+2 > len(c.data) {
		return 0, false
	}
	v := uint16(c.data[c.pos]) | uint16(c.data[c.pos+1])<<8
	c.pos += 2
	return v, true
}

func (c *cursor) uint32() (uint32, bool) {
	if c.pos+4 > len(c.data) {
		return 0, false
	}
	v := uint32(c.data[c.pos]) |
		uint32(c.data[c.pos+1])<<8 |
		uint32(c.data[c.pos+2])<<16 |
		uint32(c.data[c.pos+3])<<24
	c.pos += 4
	return v, true
}

func (c *cursor) uint64() (uint64, bool) {
	if c.pos+8 > len(c.data) {
		return 0, false
	}
	v := uint64(c.data[c.pos]) |
		uint64(c.data[c.pos+1])<<8 |
		uint64(c.data[c.pos+2])<<16 |
		uint64(c.data[c.pos+3])<<24 |
		uint64(c.data[c.pos+4])<<32 |
		uint64(c.data[c.pos+5])<<40 |
		uint64(c.data[c.pos+6])<<48 |
		uint64(c.data[c.pos+7])<<56
	c.pos += 8
	return v, true
}

func (c *cursor) bytes(n uint64) ([]byte, bool) {
	if n > uint64(len(c.data)-c.pos) {
		return nil, false
	}
	b := c.data[c.pos : c.pos+int(n)]
	c.pos += int(n)
	return b, true
}

// Load decodes a ROWDAT_1 buffer into row ids and rows of Go values. The
// buffer must contain a whole number of rows; anything else fails with
// ErrMisaligned.
func Load(columns []ColumnSpec, data []byte) ([]int64, [][]any, error) {
	types, err := resolveTypes(columns)
	if err != nil {
		return nil, nil, err
	}

	var ids []int64
	var rows [][]any
	c := &cursor{data: data}
	for !c.done() {
		id, ok := c.uint64()
		if !ok {
			return nil, nil, ErrMisaligned
		}

		row := make([]any, len(types))
		for i, w := range types {
			nullFlag, ok := c.byte()
			if !ok {
				return nil, nil, ErrMisaligned
			}
			v, ok := loadValue(c, w)
			if !ok {
				return nil, nil, ErrMisaligned
			}
			// Null cells still carry their value slot; drop its content.
			if nullFlag == 0 {
				row[i] = v
			}
		}

		ids = append(ids, int64(id))
		rows = append(rows, row)
	}
	return ids, rows, nil
}

// loadValue reads one value slot of type w.
func loadValue(c *cursor, w wireType) (any, bool) {
	switch w.typ {
	case mysql.TypeTiny:
		b, ok := c.byte()
		if !ok {
			return nil, false
		}
		if w.unsigned {
			return uint64(b), true
		}
		return int64(int8(b)), true

	case mysql.TypeShort:
		v, ok := c.uint16()
		if !ok {
			return nil, false
		}
		if w.unsigned {
			return uint64(v), true
		}
		return int64(int16(v)), true

	case mysql.TypeYear:
		v, ok := c.uint16()
		return int64(v), ok

	case mysql.TypeLong, mysql.TypeInt24:
		v, ok := c.uint32()
		if !ok {
			return nil, false
		}
		if w.unsigned {
			return uint64(v), true
		}
		return int64(int32(v)), true

	case mysql.TypeLongLong:
		v, ok := c.uint64()
		if !ok {
			return nil, false
		}
		if w.unsigned {
			return v, true
		}
		return int64(v), true

	case mysql.TypeFloat:
		v, ok := c.uint32()
		return float64(math.Float32frombits(v)), ok

	case mysql.TypeDouble:
		v, ok := c.uint64()
		return math.Float64frombits(v), ok
	}

	// String family: 8-byte length prefix plus payload.
	length, ok := c.uint64()
	if !ok {
		return nil, false
	}
	b, ok := c.bytes(length)
	if !ok {
		return nil, false
	}
	if w.binary {
		out := make([]byte, len(b))
		copy(out, b)
		return out, true
	}
	return string(b), true
}

// Dump encodes rows of Go values into a ROWDAT_1 buffer. Integer values are
// range-checked against the target type and never wrapped; nil cells are
// written as null with a zeroed value slot.
func Dump(returns []ColumnSpec, ids []int64, rows [][]any) ([]byte, error) {
	types, err := resolveTypes(returns)
	if err != nil {
		return nil, err
	}
	if len(ids) != len(rows) {
		return nil, fmt.Errorf("row id count %v does not match row count %v", len(ids), len(rows))
	}

	var buf []byte
	for ri, row := range rows {
		if len(row) != len(types) {
			return nil, fmt.Errorf("row %v has %v values, want %v", ri, len(row), len(types))
		}
		buf = appendUint64(buf, uint64(ids[ri]))
		for i, w := range types {
			buf, err = appendValue(buf, w, row[i])
			if err != nil {
				return nil, err
			}
		}
	}
	return buf, nil
}

// appendValue writes one null flag and value slot.
func appendValue(buf []byte, w wireType, v any) ([]byte, error) {
	if v == nil {
		buf = append(buf, 1)
		if width := w.fixedWidth(); width > 0 {
			return append(buf, make([]byte, width)...), nil
		}
		// Null strings still carry a zero length prefix.
		return appendUint64(buf, 0), nil
	}
	buf = append(buf, 0)

	switch w.typ {
	case mysql.TypeTiny, mysql.TypeShort, mysql.TypeLong, mysql.TypeInt24, mysql.TypeLongLong:
		if w.unsigned {
			n, err := w.asUint64(v)
			if err != nil {
				return nil, err
			}
			return appendUintBits(buf, n, w.fixedWidth()), nil
		}
		n, err := w.asInt64(v)
		if err != nil {
			return nil, err
		}
		return appendUintBits(buf, uint64(n), w.fixedWidth()), nil

	case mysql.TypeYear:
		n, err := w.asYear(v)
		if err != nil {
			return nil, err
		}
		return appendUintBits(buf, uint64(n), 2), nil

	case mysql.TypeFloat:
		f, err := w.asFloat64(v)
		if err != nil {
			return nil, err
		}
		return appendUintBits(buf, uint64(math.Float32bits(float32(f))), 4), nil

	case mysql.TypeDouble:
		f, err := w.asFloat64(v)
		if err != nil {
			return nil, err
		}
		return appendUint64(buf, math.Float64bits(f)), nil
	}

	b, err := w.asBytes(v)
	if err != nil {
		return nil, err
	}
	buf = appendUint64(buf, uint64(len(b)))
	return append(buf, b...), nil
}

// appendUintBits writes the low width bytes of v, little-endian.
func appendUintBits(buf []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		buf = append(buf, byte(v>>(8*i)))
	}
	return buf
}

func appendUint64(buf []byte, v uint64) []byte {
	return appendUintBits(buf, v, 8)
}
