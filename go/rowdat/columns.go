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

// Arena owns the variable-length payloads of one column. Cells reference
// their payload by arena index; index 0 is reserved and always empty, so a
// zero value in an index column is a safe null.
type Arena struct {
	data  []byte
	spans []span
}

type span struct {
	off int
	n   int
}

// NewArena returns an arena with the reserved null entry in place.
func NewArena() *Arena {
	return &Arena{spans: make([]span, 1)}
}

// Add copies b into the arena and returns its index.
func (a *Arena) Add(b []byte) int {
	a.spans = append(a.spans, span{off: len(a.data), n: len(b)})
	a.data = append(a.data, b...)
	return len(a.spans) - 1
}

// Bytes returns the payload at index i. Index 0 yields nil.
func (a *Arena) Bytes(i int) []byte {
	s := a.spans[i]
	return a.data[s.off : s.off+s.n]
}

// Count returns the number of entries, including the reserved null entry.
func (a *Arena) Count() int {
	return len(a.spans)
}

// Column is one decoded column. Values is a typed slice whose element type
// matches the column type; for the string family it is []int of arena
// indices into Strings. Mask marks null cells.
type Column struct {
	Name    string
	Values  any
	Mask    []bool
	Strings *Arena
}

// LoadColumns decodes a ROWDAT_1 buffer column-wise. The buffer is walked
// twice: once to count rows and validate alignment, once to fill the typed
// slices. Null integer cells hold zero, null float cells hold NaN, and null
// string cells hold arena index 0; the mask is authoritative either way.
func LoadColumns(columns []ColumnSpec, data []byte) ([]int64, []Column, error) {
	types, err := resolveTypes(columns)
	if err != nil {
		return nil, nil, err
	}

	// First pass: row count and alignment.
	n, err := countRows(types, data)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]int64, 0, n)
	cols := make([]Column, len(types))
	for i, w := range types {
		cols[i] = Column{
			Name:   columns[i].Name,
			Values: makeValues(w, n),
			Mask:   make([]bool, 0, n),
		}
		if w.isString() {
			cols[i].Strings = NewArena()
		}
	}

	// Second pass: fill.
	c := &cursor{data: data}
	for !c.done() {
		id, _ := c.uint64()
		ids = append(ids, int64(id))
		for i := range types {
			nullFlag, _ := c.byte()
			fillValue(c, types[i], &cols[i], nullFlag != 0)
		}
	}
	return ids, cols, nil
}

// countRows validates that data is a whole number of rows and returns how
// many.
func countRows(types []wireType, data []byte) (int, error) {
	n := 0
	c := &cursor{data: data}
	for !c.done() {
		if _, ok := c.uint64(); !ok {
			return 0, ErrMisaligned
		}
		for _, w := range types {
			if _, ok := c.byte(); !ok {
				return 0, ErrMisaligned
			}
			if width := w.fixedWidth(); width > 0 {
				if _, ok := c.bytes(uint64(width)); !ok {
					return 0, ErrMisaligned
				}
				continue
			}
			length, ok := c.uint64()
			if !ok {
				return 0, ErrMisaligned
			}
			if _, ok := c.bytes(length); !ok {
				return 0, ErrMisaligned
			}
		}
		n++
	}
	return n, nil
}

// makeValues allocates the typed value slice for one column.
func makeValues(w wireType, n int) any {
	switch w.typ {
	case mysql.TypeTiny:
		if w.unsigned {
			return make([]uint8, 0, n)
		}
		return make([]int8, 0, n)
	case mysql.TypeShort:
		if w.unsigned {
			return make([]uint16, 0, n)
		}
		return make([]int16, 0, n)
	case mysql.TypeYear:
		return make([]int16, 0, n)
	case mysql.TypeLong, mysql.TypeInt24:
		if w.unsigned {
			return make([]uint32, 0, n)
		}
		return make([]int32, 0, n)
	case mysql.TypeLongLong:
		if w.unsigned {
			return make([]uint64, 0, n)
		}
		return make([]int64, 0, n)
	case mysql.TypeFloat:
		return make([]float32, 0, n)
	case mysql.TypeDouble:
		return make([]float64, 0, n)
	}
	return make([]int, 0, n)
}

// fillValue consumes one value slot and appends it to the column. Bounds
// were already validated by the first pass.
func fillValue(c *cursor, w wireType, col *Column, null bool) {
	col.Mask = append(col.Mask, null)

	switch w.typ {
	case mysql.TypeTiny:
		b, _ := c.byte()
		if null {
			b = 0
		}
		if w.unsigned {
			col.Values = append(col.Values.([]uint8), b)
		} else {
			col.Values = append(col.Values.([]int8), int8(b))
		}

	case mysql.TypeShort:
		v, _ := c.uint16()
		if null {
			v = 0
		}
		if w.unsigned {
			col.Values = append(col.Values.([]uint16), v)
		} else {
			col.Values = append(col.Values.([]int16), int16(v))
		}

	case mysql.TypeYear:
		v, _ := c.uint16()
		if null {
			v = 0
		}
		col.Values = append(col.Values.([]int16), int16(v))

	case mysql.TypeLong, mysql.TypeInt24:
		v, _ := c.uint32()
		if null {
			v = 0
		}
		if w.unsigned {
			col.Values = append(col.Values.([]uint32), v)
		} else {
			col.Values = append(col.Values.([]int32), int32(v))
		}

	case mysql.TypeLongLong:
		v, _ := c.uint64()
		if null {
			v = 0
		}
		if w.unsigned {
			col.Values = append(col.Values.([]uint64), v)
		} else {
			col.Values = append(col.Values.([]int64), int64(v))
		}

	case mysql.TypeFloat:
		v, _ := c.uint32()
		f := math.Float32frombits(v)
		if null {
			f = float32(math.NaN())
		}
		col.Values = append(col.Values.([]float32), f)

	case mysql.TypeDouble:
		v, _ := c.uint64()
		f := math.Float64frombits(v)
		if null {
			f = math.NaN()
		}
		col.Values = append(col.Values.([]float64), f)

	default:
		length, _ := c.uint64()
		b, _ := c.bytes(length)
		idx := 0
		if !null {
			idx = col.Strings.Add(b)
		}
		col.Values = append(col.Values.([]int), idx)
	}
}

// DumpColumns encodes columns back into a ROWDAT_1 buffer. Source element
// types may be wider or narrower than the target; every value is
// range-checked against the target type.
func DumpColumns(returns []ColumnSpec, ids []int64, cols []Column) ([]byte, error) {
	types, err := resolveTypes(returns)
	if err != nil {
		return nil, err
	}
	if len(cols) != len(types) {
		return nil, fmt.Errorf("column count %v does not match output type count %v", len(cols), len(types))
	}
	for i := range cols {
		n, err := columnLen(&cols[i], types[i])
		if err != nil {
			return nil, err
		}
		if n != len(ids) {
			return nil, fmt.Errorf("column %v has %v values, want %v", i, n, len(ids))
		}
		if cols[i].Mask != nil && len(cols[i].Mask) != len(ids) {
			return nil, fmt.Errorf("column %v has %v mask entries, want %v", i, len(cols[i].Mask), len(ids))
		}
	}

	var buf []byte
	for r := range ids {
		buf = appendUint64(buf, uint64(ids[r]))
		for ci := range types {
			w := types[ci]
			col := &cols[ci]
			if col.Mask != nil && col.Mask[r] {
				buf, err = appendValue(buf, w, nil)
			} else {
				var v any
				v, err = columnValue(col, w, r)
				if err != nil {
					return nil, err
				}
				buf, err = appendValue(buf, w, v)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return buf, nil
}

// columnLen returns the number of cells in the column's value slice.
func columnLen(col *Column, w wireType) (int, error) {
	switch v := col.Values.(type) {
	case []bool:
		return len(v), nil
	case []int8:
		return len(v), nil
	case []int16:
		return len(v), nil
	case []int32:
		return len(v), nil
	case []int64:
		return len(v), nil
	case []int:
		return len(v), nil
	case []uint8:
		return len(v), nil
	case []uint16:
		return len(v), nil
	case []uint32:
		return len(v), nil
	case []uint64:
		return len(v), nil
	case []float32:
		return len(v), nil
	case []float64:
		return len(v), nil
	}
	return 0, fmt.Errorf("unsupported source type %T for output type %s", col.Values, w.name())
}

// columnValue extracts cell r as an any for the narrowing writer. String
// columns dereference their arena index.
func columnValue(col *Column, w wireType, r int) (any, error) {
	if w.isString() {
		idx, ok := col.Values.([]int)
		if !ok {
			return nil, fmt.Errorf("unsupported source type %T for output type %s", col.Values, w.name())
		}
		if col.Strings == nil {
			return nil, fmt.Errorf("column %q has no string arena", col.Name)
		}
		return col.Strings.Bytes(idx[r]), nil
	}

	switch v := col.Values.(type) {
	case []bool:
		return v[r], nil
	case []int8:
		return v[r], nil
	case []int16:
		return v[r], nil
	case []int32:
		return v[r], nil
	case []int64:
		return v[r], nil
	case []int:
		return v[r], nil
	case []uint8:
		return v[r], nil
	case []uint16:
		return v[r], nil
	case []uint32:
		return v[r], nil
	case []uint64:
		return v[r], nil
	case []float32:
		return v[r], nil
	case []float64:
		return v[r], nil
	}
	return nil, fmt.Errorf("unsupported source type %T for output type %s", col.Values, w.name())
}
