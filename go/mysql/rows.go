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

import (
	"golang.org/x/text/encoding"
)

// resultState is the per-result decode session. It is built lazily on the
// first fetch and dropped at EOF, on an error packet, or on early release.
type resultState struct {
	fields    []Field
	names     []string
	nameIndex map[string]int
	encodings []encoding.Encoding
	options   *Options

	// rows is the cumulative row count across batches.
	rows uint64
}

func newResultState(r *Result) *resultState {
	rs := &resultState{
		fields:    make([]Field, len(r.fields)),
		names:     dedupeNames(r.fields),
		encodings: make([]encoding.Encoding, len(r.fields)),
		options:   &r.options,
	}
	copy(rs.fields, r.fields)

	for i := range rs.fields {
		f := &rs.fields[i]
		if !f.IsBinary() {
			rs.encodings[i] = encodingForCharset(f.Charset)
		}
		// A converter that is just the registered default for the type is
		// redundant; dropping it keeps the typed path.
		if isDefaultConverter(f.Type, f.Converter) {
			f.Converter = nil
		}
		if f.InvalidValue == nil && r.options.InvalidValues != nil {
			f.InvalidValue = r.options.InvalidValues[f.Type]
		}
	}

	if r.options.ResultsType == ResultsRecords || r.options.ResultsType == ResultsDicts {
		rs.nameIndex = make(map[string]int, len(rs.names))
		for i, name := range rs.names {
			rs.nameIndex[name] = i
		}
	}
	return rs
}

// Fetch reads up to size rows from the connection, size 0 meaning all of
// them. Each returned element is one row in the shape selected by the
// options: []any, map[string]any, or *Record. The batch is a fresh
// container on every call.
//
// When the terminating EOF packet arrives, Fetch records the warning count
// and more-results flag, sets AffectedRows to the total row count, and
// releases the decode session; the rows read so far are returned. An error
// packet surfaces as a *SQLError after the streaming flag is cleared.
func (r *Result) Fetch(size int) ([]any, error) {
	if r.done {
		return nil, nil
	}
	if r.options.Unbuffered && !r.unbufferedActive {
		return nil, nil
	}
	if r.state == nil {
		r.state = newResultState(r)
	}

	var batch []any
	for size == 0 || len(batch) < size {
		data, err := r.conn.ReadPacket()
		if err != nil {
			r.Release()
			r.done = true
			return nil, err
		}
		if len(data) == 0 {
			r.Release()
			r.done = true
			return nil, NewSQLError(CRMalformedPacket, SSUnknownSQLState, "empty row packet")
		}

		if data[0] == ErrPacket {
			r.Release()
			r.done = true
			return nil, ParseErrorPacket(data)
		}

		if isEOFPacket(data) {
			warnings, status, err := parseEOFPacket(data)
			if err != nil {
				return nil, NewSQLError(CRMalformedPacket, SSUnknownSQLState, "%v", err)
			}
			r.Warnings = warnings
			r.HasNext = status&ServerMoreResultsExists != 0
			r.AffectedRows = r.state.rows
			r.done = true
			r.Release()
			break
		}

		row, err := r.state.decodeRow(data)
		if err != nil {
			return nil, err
		}
		r.state.rows++
		batch = append(batch, row)
	}
	return batch, nil
}

// decodeRow materializes one row packet into the session's row shape.
func (rs *resultState) decodeRow(data []byte) (any, error) {
	values := make([]any, len(rs.fields))
	pos := 0
	for i := range rs.fields {
		value, newPos, null, ok := readRowField(data, pos)
		if !ok {
			return nil, NewSQLError(CRMalformedPacket, SSUnknownSQLState,
				"invalid row packet at column %v", i)
		}
		pos = newPos
		if null {
			continue
		}

		v, err := rs.convertCell(i, value)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	switch rs.options.ResultsType {
	case ResultsDicts:
		row := make(map[string]any, len(values))
		for i, name := range rs.names {
			row[name] = values[i]
		}
		return row, nil
	case ResultsRecords:
		return &Record{names: rs.names, index: rs.nameIndex, values: values}, nil
	default:
		return values, nil
	}
}

// convertCell applies the column's converter when one survives session
// construction, otherwise the built-in typed conversion.
func (rs *resultState) convertCell(col int, data []byte) (any, error) {
	f := &rs.fields[col]
	if f.Converter == nil {
		return rs.convertValue(col, data)
	}
	if f.IsBinary() {
		raw := make([]byte, len(data))
		copy(raw, data)
		return f.Converter(raw)
	}
	s, err := rs.decodeText(col, data)
	if err != nil {
		return nil, err
	}
	return f.Converter(s)
}
