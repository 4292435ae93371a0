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

// Result is one result set being read off a connection. The embedding
// client creates it after it has read the column definitions; Fetch then
// consumes row packets until the terminating EOF or error packet.
type Result struct {
	conn    *Conn
	fields  []Field
	options Options

	// Warnings is the warning count from the EOF packet, available once
	// the result set has been fully read.
	Warnings uint16

	// HasNext is set when the EOF packet announced another result set in
	// the same response.
	HasNext bool

	// AffectedRows is the number of rows the result set produced, set at
	// EOF.
	AffectedRows uint64

	// unbufferedActive is set while this result is the streaming result
	// of its connection. An error packet or EOF clears it.
	unbufferedActive bool

	// done is set once the terminating packet has been consumed.
	done bool

	state *resultState
}

// NewResult prepares a result set for fetching. fields are the column
// definitions in result-set order.
func NewResult(conn *Conn, fields []Field, options Options) *Result {
	return &Result{
		conn:             conn,
		fields:           fields,
		options:          options,
		unbufferedActive: options.Unbuffered,
	}
}

// Fields returns the column definitions of the result set.
func (r *Result) Fields() []Field {
	return r.fields
}

// Release drops the decode session early, before EOF was reached. The
// connection is left mid-result and the caller is expected to drain or
// close it.
func (r *Result) Release() {
	r.state = nil
	r.unbufferedActive = false
}

// Record is a row materialized with ResultsRecords. All records of one
// result set share a single name table.
type Record struct {
	names  []string
	index  map[string]int
	values []any
}

// Names returns the shared column name table.
func (r *Record) Names() []string {
	return r.names
}

// Values returns the row values in column order.
func (r *Record) Values() []any {
	return r.values
}

// Get returns the value of the named column.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}
