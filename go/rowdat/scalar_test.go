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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testColumns covers every supported type family. Negative codes are the
// unsigned integer and binary string variants.
var testColumns = []ColumnSpec{
	{Name: "t", Code: 1},     // TINYINT
	{Name: "ut", Code: -1},   // UNSIGNED TINYINT
	{Name: "s", Code: 2},     // SMALLINT
	{Name: "m", Code: 9},     // MEDIUMINT
	{Name: "i", Code: 3},     // INT
	{Name: "ub", Code: -8},   // UNSIGNED BIGINT
	{Name: "f", Code: 4},     // FLOAT
	{Name: "d", Code: 5},     // DOUBLE
	{Name: "y", Code: 13},    // YEAR
	{Name: "v", Code: 15},    // VARCHAR
	{Name: "bl", Code: -252}, // binary BLOB
}

var testRows = [][]any{
	{
		int64(-128), uint64(255), int64(-32768), int64(8388607),
		int64(-2147483648), uint64(math.MaxUint64), float64(1.5),
		float64(-2.25), int64(2024), "hello", []byte{0x00, 0xff},
	},
	{nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil},
	{
		int64(0), uint64(0), int64(0), int64(0),
		int64(0), uint64(0), float64(0), float64(0),
		int64(0), "", []byte{},
	},
}

func TestScalarRoundTrip(t *testing.T) {
	data, err := Dump(testColumns, []int64{10, 11, 12}, testRows)
	require.NoError(t, err)

	ids, rows, err := Load(testColumns, data)
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, ids)
	require.Len(t, rows, 3)

	if diff := cmp.Diff(testRows[0], rows[0]); diff != "" {
		t.Errorf("row 0 mismatch (-want +got):\n%s", diff)
	}
	for _, v := range rows[1] {
		assert.Nil(t, v)
	}
	if diff := cmp.Diff(testRows[2], rows[2]); diff != "" {
		t.Errorf("row 2 mismatch (-want +got):\n%s", diff)
	}
}

func TestScalarNarrowing(t *testing.T) {
	// Values arrive in whatever width the producer used; they narrow when
	// in range and fail when not.
	columns := []ColumnSpec{{Name: "t", Code: 1}}

	data, err := Dump(columns, []int64{1}, [][]any{{int32(100)}})
	require.NoError(t, err)
	_, rows, err := Load(columns, data)
	require.NoError(t, err)
	assert.Equal(t, int64(100), rows[0][0])

	data, err = Dump(columns, []int64{1}, [][]any{{float64(99.9)}})
	require.NoError(t, err)
	_, rows, err = Load(columns, data)
	require.NoError(t, err)
	assert.Equal(t, int64(99), rows[0][0])

	data, err = Dump(columns, []int64{1}, [][]any{{true}})
	require.NoError(t, err)
	_, rows, err = Load(columns, data)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows[0][0])
}

func TestScalarRangeChecks(t *testing.T) {
	tests := []struct {
		name  string
		code  int
		value any
		want  string
	}{
		{"tiny high", 1, int64(128), "valid range for TINYINT"},
		{"tiny low", 1, int64(-129), "valid range for TINYINT"},
		{"utiny high", -1, int64(256), "valid range for UNSIGNED TINYINT"},
		{"utiny negative", -1, int64(-1), "valid range for UNSIGNED TINYINT"},
		{"smallint high", 2, int64(32768), "valid range for SMALLINT"},
		{"usmallint high", -2, int64(65536), "valid range for UNSIGNED SMALLINT"},
		{"mediumint high", 9, int64(8388608), "valid range for MEDIUMINT"},
		{"umediumint high", -9, int64(16777216), "valid range for UNSIGNED MEDIUMINT"},
		{"int high", 3, int64(1) << 31, "valid range for INT"},
		{"uint high", -3, int64(1) << 32, "valid range for UNSIGNED INT"},
		{"bigint from uint", 8, uint64(math.MaxInt64) + 1, "valid range for BIGINT"},
		{"ubigint negative", -8, int64(-1), "valid range for UNSIGNED BIGINT"},
		{"year below", 13, int64(1900), "valid range for YEAR"},
		{"year above", 13, int64(2156), "valid range for YEAR"},
		{"year three digits", 13, int64(100), "valid range for YEAR"},
		{"nan to int", 3, math.NaN(), "valid range for INT"},
		{"float to tiny", 1, float64(300.5), "valid range for TINYINT"},
		{"huge float to float", 4, float64(math.MaxFloat64), "valid range for FLOAT"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Dump([]ColumnSpec{{Name: "c", Code: tc.code}}, []int64{1}, [][]any{{tc.value}})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	// Boundary values pass.
	for _, ok := range []struct {
		code  int
		value any
	}{
		{1, int64(-128)}, {1, int64(127)}, {-1, int64(255)},
		{2, int64(-32768)}, {-2, int64(65535)},
		{9, int64(-8388608)}, {-9, int64(16777215)},
		{13, int64(0)}, {13, int64(99)}, {13, int64(1901)}, {13, int64(2155)},
		{4, math.NaN()}, {5, math.Inf(1)},
	} {
		_, err := Dump([]ColumnSpec{{Name: "c", Code: ok.code}}, []int64{1}, [][]any{{ok.value}})
		assert.NoError(t, err, "code %v value %v", ok.code, ok.value)
	}
}

func TestScalarUnsupportedTypes(t *testing.T) {
	for _, code := range []int{0, 6, 7, 10, 11, 12, 16, 246, -4, -5} {
		_, err := Dump([]ColumnSpec{{Name: "c", Code: code}}, nil, nil)
		require.Error(t, err, "code %v", code)
		assert.Contains(t, err.Error(), "unsupported data type")

		_, _, err = Load([]ColumnSpec{{Name: "c", Code: code}}, nil)
		require.Error(t, err, "code %v", code)
	}
}

func TestScalarMisaligned(t *testing.T) {
	columns := []ColumnSpec{{Name: "i", Code: 3}, {Name: "v", Code: 15}}
	data, err := Dump(columns, []int64{1}, [][]any{{int64(5), "abc"}})
	require.NoError(t, err)

	// Any truncation point breaks alignment.
	for cut := 1; cut < len(data); cut++ {
		_, _, err := Load(columns, data[:cut])
		assert.ErrorIs(t, err, ErrMisaligned, "cut %v", cut)
	}

	// Trailing garbage does too.
	_, _, err = Load(columns, append(data, 0x00))
	assert.ErrorIs(t, err, ErrMisaligned)

	// A declared string length past the end of the buffer. Byte 14 is the
	// low byte of the string length prefix (8 id + 5 int slot + 1 null).
	bad := append([]byte{}, data...)
	bad[14] = 0xff
	_, _, err = Load(columns, bad)
	assert.ErrorIs(t, err, ErrMisaligned)
}

func TestScalarShapeErrors(t *testing.T) {
	columns := []ColumnSpec{{Name: "i", Code: 3}}

	_, err := Dump(columns, []int64{1, 2}, [][]any{{int64(5)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row id count")

	_, err = Dump(columns, []int64{1}, [][]any{{int64(5), int64(6)}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want 1")

	_, err = Dump(columns, []int64{1}, [][]any{{"not an int"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported source type string")
}

func TestScalarEmpty(t *testing.T) {
	data, err := Dump(testColumns, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, data)

	ids, rows, err := Load(testColumns, nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, rows)
}
