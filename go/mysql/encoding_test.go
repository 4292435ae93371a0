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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenEncIntRoundTrip(t *testing.T) {
	values := []uint64{
		0, 1, 250,
		251, 252, 1 << 15, 1<<16 - 1,
		1 << 16, 1 << 20, 1<<24 - 1,
		1 << 24, 1 << 32, 1<<64 - 1,
	}
	for _, v := range values {
		data := make([]byte, lenEncIntSize(v))
		pos := writeLenEncInt(data, 0, v)
		assert.Equal(t, len(data), pos)

		got, newPos, ok := readLenEncInt(data, 0)
		require.True(t, ok, "value %v", v)
		assert.Equal(t, v, got)
		assert.Equal(t, pos, newPos)
	}
}

func TestLenEncIntTruncated(t *testing.T) {
	// Declared widths with too few bytes behind them.
	for _, data := range [][]byte{
		{},
		{0xfc},
		{0xfc, 1},
		{0xfd, 1, 2},
		{0xfe, 1, 2, 3, 4, 5, 6, 7},
	} {
		_, _, ok := readLenEncInt(data, 0)
		assert.False(t, ok, "%v", data)
	}
}

func TestLenEncString(t *testing.T) {
	data := make([]byte, 1+5)
	pos := writeLenEncString(data, 0, []byte("hello"))
	assert.Equal(t, 6, pos)

	s, newPos, ok := readLenEncString(data, 0)
	require.True(t, ok)
	assert.Equal(t, "hello", string(s))
	assert.Equal(t, 6, newPos)

	// NULL marker is not a string.
	_, _, ok = readLenEncString([]byte{NullValue}, 0)
	assert.False(t, ok)

	// Length runs past the buffer.
	_, _, ok = readLenEncString([]byte{5, 'h', 'i'}, 0)
	assert.False(t, ok)
}

func TestReadRowField(t *testing.T) {
	// Regular value.
	value, pos, null, ok := readRowField([]byte{3, 'a', 'b', 'c', 1, 'd'}, 0)
	require.True(t, ok)
	assert.False(t, null)
	assert.Equal(t, "abc", string(value))
	assert.Equal(t, 4, pos)

	// NULL.
	value, pos, null, ok = readRowField([]byte{NullValue, 1, 'd'}, 0)
	require.True(t, ok)
	assert.True(t, null)
	assert.Nil(t, value)
	assert.Equal(t, 1, pos)

	// A declared length past the end of the buffer is clamped, not an
	// error.
	value, pos, null, ok = readRowField([]byte{10, 'a', 'b'}, 0)
	require.True(t, ok)
	assert.False(t, null)
	assert.Equal(t, "ab", string(value))
	assert.Equal(t, 3, pos)

	// Reading past the end fails.
	_, _, _, ok = readRowField([]byte{1, 'a'}, 2)
	assert.False(t, ok)
}
