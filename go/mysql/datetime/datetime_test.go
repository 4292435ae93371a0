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

package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	valid := []struct {
		in   string
		want Date
	}{
		{"2021-03-28", Date{2021, 3, 28}},
		{"0001-01-01", Date{1, 1, 1}},
		{"9999-12-31", Date{9999, 12, 31}},
		{"2020-02-29", Date{2020, 2, 29}},
		// The grammar checks shape, not the calendar.
		{"2021-02-31", Date{2021, 2, 31}},
	}
	for _, tc := range valid {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseDate(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.in, got.String())
		})
	}

	invalid := []string{
		"",
		"2021-3-28",
		"2021-03-2",
		"2021/03/28",
		"2021-13-01",
		"2021-00-15",
		"2021-01-32",
		"2021-01-40",
		"2021-01-00",
		"0000-01-01",
		"0000-00-00", // the zero sentinel is not a parseable date
		"20x1-03-28",
		"2021-03-28 ",
	}
	for _, in := range invalid {
		t.Run(in, func(t *testing.T) {
			_, ok := ParseDate(in)
			assert.False(t, ok)
		})
	}
}

func TestParseDateTime(t *testing.T) {
	valid := []struct {
		in   string
		want DateTime
	}{
		{"2021-03-28 14:05:09", DateTime{Date{2021, 3, 28}, 14, 5, 9, 0}},
		{"2021-03-28T14:05:09", DateTime{Date{2021, 3, 28}, 14, 5, 9, 0}},
		{"2021-03-28 14:05:09.123", DateTime{Date{2021, 3, 28}, 14, 5, 9, 123000}},
		{"2021-03-28 14:05:09.123456", DateTime{Date{2021, 3, 28}, 14, 5, 9, 123456}},
		{"2021-03-28 00:00:00", DateTime{Date{2021, 3, 28}, 0, 0, 0, 0}},
		{"2021-03-28 23:59:59.999999", DateTime{Date{2021, 3, 28}, 23, 59, 59, 999999}},
	}
	for _, tc := range valid {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseDateTime(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	invalid := []string{
		"",
		"2021-03-28",
		"2021-03-28 14:05",
		"2021-03-28 24:05:09",
		"2021-03-28 14:60:09",
		"2021-03-28 14:05:60",
		"2021-03-28_14:05:09",
		"2021-03-28 14:05:09.12",
		"2021-03-28 14:05:09.1234",
		"2021-03-28 14:05:09.12345",
		"2021-03-28 14:05:09.1234567",
		"2021-03-28 14:05:09.12x",
		"2021-00-28 14:05:09",
		"0000-00-00 00:00:00", // zero sentinel, not a parseable datetime
	}
	for _, in := range invalid {
		t.Run(in, func(t *testing.T) {
			_, ok := ParseDateTime(in)
			assert.False(t, ok)
		})
	}
}

func TestParseDateTimeFormat(t *testing.T) {
	dt, ok := ParseDateTime("2021-03-28 14:05:09.123456")
	require.True(t, ok)
	assert.Equal(t, "2021-03-28 14:05:09.123456", dt.String())

	dt, ok = ParseDateTime("2021-03-28T14:05:09")
	require.True(t, ok)
	assert.Equal(t, "2021-03-28 14:05:09", dt.String())
}

func TestIsZeroDateTime(t *testing.T) {
	assert.True(t, IsZeroDate("0000-00-00"))
	assert.False(t, IsZeroDate("0000-00-01"))

	assert.True(t, IsZeroDateTime("0000-00-00 00:00:00"))
	assert.True(t, IsZeroDateTime("0000-00-00T00:00:00"))
	assert.True(t, IsZeroDateTime("0000-00-00 00:00:00.000"))
	assert.True(t, IsZeroDateTime("0000-00-00 00:00:00.000000"))
	assert.False(t, IsZeroDateTime("0000-00-00 00:00:01"))
	assert.False(t, IsZeroDateTime("0000-00-00 00:00:00.001"))
	assert.False(t, IsZeroDateTime("0000-00-00"))
}

func TestParseDuration(t *testing.T) {
	valid := []struct {
		in   string
		want time.Duration
	}{
		{"0:00:00", 0},
		{"8:12:34", 8*time.Hour + 12*time.Minute + 34*time.Second},
		{"12:34:56", 12*time.Hour + 34*time.Minute + 56*time.Second},
		{"838:59:59", 838*time.Hour + 59*time.Minute + 59*time.Second},
		{"-838:59:59", -(838*time.Hour + 59*time.Minute + 59*time.Second)},
		{"1:02:03.500", time.Hour + 2*time.Minute + 3*time.Second + 500*time.Millisecond},
		{"1:02:03.000250", time.Hour + 2*time.Minute + 3*time.Second + 250*time.Microsecond},
		{"-0:00:00.000001", -time.Microsecond},
		{"-12:34:56.789", -(12*time.Hour + 34*time.Minute + 56*time.Second + 789*time.Millisecond)},
	}
	for _, tc := range valid {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseDuration(tc.in)
			require.True(t, ok)
			assert.Equal(t, tc.want, got)
		})
	}

	invalid := []string{
		"",
		"-",
		"12:34",
		"12-34-56",
		"12:60:00",
		"12:00:60",
		"1234:00:00",
		"12:34:56.",
		"12:34:56.12",
		"12:34:56.1234",
		"12:34:56.1234567",
		"12:34:5x",
		"x2:34:56",
		"--12:34:56",
	}
	for _, in := range invalid {
		t.Run(in, func(t *testing.T) {
			_, ok := ParseDuration(in)
			assert.False(t, ok)
		})
	}
}
