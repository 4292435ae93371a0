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

// Package fastparse provides best-effort parsing of numeric text the way
// MySQL servers format it. All parsers consume the longest valid numeric
// prefix and ignore anything after it, matching strtoll/strtoull/strtod.
package fastparse

import (
	"errors"
	"math"
	"strconv"
)

// ErrOverflow is wrapped into errors returned when a value does not fit
// in the target type. The best-effort saturated value is still returned.
var ErrOverflow = errors.New("overflow")

// ParseInt64 parses a base-10 int64 from the longest numeric prefix of s.
// Leading spaces and an optional sign are accepted. On overflow the value
// saturates at math.MaxInt64/math.MinInt64.
func ParseInt64(s string) (int64, error) {
	i := skipSpace(s, 0)
	if i >= len(s) {
		return 0, errors.New("cannot parse int64 from empty string")
	}

	minus := s[i] == '-'
	if minus || s[i] == '+' {
		i++
	}

	d := uint64(0)
	j := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		v := d*10 + uint64(s[i]-'0')
		if v < d {
			if minus {
				return math.MinInt64, overflowErr("int64", s)
			}
			return math.MaxInt64, overflowErr("int64", s)
		}
		d = v
		i++
	}
	if i == j {
		return 0, errors.New("cannot parse int64 from " + strconv.Quote(s))
	}

	if minus {
		if d > math.MaxInt64+1 {
			return math.MinInt64, overflowErr("int64", s)
		}
		if d == math.MaxInt64+1 {
			return math.MinInt64, nil
		}
		return -int64(d), nil
	}
	if d > math.MaxInt64 {
		return math.MaxInt64, overflowErr("int64", s)
	}
	return int64(d), nil
}

// ParseUint64 parses a base-10 uint64 from the longest numeric prefix of s.
// On overflow the value saturates at math.MaxUint64.
func ParseUint64(s string) (uint64, error) {
	i := skipSpace(s, 0)
	if i >= len(s) {
		return 0, errors.New("cannot parse uint64 from empty string")
	}
	if s[i] == '+' {
		i++
	}

	d := uint64(0)
	j := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		v := d*10 + uint64(s[i]-'0')
		if v < d {
			return math.MaxUint64, overflowErr("uint64", s)
		}
		d = v
		i++
	}
	if i == j {
		return 0, errors.New("cannot parse uint64 from " + strconv.Quote(s))
	}
	return d, nil
}

// ParseFloat64 parses a float64 from the longest valid floating-point
// prefix of s. Out-of-range values saturate at +/-math.MaxFloat64.
func ParseFloat64(s string) (float64, error) {
	i := skipSpace(s, 0)
	end := floatPrefixLen(s[i:])
	if end == 0 {
		return 0, errors.New("cannot parse float64 from " + strconv.Quote(s))
	}
	val, err := strconv.ParseFloat(s[i:i+end], 64)
	if errors.Is(err, strconv.ErrRange) {
		if val < 0 {
			return -math.MaxFloat64, overflowErr("float64", s)
		}
		return math.MaxFloat64, overflowErr("float64", s)
	}
	return val, err
}

// floatPrefixLen returns the length of the longest prefix of s that
// strconv.ParseFloat accepts: [sign] digits [. digits] [eE [sign] digits].
func floatPrefixLen(s string) int {
	i := 0
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}

	mantissa := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		mantissa++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			mantissa++
		}
	}
	if mantissa == 0 {
		return 0
	}

	// Exponent is only part of the prefix when at least one digit follows.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '-' || s[j] == '+') {
			j++
		}
		exp := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i
}

func overflowErr(kind, s string) error {
	return &overflowError{kind: kind, input: s}
}

type overflowError struct {
	kind  string
	input string
}

func (e *overflowError) Error() string {
	return "cannot parse " + e.kind + " from " + strconv.Quote(e.input) + ": overflow"
}

func (e *overflowError) Unwrap() error {
	return ErrOverflow
}
