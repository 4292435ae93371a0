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

// Package datetime validates and parses the temporal literals that appear
// in MySQL text result sets.
//
// The grammar is deliberately strict about shape (fixed field widths and
// separators) but does not validate the calendar: "2021-02-31" passes the
// date grammar and it is up to the caller to reject it when materializing
// a real date. The all-zero literals ("0000-00-00" and friends) are not
// grammar failures; they are a distinct sentinel MySQL uses for "no value".
package datetime

import (
	"fmt"
	"time"
)

// Date is a validated calendar date as written on the wire.
type Date struct {
	Year  int
	Month int
	Day   int
}

// DateTime is a validated date and time-of-day with microsecond precision.
type DateTime struct {
	Date        Date
	Hour        int
	Minute      int
	Second      int
	Microsecond int
}

// String formats the date back into its wire form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// String formats the datetime back into its 19- or 26-byte wire form.
func (dt DateTime) String() string {
	if dt.Microsecond != 0 {
		return fmt.Sprintf("%s %02d:%02d:%02d.%06d", dt.Date, dt.Hour, dt.Minute, dt.Second, dt.Microsecond)
	}
	return fmt.Sprintf("%s %02d:%02d:%02d", dt.Date, dt.Hour, dt.Minute, dt.Second)
}

// Literal sizes for the datetime and duration grammars. The total length
// of a literal alone decides which variant applies.
const (
	dateSize = 10
	timeSize = 8

	datetimeSize      = 19
	datetimeMilliSize = 23
	datetimeMicroSize = 26
)

// IsZeroDate reports whether s is the zero-date sentinel "0000-00-00".
func IsZeroDate(s string) bool {
	return s == "0000-00-00"
}

// IsZeroDateTime reports whether s is a zero-datetime sentinel: an all-zero
// date and time with a correspondingly all-zero fractional part.
func IsZeroDateTime(s string) bool {
	switch len(s) {
	case datetimeSize:
		return s == "0000-00-00 00:00:00" || s == "0000-00-00T00:00:00"
	case datetimeMilliSize:
		return IsZeroDateTime(s[:datetimeSize]) && s[19:] == ".000"
	case datetimeMicroSize:
		return IsZeroDateTime(s[:datetimeSize]) && s[19:] == ".000000"
	}
	return false
}

// ParseDate validates s against the date grammar and extracts its parts.
func ParseDate(s string) (Date, bool) {
	if !checkDate(s) {
		return Date{}, false
	}
	return Date{
		Year:  atoi4(s),
		Month: atoi2(s[5:]),
		Day:   atoi2(s[8:]),
	}, true
}

// ParseDateTime validates s against the datetime grammar (date, ' ' or 'T',
// time-of-day, optional millisecond or microsecond fraction) and extracts
// its parts. Millisecond fractions are scaled to microseconds.
func ParseDateTime(s string) (DateTime, bool) {
	var usec int
	switch len(s) {
	case datetimeSize:
	case datetimeMilliSize:
		if !checkFractionMilli(s[datetimeSize:]) {
			return DateTime{}, false
		}
		usec = atoi3(s[20:]) * 1000
	case datetimeMicroSize:
		if !checkFractionMicro(s[datetimeSize:]) {
			return DateTime{}, false
		}
		usec = atoi6(s[20:])
	default:
		return DateTime{}, false
	}

	if !checkDate(s[:dateSize]) {
		return DateTime{}, false
	}
	if s[10] != ' ' && s[10] != 'T' {
		return DateTime{}, false
	}
	if !checkTime(s[11 : 11+timeSize]) {
		return DateTime{}, false
	}

	return DateTime{
		Date: Date{
			Year:  atoi4(s),
			Month: atoi2(s[5:]),
			Day:   atoi2(s[8:]),
		},
		Hour:        atoi2(s[11:]),
		Minute:      atoi2(s[14:]),
		Second:      atoi2(s[17:]),
		Microsecond: usec,
	}, true
}

// ParseDuration validates s against the signed duration grammar used by the
// TIME type: an optional '-', a 1- to 3-digit hour field, minutes, seconds,
// and an optional fraction. The sign applies to the whole offset.
func ParseDuration(s string) (time.Duration, bool) {
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}

	var hourDigits int
	switch len(s) {
	case 7, 11, 14:
		hourDigits = 1
	case 8, 12, 15:
		hourDigits = 2
	case 9, 13, 16:
		hourDigits = 3
	default:
		return 0, false
	}

	for i := 0; i < hourDigits; i++ {
		if !isDigit(s[i]) {
			return 0, false
		}
	}
	body := s[hourDigits:]
	// ":MM:SS" with minute and second limited to 00-59.
	if len(body) < 6 || body[0] != ':' || body[3] != ':' {
		return 0, false
	}
	if !checkSexagesimal(body[1:3]) || !checkSexagesimal(body[4:6]) {
		return 0, false
	}

	var usec int
	switch rest := body[6:]; len(rest) {
	case 0:
	case 4:
		if !checkFractionMilli(rest) {
			return 0, false
		}
		usec = atoi3(rest[1:]) * 1000
	case 7:
		if !checkFractionMicro(rest) {
			return 0, false
		}
		usec = atoi6(rest[1:])
	default:
		return 0, false
	}

	var hour int
	switch hourDigits {
	case 1:
		hour = int(s[0] - '0')
	case 2:
		hour = atoi2(s)
	case 3:
		hour = atoi3(s)
	}

	seconds := hour*3600 + atoi2(body[1:])*60 + atoi2(body[4:])
	d := time.Duration(seconds)*time.Second + time.Duration(usec)*time.Microsecond
	if neg {
		d = -d
	}
	return d, true
}

// checkDate validates "YYYY-MM-DD". Month and day are matched by their
// leading digit, and the all-zero year, month, or day components are each
// forbidden. The full zero date never reaches this check; see IsZeroDate.
func checkDate(s string) bool {
	if len(s) != dateSize {
		return false
	}
	if !isDigit(s[0]) || !isDigit(s[1]) || !isDigit(s[2]) || !isDigit(s[3]) {
		return false
	}
	if s[4] != '-' || s[7] != '-' {
		return false
	}
	// Month: 01-09 or 10-12.
	monthOK := (s[5] == '0' && s[6] >= '1' && s[6] <= '9') ||
		(s[5] == '1' && s[6] >= '0' && s[6] <= '2')
	if !monthOK {
		return false
	}
	// Day: 00-29 or 30-31 by leading digit.
	dayOK := (s[8] >= '0' && s[8] <= '2' && isDigit(s[9])) ||
		(s[8] == '3' && (s[9] == '0' || s[9] == '1'))
	if !dayOK {
		return false
	}
	if s[0] == '0' && s[1] == '0' && s[2] == '0' && s[3] == '0' {
		return false
	}
	if s[8] == '0' && s[9] == '0' {
		return false
	}
	return true
}

// checkTime validates "HH:MM:SS" with hour 00-23.
func checkTime(s string) bool {
	if len(s) != timeSize {
		return false
	}
	hourOK := (s[0] >= '0' && s[0] <= '1' && isDigit(s[1])) ||
		(s[0] == '2' && s[1] >= '0' && s[1] <= '3')
	if !hourOK {
		return false
	}
	if s[2] != ':' || s[5] != ':' {
		return false
	}
	return checkSexagesimal(s[3:5]) && checkSexagesimal(s[6:8])
}

// checkSexagesimal validates a 2-digit field limited to 00-59.
func checkSexagesimal(s string) bool {
	return s[0] >= '0' && s[0] <= '5' && isDigit(s[1])
}

func checkFractionMilli(s string) bool {
	return len(s) == 4 && s[0] == '.' && isDigit(s[1]) && isDigit(s[2]) && isDigit(s[3])
}

func checkFractionMicro(s string) bool {
	return len(s) == 7 && s[0] == '.' &&
		isDigit(s[1]) && isDigit(s[2]) && isDigit(s[3]) &&
		isDigit(s[4]) && isDigit(s[5]) && isDigit(s[6])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func atoi2(s string) int {
	return int(s[0]-'0')*10 + int(s[1]-'0')
}

func atoi3(s string) int {
	return int(s[0]-'0')*100 + int(s[1]-'0')*10 + int(s[2]-'0')
}

func atoi4(s string) int {
	return atoi2(s)*100 + atoi2(s[2:])
}

func atoi6(s string) int {
	return atoi3(s)*1000 + atoi3(s[3:])
}
