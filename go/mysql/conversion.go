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
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding"

	"github.com/datamill-io/rowio/go/hack"
	"github.com/datamill-io/rowio/go/mysql/datetime"
	"github.com/datamill-io/rowio/go/mysql/fastparse"
)

// convertValue materializes one non-NULL text-protocol field into its Go
// value. Malformed temporal values never fail: they fall back to the
// per-column invalid value, or to the raw text when none is set.
func (rs *resultState) convertValue(col int, data []byte) (any, error) {
	f := &rs.fields[col]

	switch f.Type {
	case TypeNull:
		return nil, nil

	case TypeTiny, TypeShort, TypeLong, TypeInt24, TypeLongLong:
		if f.Flags&UnsignedFlag != 0 {
			v, err := fastparse.ParseUint64(hack.String(data))
			if err != nil {
				return nil, err
			}
			return v, nil
		}
		v, err := fastparse.ParseInt64(hack.String(data))
		if err != nil {
			return nil, err
		}
		return v, nil

	case TypeYear:
		v, err := fastparse.ParseInt64(hack.String(data))
		if err != nil {
			return nil, err
		}
		return v, nil

	case TypeFloat, TypeDouble:
		v, err := fastparse.ParseFloat64(hack.String(data))
		if err != nil {
			return nil, err
		}
		return v, nil

	case TypeDecimal, TypeNewDecimal:
		return decimal.NewFromString(hack.String(data))

	case TypeDate, TypeNewDate:
		return rs.convertDate(col, data), nil

	case TypeDatetime, TypeTimestamp:
		return rs.convertDateTime(col, data), nil

	case TypeTime:
		return rs.convertDuration(col, data), nil

	case TypeJSON:
		s, err := rs.decodeText(col, data)
		if err != nil {
			return nil, err
		}
		if !rs.options.ParseJSON {
			return s, nil
		}
		var v any
		if err := gojson.Unmarshal([]byte(s), &v); err != nil {
			return nil, fmt.Errorf("invalid JSON value: %v", err)
		}
		return v, nil

	case TypeVarchar, TypeVarString, TypeString, TypeEnum, TypeSet,
		TypeBlob, TypeTinyBlob, TypeMediumBlob, TypeLongBlob, TypeGeometry:
		if f.IsBinary() {
			out := make([]byte, len(data))
			copy(out, data)
			return out, nil
		}
		return rs.decodeText(col, data)
	}

	return nil, fmt.Errorf("unsupported data type: %v", f.Type)
}

// temporalFallback is what a temporal value that failed to parse becomes.
func (rs *resultState) temporalFallback(col int, data []byte) any {
	if iv := rs.fields[col].InvalidValue; iv != nil {
		return iv
	}
	return string(data)
}

func (rs *resultState) convertDate(col int, data []byte) any {
	// The string view is parse-only; the fallback path copies.
	s := hack.String(data)
	if datetime.IsZeroDate(s) {
		return nil
	}
	d, ok := datetime.ParseDate(s)
	if !ok {
		return rs.temporalFallback(col, data)
	}
	t, ok := calendarDate(d, 0, 0, 0, 0)
	if !ok {
		return rs.temporalFallback(col, data)
	}
	return t
}

func (rs *resultState) convertDateTime(col int, data []byte) any {
	s := hack.String(data)
	if datetime.IsZeroDateTime(s) {
		return nil
	}
	dt, ok := datetime.ParseDateTime(s)
	if !ok {
		return rs.temporalFallback(col, data)
	}
	t, ok := calendarDate(dt.Date, dt.Hour, dt.Minute, dt.Second, dt.Microsecond)
	if !ok {
		return rs.temporalFallback(col, data)
	}
	return t
}

func (rs *resultState) convertDuration(col int, data []byte) any {
	d, ok := datetime.ParseDuration(hack.String(data))
	if !ok {
		return rs.temporalFallback(col, data)
	}
	return d
}

// calendarDate builds a time.Time and verifies the components survived.
// The literal grammar accepts shapes like "2021-02-31" that are not real
// dates; time.Date would silently normalize those, so a round-trip check
// turns them into parse failures instead.
func calendarDate(d datetime.Date, hour, min, sec, usec int) (time.Time, bool) {
	t := time.Date(d.Year, time.Month(d.Month), d.Day, hour, min, sec, usec*1000, time.UTC)
	y, m, day := t.Date()
	if y != d.Year || int(m) != d.Month || day != d.Day {
		return time.Time{}, false
	}
	return t, true
}

// decodeText decodes column bytes into a string using the column charset.
// A nil transcoder means the bytes are already UTF-8.
func (rs *resultState) decodeText(col int, data []byte) (string, error) {
	enc := rs.encodings[col]
	if enc == nil {
		if utf8.Valid(data) {
			return string(data), nil
		}
		if rs.options.EncodingErrors == EncodingReplace {
			return strings.ToValidUTF8(string(data), string(utf8.RuneError)), nil
		}
		return "", fmt.Errorf("invalid UTF-8 in column %q", rs.names[col])
	}
	return decodeWith(enc, data, rs.options.EncodingErrors, rs.names[col])
}

func decodeWith(enc encoding.Encoding, data []byte, mode, name string) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		if mode == EncodingReplace {
			return strings.ToValidUTF8(string(out), string(utf8.RuneError)), nil
		}
		return "", fmt.Errorf("cannot decode column %q: %v", name, err)
	}
	// Legacy charmap decoders report undefined bytes by emitting U+FFFD
	// rather than failing. Surface that under the strict policy.
	if mode != EncodingReplace && strings.ContainsRune(string(out), utf8.RuneError) {
		return "", fmt.Errorf("cannot decode column %q", name)
	}
	return string(out), nil
}
