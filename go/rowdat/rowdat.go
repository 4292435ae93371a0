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

// Package rowdat implements the ROWDAT_1 binary interchange format: rows of
// typed values framed as a row id, per-cell null flags, and little-endian
// fixed-width or length-prefixed payloads.
//
// Column types are given as signed MySQL type codes; a negative code selects
// the unsigned variant of an integer type or the binary variant of a string
// type. Internally the sign is folded into an explicit discriminant right at
// the call boundary.
package rowdat

import (
	"errors"
	"fmt"
	"math"

	"github.com/datamill-io/rowio/go/mysql"
)

// ColumnSpec names one column and its signed type code.
type ColumnSpec struct {
	Name string
	Code int
}

// ErrMisaligned is returned when a buffer does not decode to a whole number
// of rows.
var ErrMisaligned = errors.New("data length does not align with specified column values")

// wireType is the decoded form of a signed type code.
type wireType struct {
	typ      mysql.Type
	unsigned bool
	binary   bool
}

// name returns the SQL name used in error messages.
func (w wireType) name() string {
	if w.unsigned {
		return "UNSIGNED " + w.typ.String()
	}
	return w.typ.String()
}

// fixedWidth returns the on-wire width of the type's value slot, or 0 for
// the length-prefixed string family.
func (w wireType) fixedWidth() int {
	switch w.typ {
	case mysql.TypeTiny:
		return 1
	case mysql.TypeShort, mysql.TypeYear:
		return 2
	case mysql.TypeLong, mysql.TypeInt24:
		return 4
	case mysql.TypeLongLong:
		return 8
	case mysql.TypeFloat:
		return 4
	case mysql.TypeDouble:
		return 8
	}
	return 0
}

func (w wireType) isString() bool {
	switch w.typ {
	case mysql.TypeVarchar, mysql.TypeVarString, mysql.TypeString,
		mysql.TypeEnum, mysql.TypeSet, mysql.TypeJSON, mysql.TypeGeometry,
		mysql.TypeBlob, mysql.TypeTinyBlob, mysql.TypeMediumBlob, mysql.TypeLongBlob:
		return true
	}
	return false
}

// resolveTypes folds the signed codes of the column specs into explicit
// discriminants and rejects types the format does not carry.
func resolveTypes(columns []ColumnSpec) ([]wireType, error) {
	types := make([]wireType, len(columns))
	for i, col := range columns {
		code := col.Code
		negated := false
		if code < 0 {
			code = -code
			negated = true
		}

		w := wireType{typ: mysql.Type(code)}
		switch w.typ {
		case mysql.TypeTiny, mysql.TypeShort, mysql.TypeLong, mysql.TypeInt24,
			mysql.TypeLongLong, mysql.TypeYear:
			w.unsigned = negated
		case mysql.TypeFloat, mysql.TypeDouble:
			if negated {
				return nil, fmt.Errorf("unsupported data type: %v", col.Code)
			}
		default:
			if !w.isString() {
				return nil, fmt.Errorf("unsupported data type: %v", col.Code)
			}
			w.binary = negated
		}
		types[i] = w
	}
	return types, nil
}

// Integer bounds per type, signed and unsigned.
func (w wireType) intBounds() (min int64, max int64, umax uint64) {
	switch w.typ {
	case mysql.TypeTiny:
		return math.MinInt8, math.MaxInt8, math.MaxUint8
	case mysql.TypeShort:
		return math.MinInt16, math.MaxInt16, math.MaxUint16
	case mysql.TypeInt24:
		return -1 << 23, 1<<23 - 1, 1<<24 - 1
	case mysql.TypeLong:
		return math.MinInt32, math.MaxInt32, math.MaxUint32
	case mysql.TypeLongLong, mysql.TypeYear:
		// YEAR gets its domain check separately; see asYear.
		return math.MinInt64, math.MaxInt64, math.MaxUint64
	}
	return 0, 0, 0
}

func (w wireType) rangeError() error {
	return fmt.Errorf("value is outside the valid range for %s", w.name())
}

// checkSigned validates v against the signed bounds of the target.
func (w wireType) checkSigned(v int64) error {
	min, max, _ := w.intBounds()
	if v < min || v > max {
		return w.rangeError()
	}
	return nil
}

// checkUnsigned validates v against the unsigned bounds of the target.
func (w wireType) checkUnsigned(v uint64) error {
	_, _, umax := w.intBounds()
	if v > umax {
		return w.rangeError()
	}
	return nil
}

// checkYear validates the YEAR domain: two-digit years or 1901-2155.
func checkYear(v int64) bool {
	return (v >= 0 && v <= 99) || (v >= 1901 && v <= 2155)
}

// asInt64 narrows an arbitrary source value into the signed integer domain
// of the target type. Floats are range-checked before truncation; NaN never
// converts.
func (w wireType) asInt64(v any) (int64, error) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case int8:
		return w.signed(int64(n))
	case int16:
		return w.signed(int64(n))
	case int32:
		return w.signed(int64(n))
	case int:
		return w.signed(int64(n))
	case int64:
		return w.signed(n)
	case uint8:
		return w.signedFromUint(uint64(n))
	case uint16:
		return w.signedFromUint(uint64(n))
	case uint32:
		return w.signedFromUint(uint64(n))
	case uint:
		return w.signedFromUint(uint64(n))
	case uint64:
		return w.signedFromUint(n)
	case float32:
		return w.signedFromFloat(float64(n))
	case float64:
		return w.signedFromFloat(n)
	}
	return 0, fmt.Errorf("unsupported source type %T for output type %s", v, w.name())
}

func (w wireType) signed(v int64) (int64, error) {
	if err := w.checkSigned(v); err != nil {
		return 0, err
	}
	return v, nil
}

func (w wireType) signedFromUint(v uint64) (int64, error) {
	if v > math.MaxInt64 {
		return 0, w.rangeError()
	}
	return w.signed(int64(v))
}

func (w wireType) signedFromFloat(v float64) (int64, error) {
	min, max, _ := w.intBounds()
	if math.IsNaN(v) || v < float64(min) || v > float64(max) {
		return 0, w.rangeError()
	}
	return int64(v), nil
}

// asUint64 narrows an arbitrary source value into the unsigned integer
// domain of the target type.
func (w wireType) asUint64(v any) (uint64, error) {
	switch n := v.(type) {
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case int8:
		return w.unsignedFromInt(int64(n))
	case int16:
		return w.unsignedFromInt(int64(n))
	case int32:
		return w.unsignedFromInt(int64(n))
	case int:
		return w.unsignedFromInt(int64(n))
	case int64:
		return w.unsignedFromInt(n)
	case uint8:
		return w.unsignedV(uint64(n))
	case uint16:
		return w.unsignedV(uint64(n))
	case uint32:
		return w.unsignedV(uint64(n))
	case uint:
		return w.unsignedV(uint64(n))
	case uint64:
		return w.unsignedV(n)
	case float32:
		return w.unsignedFromFloat(float64(n))
	case float64:
		return w.unsignedFromFloat(n)
	}
	return 0, fmt.Errorf("unsupported source type %T for output type %s", v, w.name())
}

func (w wireType) unsignedV(v uint64) (uint64, error) {
	if err := w.checkUnsigned(v); err != nil {
		return 0, err
	}
	return v, nil
}

func (w wireType) unsignedFromInt(v int64) (uint64, error) {
	if v < 0 {
		return 0, w.rangeError()
	}
	return w.unsignedV(uint64(v))
}

func (w wireType) unsignedFromFloat(v float64) (uint64, error) {
	_, _, umax := w.intBounds()
	if math.IsNaN(v) || v < 0 || v > float64(umax) {
		return 0, w.rangeError()
	}
	return uint64(v), nil
}

// asFloat64 widens an arbitrary numeric source to float64. For a FLOAT
// target, finite values outside the float32 range are rejected rather than
// rounded to infinity.
func (w wireType) asFloat64(v any) (float64, error) {
	var f float64
	switch n := v.(type) {
	case bool:
		if n {
			f = 1
		}
	case int8:
		f = float64(n)
	case int16:
		f = float64(n)
	case int32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint8:
		f = float64(n)
	case uint16:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case float32:
		f = float64(n)
	case float64:
		f = n
	default:
		return 0, fmt.Errorf("unsupported source type %T for output type %s", v, w.name())
	}
	if w.typ == mysql.TypeFloat && !math.IsNaN(f) && !math.IsInf(f, 0) &&
		math.Abs(f) > math.MaxFloat32 {
		return 0, w.rangeError()
	}
	return f, nil
}

// asBytes extracts the payload of a string cell.
func (w wireType) asBytes(v any) ([]byte, error) {
	switch s := v.(type) {
	case string:
		return []byte(s), nil
	case []byte:
		return s, nil
	}
	return nil, fmt.Errorf("unsupported source type %T for output type %s", v, w.name())
}

// asYear validates a YEAR source value: two-digit years or 1901-2155.
func (w wireType) asYear(v any) (int64, error) {
	n, err := w.asInt64(v)
	if err != nil {
		return 0, err
	}
	if !checkYear(n) {
		return 0, w.rangeError()
	}
	return n, nil
}
