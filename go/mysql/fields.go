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
	"reflect"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Converter rewrites one field value. It receives the raw bytes for binary
// columns, or the decoded string for text columns, and whatever it returns
// is placed in the row verbatim.
type Converter func(v any) (any, error)

// Field describes one column of a result set, from its column definition
// packet plus the per-column policies the caller attached.
type Field struct {
	// Name is the column name, or alias if the query set one.
	Name string

	// TableName is the table the column came from. Used to disambiguate
	// duplicate column names.
	TableName string

	// Type is the wire type of the column.
	Type Type

	// Flags are the column definition flags. The decoder only consults
	// UnsignedFlag and BinaryFlag.
	Flags uint16

	// Scale is the number of decimals, from the column definition.
	Scale uint8

	// Charset is the collation id of the column. Charset 63 is the binary
	// pseudo-charset; such columns decode to []byte.
	Charset uint16

	// Converter, if set, replaces the built-in conversion for this column.
	Converter Converter

	// InvalidValue, if non-nil, is substituted for temporal values that do
	// not parse. When nil, the raw text passes through instead.
	InvalidValue any
}

// IsBinary reports whether the column carries raw bytes rather than text.
func (f *Field) IsBinary() bool {
	return f.Charset == CharsetBinary || f.Flags&BinaryFlag != 0
}

// ResultsType selects the shape rows are materialized into.
type ResultsType int

const (
	// ResultsTuples materializes each row as a []any.
	ResultsTuples ResultsType = iota

	// ResultsDicts materializes each row as a map from column name to
	// value, allocated fresh per row.
	ResultsDicts

	// ResultsRecords materializes each row as a *Record sharing one name
	// table across the result set.
	ResultsRecords
)

// Text decoding policies for bytes that are invalid in the column charset.
const (
	// EncodingStrict fails the conversion on invalid bytes.
	EncodingStrict = "strict"

	// EncodingReplace substitutes U+FFFD for invalid bytes.
	EncodingReplace = "replace"
)

// Options carries the decode policies for one result set.
type Options struct {
	// ResultsType selects the row shape.
	ResultsType ResultsType

	// ParseJSON decodes JSON columns into structured values instead of
	// returning the serialized text.
	ParseJSON bool

	// InvalidValues maps a column type to the value substituted when a
	// temporal literal of that type does not parse.
	InvalidValues map[Type]any

	// EncodingErrors is EncodingStrict or EncodingReplace. Empty means
	// strict.
	EncodingErrors string

	// Unbuffered marks the result as streaming. Only one unbuffered
	// result can be active on a connection, and fetching from one that is
	// no longer active yields no rows.
	Unbuffered bool
}

// MySQL collation ids, as they appear in column definitions. Only the
// charsets that need transcoding are listed; everything else is either
// UTF-8 already or the binary pseudo-charset.
var charsetEncodings = map[uint16]encoding.Encoding{
	// latin1 is cp1252 in MySQL, not ISO 8859-1.
	5:  charmap.Windows1252,
	8:  charmap.Windows1252,
	15: charmap.Windows1252,
	31: charmap.Windows1252,
	47: charmap.Windows1252,
	48: charmap.Windows1252,
	49: charmap.Windows1252,
	94: charmap.Windows1252,

	// latin2
	2:  charmap.ISO8859_2,
	9:  charmap.ISO8859_2,
	21: charmap.ISO8859_2,
	27: charmap.ISO8859_2,
	77: charmap.ISO8859_2,

	// cp1251 / cp1256 / cp1257 / cp850 / cp852 / cp866 / koi8
	14:  charmap.Windows1251,
	23:  charmap.Windows1251,
	50:  charmap.Windows1251,
	51:  charmap.Windows1251,
	52:  charmap.Windows1251,
	57:  charmap.Windows1256,
	67:  charmap.Windows1256,
	29:  charmap.Windows1257,
	58:  charmap.Windows1257,
	59:  charmap.Windows1257,
	4:   charmap.CodePage850,
	80:  charmap.CodePage850,
	40:  charmap.CodePage852,
	81:  charmap.CodePage852,
	36:  charmap.CodePage866,
	68:  charmap.CodePage866,
	7:   charmap.KOI8R,
	74:  charmap.KOI8R,
	22:  charmap.KOI8U,
	75:  charmap.KOI8U,
	3:   charmap.ISO8859_1, // dec8, closest available
	69:  charmap.ISO8859_1,
	25:  charmap.ISO8859_7,
	70:  charmap.ISO8859_7,
	30:  charmap.ISO8859_5,
	78:  charmap.ISO8859_5,
	16:  charmap.ISO8859_8,
	71:  charmap.ISO8859_8,
	10:  charmap.Windows1252, // swe7 approximated
	82:  charmap.Windows1252,
	32:  charmap.ISO8859_9,
	64:  charmap.ISO8859_9,
	38:  charmap.Macintosh,
	43:  charmap.Macintosh,
	39:  charmap.ISO8859_15, // macce approximated
	26:  charmap.Windows1250,
	34:  charmap.Windows1250,
	44:  charmap.Windows1250,
	66:  charmap.Windows1250,
	99:  charmap.Windows1250,
	18:  japanese.ShiftJIS,
	88:  japanese.ShiftJIS,
	13:  japanese.ShiftJIS, // sjis
	95:  japanese.ShiftJIS, // cp932
	96:  japanese.ShiftJIS,
	91:  japanese.EUCJP,
	97:  japanese.EUCJP, // eucjpms
	98:  japanese.EUCJP,
	12:  japanese.EUCJP, // ujis
	19:  korean.EUCKR,
	85:  korean.EUCKR,
	24:  simplifiedchinese.GBK, // gb2312
	86:  simplifiedchinese.GBK,
	28:  simplifiedchinese.GBK,
	87:  simplifiedchinese.GBK,
	248: simplifiedchinese.GB18030,
	249: simplifiedchinese.GB18030,
	250: simplifiedchinese.GB18030,
	1:   traditionalchinese.Big5,
	84:  traditionalchinese.Big5,
	35:  unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), // ucs2
	90:  unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), // utf16
	54:  unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	55:  unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM),
	56:  unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), // utf16le
	62:  unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM),
}

// encodingForCharset returns the transcoder for a collation id, or nil when
// the bytes are already UTF-8 (or the charset is binary and never reaches
// text decoding).
func encodingForCharset(charset uint16) encoding.Encoding {
	return charsetEncodings[charset]
}

// defaultConverters are the built-in converters per type. A caller-supplied
// converter that is one of these is redundant and gets dropped when the
// decode session is built, so the typed fast path runs instead.
var defaultConverters = map[Type]Converter{}

// RegisterDefaultConverter records fn as the built-in converter for t.
// Embedding clients call this once at startup for the types they wrap.
func RegisterDefaultConverter(t Type, fn Converter) {
	defaultConverters[t] = fn
}

// isDefaultConverter reports whether fn is the registered default for t,
// compared by function identity.
func isDefaultConverter(t Type, fn Converter) bool {
	def, ok := defaultConverters[t]
	if !ok || fn == nil {
		return false
	}
	return reflect.ValueOf(fn).Pointer() == reflect.ValueOf(def).Pointer()
}

// dedupeNames returns the column names to expose, renaming any later
// duplicate to "table.column".
func dedupeNames(fields []Field) []string {
	names := make([]string, len(fields))
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		name := fields[i].Name
		if seen[name] && fields[i].TableName != "" {
			name = fields[i].TableName + "." + name
		}
		seen[fields[i].Name] = true
		names[i] = name
	}
	return names
}
