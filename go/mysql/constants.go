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

// MaxPacketSize is the maximum payload length of a single on-wire packet.
// Payloads of exactly this size are followed by a continuation packet,
// possibly empty.
const MaxPacketSize = (1 << 24) - 1

// Packet header bytes that discriminate result-stream packets.
const (
	// ErrPacket is the header byte of an error packet.
	ErrPacket byte = 0xff

	// EOFPacket is the header byte of an EOF packet. Only valid when the
	// packet is shorter than 9 bytes; longer packets starting with 0xfe
	// carry a length-encoded integer instead.
	EOFPacket byte = 0xfe
)

// Server status flags, 2 bytes in EOF and OK packets.
const (
	// ServerMoreResultsExists is set when the current result set is
	// followed by another one in the same response.
	ServerMoreResultsExists uint16 = 1 << 3
)

// Type is a MySQL column type as sent in column definition packets.
type Type byte

// Column types. The values are the wire protocol codes.
const (
	TypeDecimal    Type = 0
	TypeTiny       Type = 1
	TypeShort      Type = 2
	TypeLong       Type = 3
	TypeFloat      Type = 4
	TypeDouble     Type = 5
	TypeNull       Type = 6
	TypeTimestamp  Type = 7
	TypeLongLong   Type = 8
	TypeInt24      Type = 9
	TypeDate       Type = 10
	TypeTime       Type = 11
	TypeDatetime   Type = 12
	TypeYear       Type = 13
	TypeNewDate    Type = 14
	TypeVarchar    Type = 15
	TypeBit        Type = 16
	TypeJSON       Type = 245
	TypeNewDecimal Type = 246
	TypeEnum       Type = 247
	TypeSet        Type = 248
	TypeTinyBlob   Type = 249
	TypeMediumBlob Type = 250
	TypeLongBlob   Type = 251
	TypeBlob       Type = 252
	TypeVarString  Type = 253
	TypeString     Type = 254
	TypeGeometry   Type = 255
)

// String returns the SQL-ish name of the type, used in error messages.
func (t Type) String() string {
	switch t {
	case TypeDecimal, TypeNewDecimal:
		return "DECIMAL"
	case TypeTiny:
		return "TINYINT"
	case TypeShort:
		return "SMALLINT"
	case TypeLong:
		return "INT"
	case TypeFloat:
		return "FLOAT"
	case TypeDouble:
		return "DOUBLE"
	case TypeNull:
		return "NULL"
	case TypeTimestamp:
		return "TIMESTAMP"
	case TypeLongLong:
		return "BIGINT"
	case TypeInt24:
		return "MEDIUMINT"
	case TypeDate, TypeNewDate:
		return "DATE"
	case TypeTime:
		return "TIME"
	case TypeDatetime:
		return "DATETIME"
	case TypeYear:
		return "YEAR"
	case TypeVarchar, TypeVarString:
		return "VARCHAR"
	case TypeBit:
		return "BIT"
	case TypeJSON:
		return "JSON"
	case TypeEnum:
		return "ENUM"
	case TypeSet:
		return "SET"
	case TypeTinyBlob:
		return "TINYBLOB"
	case TypeMediumBlob:
		return "MEDIUMBLOB"
	case TypeLongBlob:
		return "LONGBLOB"
	case TypeBlob:
		return "BLOB"
	case TypeString:
		return "CHAR"
	case TypeGeometry:
		return "GEOMETRY"
	}
	return "UNKNOWN"
}

// Column definition flags. Only the ones the row decoder consults.
const (
	// UnsignedFlag marks an integer column as unsigned.
	UnsignedFlag uint16 = 1 << 5

	// BinaryFlag marks a string column as binary rather than text.
	BinaryFlag uint16 = 1 << 7
)

// CharsetBinary is the collation id of the binary pseudo-charset. String
// columns with this charset carry raw bytes, not encoded text.
const CharsetBinary = 63
