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
	"bytes"
	"errors"
	"fmt"
)

// Connection-fatal sentinel errors. Once either of these is returned the
// connection is closed and no further packets can be read from it.
var (
	// ErrConnLost is returned when the server closes the connection or a
	// read fails mid-packet.
	ErrConnLost = errors.New("connection lost")

	// ErrPacketSequence is returned when a packet arrives with an
	// unexpected sequence number after the stream was already synchronized.
	ErrPacketSequence = errors.New("packets out of order")
)

// SQLError is the error structure returned from the server.
type SQLError struct {
	Num     int
	State   string
	Message string
}

// NewSQLError creates a new SQLError.
func NewSQLError(number int, sqlState string, format string, args ...any) *SQLError {
	return &SQLError{
		Num:     number,
		State:   sqlState,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (se *SQLError) Error() string {
	buf := &bytes.Buffer{}
	buf.WriteString(se.Message)

	// Add MySQL errno and SQLSTATE in a format that we can later parse.
	fmt.Fprintf(buf, " (errno %v) (sqlstate %v)", se.Num, se.State)

	return buf.String()
}

// Number returns the internal MySQL error code.
func (se *SQLError) Number() int {
	return se.Num
}

// SQLState returns the SQLSTATE value.
func (se *SQLError) SQLState() string {
	return se.State
}

// ParseErrorPacket parses the error packet and returns a SQLError. The
// packet starts with 0xff, then a 2-byte error number, then (on modern
// servers) a '#' marker and a 5-byte SQLSTATE, then the message.
func ParseErrorPacket(data []byte) error {
	// We need the code, it's 2 bytes.
	code, pos, ok := readUint16(data, 1)
	if !ok {
		return NewSQLError(CRUnknownError, SSUnknownSQLState, "invalid error packet code: %v", data)
	}

	state := SSUnknownSQLState
	msg := data[pos:]
	if len(data) >= pos+6 && data[pos] == '#' {
		state = string(data[pos+1 : pos+6])
		msg = data[pos+6:]
	}

	return NewSQLError(int(code), state, "%v", string(msg))
}

// Error codes used by the client side itself.
const (
	// CRUnknownError is CR_UNKNOWN_ERROR.
	CRUnknownError = 2000

	// CRServerLost is CR_SERVER_LOST. Used when a read fails on the
	// connection in the middle of a result stream.
	CRServerLost = 2013

	// CRMalformedPacket is CR_MALFORMED_PACKET.
	CRMalformedPacket = 2027
)

// SSUnknownSQLState is the SQLSTATE used when none applies.
const SSUnknownSQLState = "HY000"
