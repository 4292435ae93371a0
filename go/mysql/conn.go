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
	"bufio"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/datamill-io/rowio/go/log"
)

const (
	// connBufferSize is how much we buffer for reading.
	connBufferSize = 16 * 1024

	// packetHeaderSize is the 3-byte length plus 1-byte sequence prefix
	// of every packet.
	packetHeaderSize = 4
)

// Conn is a connection between a client and a server, on top of which the
// result stream is read. It owns the packet framing: lengths, sequence
// numbers, and the splitting and joining of oversized payloads.
type Conn struct {
	// conn is the underlying network connection.
	conn net.Conn

	// bufferedReader is used to read the stream. It is only allocated
	// when the connection is created, and never changes.
	bufferedReader *bufio.Reader

	// header is a scratch buffer for reading packet headers, to avoid an
	// allocation per packet.
	header [packetHeaderSize]byte

	// sequence is the expected sequence number of the next packet. It is
	// reset to zero before every command and checked against every packet
	// that arrives.
	sequence uint8

	// compressedReader and compressedWriter are non-nil once the
	// connection has switched to the compressed protocol. See compress.go.
	compressedReader *compressedReader
	compressedWriter *compressedWriter

	// readTimeout, if set, bounds every packet read.
	readTimeout time.Duration

	// closed is set once the connection has been force-closed. Any read
	// after that fails immediately.
	closed bool
}

// NewConn creates a Conn on top of an established network connection.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		conn:           conn,
		bufferedReader: bufio.NewReaderSize(conn, connBufferSize),
	}
}

// SetReadTimeout bounds every subsequent packet read. Zero disables it.
func (c *Conn) SetReadTimeout(timeout time.Duration) {
	c.readTimeout = timeout
}

// ResetSequence resets the packet sequence before a new command is sent.
// In the compressed protocol the frame sequence restarts as well.
func (c *Conn) ResetSequence() {
	c.sequence = 0
	if c.compressedReader != nil {
		c.compressedReader.sequence = 0
		c.compressedWriter.sequence = 0
	}
}

// Close closes the underlying connection. A connection that failed a read
// mid-packet is closed rather than left in an unknown framing state.
func (c *Conn) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if err := c.conn.Close(); err != nil {
		log.Errorf("error closing connection: %v", err)
	}
}

// IsClosed reports whether the connection was closed.
func (c *Conn) IsClosed() bool {
	return c.closed
}

// readHeader reads one packet header and validates its sequence number.
// first says whether this is the first header of the current ReadPacket
// call: a sequence mismatch there means the server gave up on us, while a
// mismatch on a continuation header means the stream framing is broken.
func (c *Conn) readHeader(first bool) (int, error) {
	if _, err := io.ReadFull(c.bufferedReader, c.header[:]); err != nil {
		return 0, fmt.Errorf("%w: reading packet header: %v", ErrConnLost, err)
	}

	sequence := c.header[3]
	if sequence != c.sequence {
		if first {
			return 0, fmt.Errorf("%w: unexpected sequence %v, want %v", ErrConnLost, sequence, c.sequence)
		}
		return 0, fmt.Errorf("%w: got %v, want %v", ErrPacketSequence, sequence, c.sequence)
	}
	c.sequence++

	return int(c.header[0]) |
		int(c.header[1])<<8 |
		int(c.header[2])<<16, nil
}

// ReadPacket reads one full packet payload, joining continuation packets
// when the payload is MaxPacketSize or longer. On any error the connection
// is closed: there is no way to resynchronize the stream.
func (c *Conn) ReadPacket() ([]byte, error) {
	data, err := c.readPacket()
	if err != nil {
		c.Close()
		return nil, err
	}
	return data, nil
}

func (c *Conn) readPacket() ([]byte, error) {
	if c.closed {
		return nil, ErrConnLost
	}
	if c.readTimeout != 0 {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConnLost, err)
		}
	}

	length, err := c.readHeader(true)
	if err != nil {
		return nil, err
	}
	if length == 0 {
		return nil, nil
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(c.bufferedReader, data); err != nil {
		return nil, fmt.Errorf("%w: reading packet body: %v", ErrConnLost, err)
	}
	if length < MaxPacketSize {
		return data, nil
	}

	// The payload continues in follow-up packets until one arrives that
	// is shorter than the maximum. A trailing empty packet is valid: it
	// terminates a payload that is an exact multiple of MaxPacketSize.
	for {
		length, err := c.readHeader(false)
		if err != nil {
			return nil, err
		}
		if length == 0 {
			break
		}
		next := make([]byte, length)
		if _, err := io.ReadFull(c.bufferedReader, next); err != nil {
			return nil, fmt.Errorf("%w: reading packet body: %v", ErrConnLost, err)
		}
		data = append(data, next...)
		if length < MaxPacketSize {
			break
		}
	}
	return data, nil
}

// writer returns where outgoing packets go: the raw connection, or the
// compressing wrapper once the compressed protocol is on.
func (c *Conn) writer() io.Writer {
	if c.compressedWriter != nil {
		return c.compressedWriter
	}
	return c.conn
}

// WritePacket writes a packet, splitting it if needed.
func (c *Conn) WritePacket(data []byte) error {
	w := c.writer()
	for {
		chunk := data
		if len(chunk) > MaxPacketSize {
			chunk = chunk[:MaxPacketSize]
		}
		packet := make([]byte, packetHeaderSize+len(chunk))
		packet[0] = byte(len(chunk))
		packet[1] = byte(len(chunk) >> 8)
		packet[2] = byte(len(chunk) >> 16)
		packet[3] = c.sequence
		copy(packet[packetHeaderSize:], chunk)
		c.sequence++
		if _, err := w.Write(packet); err != nil {
			c.Close()
			return fmt.Errorf("%w: writing packet: %v", ErrConnLost, err)
		}
		data = data[len(chunk):]
		if len(chunk) < MaxPacketSize {
			return nil
		}
		// A payload that is an exact multiple of MaxPacketSize needs an
		// empty terminating packet, so keep looping even on empty data.
	}
}

// isEOFPacket determines whether a data packet is an EOF. In case the
// client capabilities do not include deprecated EOF handling, an EOF is
// a short packet starting with 0xfe.
func isEOFPacket(data []byte) bool {
	return data[0] == EOFPacket && len(data) < 9
}

// parseEOFPacket returns the warning count and status flags of an EOF
// packet.
func parseEOFPacket(data []byte) (warnings uint16, statusFlags uint16, err error) {
	// The warning count is in position 1 & 2.
	warnings, pos, ok := readUint16(data, 1)
	if !ok {
		return 0, 0, fmt.Errorf("invalid EOF packet warning count: %v", data)
	}

	// The status flag is in position 3 & 4.
	statusFlags, _, ok = readUint16(data, pos)
	if !ok {
		return 0, 0, fmt.Errorf("invalid EOF packet status flags: %v", data)
	}
	return warnings, statusFlags, nil
}
