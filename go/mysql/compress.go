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
	"bytes"
	"fmt"
	"io"
	"net"

	"github.com/klauspost/compress/zlib"
)

// The compressed protocol wraps regular packets in compressed frames. Each
// frame has its own 7-byte header: a 3-byte compressed length, a 1-byte
// frame sequence, and the 3-byte uncompressed length. An uncompressed
// length of zero means the payload was sent as-is; servers do that when
// compression would not shrink it.
const compressedHeaderSize = 7

// minCompressLength is the payload size below which frames are sent
// uncompressed. Matches the server default.
const minCompressLength = 50

// compressedReader unwraps compressed frames into the regular packet
// stream. It implements io.Reader so the connection's buffered reader can
// sit on top of it unchanged.
type compressedReader struct {
	conn     net.Conn
	sequence uint8

	// current holds the decompressed remainder of the last frame.
	current bytes.Reader
}

func (cr *compressedReader) Read(p []byte) (int, error) {
	for cr.current.Len() == 0 {
		if err := cr.readFrame(); err != nil {
			return 0, err
		}
	}
	return cr.current.Read(p)
}

func (cr *compressedReader) readFrame() error {
	var header [compressedHeaderSize]byte
	if _, err := io.ReadFull(cr.conn, header[:]); err != nil {
		return fmt.Errorf("%w: reading compressed header: %v", ErrConnLost, err)
	}

	compLength := int(header[0]) | int(header[1])<<8 | int(header[2])<<16
	sequence := header[3]
	uncompLength := int(header[4]) | int(header[5])<<8 | int(header[6])<<16

	if sequence != cr.sequence {
		return fmt.Errorf("%w: compressed frame %v, want %v", ErrPacketSequence, sequence, cr.sequence)
	}
	cr.sequence++

	payload := make([]byte, compLength)
	if _, err := io.ReadFull(cr.conn, payload); err != nil {
		return fmt.Errorf("%w: reading compressed frame: %v", ErrConnLost, err)
	}

	if uncompLength == 0 {
		// Frame was sent uncompressed.
		cr.current.Reset(payload)
		return nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("invalid compressed frame: %v", err)
	}
	defer zr.Close()

	data := make([]byte, uncompLength)
	if _, err := io.ReadFull(zr, data); err != nil {
		return fmt.Errorf("short compressed frame: %v", err)
	}
	cr.current.Reset(data)
	return nil
}

// compressedWriter wraps outgoing packets into compressed frames, one
// frame per Write call.
type compressedWriter struct {
	conn     net.Conn
	sequence uint8
}

func (cw *compressedWriter) Write(p []byte) (int, error) {
	var frame bytes.Buffer
	uncompLength := 0

	if len(p) < minCompressLength {
		frame.Write(p)
	} else {
		uncompLength = len(p)
		zw := zlib.NewWriter(&frame)
		if _, err := zw.Write(p); err != nil {
			return 0, err
		}
		if err := zw.Close(); err != nil {
			return 0, err
		}
	}

	var header [compressedHeaderSize]byte
	header[0] = byte(frame.Len())
	header[1] = byte(frame.Len() >> 8)
	header[2] = byte(frame.Len() >> 16)
	header[3] = cw.sequence
	header[4] = byte(uncompLength)
	header[5] = byte(uncompLength >> 8)
	header[6] = byte(uncompLength >> 16)
	cw.sequence++

	if _, err := cw.conn.Write(header[:]); err != nil {
		return 0, fmt.Errorf("%w: writing compressed header: %v", ErrConnLost, err)
	}
	if _, err := cw.conn.Write(frame.Bytes()); err != nil {
		return 0, fmt.Errorf("%w: writing compressed frame: %v", ErrConnLost, err)
	}
	return len(p), nil
}

// EnableCompression switches the connection to the compressed protocol.
// It must be called between commands, when no packet is in flight. The
// compressed frame sequence restarts with every command, alongside the
// regular packet sequence.
func (c *Conn) EnableCompression() {
	c.compressedReader = &compressedReader{conn: c.conn}
	c.compressedWriter = &compressedWriter{conn: c.conn}
	c.bufferedReader = bufio.NewReaderSize(c.compressedReader, connBufferSize)
}
