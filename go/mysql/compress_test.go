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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifyCompressedRoundTrip(t *testing.T, data []byte) {
	listener, sConn, cConn := createSocketPair(t)
	defer func() {
		listener.Close()
		sConn.Close()
		cConn.Close()
	}()

	sConn.EnableCompression()
	cConn.EnableCompression()

	done := make(chan error, 1)
	go func() {
		done <- sConn.WritePacket(data)
	}()

	received, err := cConn.ReadPacket()
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.True(t, bytes.Equal(data, received))
}

func TestCompressedRoundTrip(t *testing.T) {
	t.Run("small stays raw", func(t *testing.T) {
		// Short payloads are framed but not deflated.
		verifyCompressedRoundTrip(t, []byte("hi"))
	})
	t.Run("compressible", func(t *testing.T) {
		verifyCompressedRoundTrip(t, bytes.Repeat([]byte("rowio"), 10000))
	})
}

func TestCompressedFrameSequence(t *testing.T) {
	listener, sConn, cConn := createSocketPair(t)
	defer func() {
		listener.Close()
		sConn.Close()
		cConn.Close()
	}()

	cConn.EnableCompression()

	// A raw frame with frame sequence 7 when 0 is expected.
	go sConn.conn.Write([]byte{5, 0, 0, 7, 0, 0, 0, 1, 0, 0, 0, 'x'})

	_, err := cConn.ReadPacket()
	require.ErrorIs(t, err, ErrPacketSequence)
}

func TestResetSequenceResetsFrames(t *testing.T) {
	listener, sConn, cConn := createSocketPair(t)
	defer func() {
		listener.Close()
		sConn.Close()
		cConn.Close()
	}()

	sConn.EnableCompression()
	cConn.EnableCompression()

	done := make(chan error, 1)
	go func() {
		done <- sConn.WritePacket([]byte("first"))
	}()
	_, err := cConn.ReadPacket()
	require.NoError(t, err)
	require.NoError(t, <-done)

	sConn.ResetSequence()
	cConn.ResetSequence()

	go func() {
		done <- sConn.WritePacket([]byte("second"))
	}()
	data, err := cConn.ReadPacket()
	require.NoError(t, err)
	require.NoError(t, <-done)
	assert.Equal(t, "second", string(data))
}
