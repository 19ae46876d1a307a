// Package codec frames discrete messages over a byte stream for msgserve.
//
// The wire format is deliberately small: each message is a uvarint length
// prefix followed by the raw payload. The codec owns buffered reading and
// writing over the underlying stream and reports three distinct read
// outcomes: a decoded message, io.EOF for a clean peer close, or a
// decode/transport error.
package codec

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize is the largest payload the codec will accept or emit. A length
// prefix beyond this is treated as a decode error rather than an allocation
// request.
const MaxFrameSize = 64 * 1024 * 1024

// ErrFrameTooLarge is returned when a frame's declared or actual size exceeds
// MaxFrameSize.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// Codec reads and writes length-delimited frames over a single stream. It is
// owned by exactly one connection goroutine and is not safe for concurrent
// use.
type Codec struct {
	r *bufio.Reader
	w *bufio.Writer
}

// New wraps rw in a Codec using readBufSize for the buffered reader and
// writer. The buffer size needs to be tuned for the application's typical
// message size.
func New(rw io.ReadWriter, readBufSize int) *Codec {
	return &Codec{
		r: bufio.NewReaderSize(rw, readBufSize),
		w: bufio.NewWriterSize(rw, readBufSize),
	}
}

// Next reads the next framed message from the stream.
//
// It returns io.EOF when the peer closed the stream cleanly at a frame
// boundary. Any other failure, including a stream that ends mid-frame or a
// length prefix beyond MaxFrameSize, is a decode/transport error.
func (c *Codec) Next() ([]byte, error) {
	size, err := binary.ReadUvarint(c.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("read frame header: %w", err)
	}
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: declared %d bytes, maximum %d", ErrFrameTooLarge, size, MaxFrameSize)
	}
	msg := make([]byte, size)
	if _, err := io.ReadFull(c.r, msg); err != nil {
		return nil, fmt.Errorf("read frame body: %w", err)
	}
	return msg, nil
}

// Write frames msg and flushes it to the stream.
func (c *Codec) Write(msg []byte) error {
	if len(msg) > MaxFrameSize {
		return fmt.Errorf("%w: message of %d bytes, maximum %d", ErrFrameTooLarge, len(msg), MaxFrameSize)
	}
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], uint64(len(msg)))
	if _, err := c.w.Write(hdr[:n]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := c.w.Write(msg); err != nil {
		return fmt.Errorf("write frame body: %w", err)
	}
	if err := c.w.Flush(); err != nil {
		return fmt.Errorf("flush frame: %w", err)
	}
	return nil
}
