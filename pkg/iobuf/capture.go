package iobuf

import "bytes"

// CaptureBuffer accumulates a copy of a relayed byte stream up to a fixed
// admission limit. Once the running total of the stream exceeds the limit
// the buffer is discarded and the stream is marked as overflowed; the
// relay itself is unaffected.
//
// CaptureBuffer is not safe for concurrent use. It belongs to a single
// transaction and is filled outside any lock.
type CaptureBuffer struct {
	limit    int
	total    int
	overflow bool
	buf      bytes.Buffer
}

// NewCaptureBuffer returns a buffer that captures at most limit bytes.
func NewCaptureBuffer(limit int) *CaptureBuffer {
	c := &CaptureBuffer{limit: limit}
	c.buf.Grow(min(limit, 32*1024))
	return c
}

// Write appends p to the capture. It never fails; after the stream total
// passes the limit the already-captured bytes are released and all
// subsequent writes only advance the total.
func (c *CaptureBuffer) Write(p []byte) (int, error) {
	c.total += len(p)
	if c.overflow {
		return len(p), nil
	}
	if c.total > c.limit {
		c.overflow = true
		c.buf.Reset()
		return len(p), nil
	}
	c.buf.Write(p)
	return len(p), nil
}

// Admissible reports whether the complete stream fit within the limit and
// carried at least one byte.
func (c *CaptureBuffer) Admissible() bool {
	return !c.overflow && c.total > 0
}

// Total returns the byte count of the whole stream, captured or not.
func (c *CaptureBuffer) Total() int {
	return c.total
}

// Bytes hands over the captured stream. Ownership of the returned slice
// passes to the caller; the buffer must not be written afterwards.
func (c *CaptureBuffer) Bytes() []byte {
	return c.buf.Bytes()
}
