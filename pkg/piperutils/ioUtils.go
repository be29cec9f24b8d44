package piperutils

import (
	"fmt"
	"io"
)

// copyBufferSize is the chunk size used when transferring archive entries.
const copyBufferSize = 32 * 1024

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// CopyData streams src into dst and fails if not every byte read was written.
// Neither side is closed.
func CopyData(dst io.Writer, src io.Reader) (int64, error) {
	counter := &countingReader{r: src}
	written, err := io.CopyBuffer(dst, counter, make([]byte, copyBufferSize))
	if err != nil {
		if written < counter.n {
			return written, fmt.Errorf("write error: %w", err)
		}
		return written, fmt.Errorf("read error: %w", err)
	}
	if written != counter.n {
		return written, fmt.Errorf("transfer error: read %v bytes but wrote %v bytes", counter.n, written)
	}
	return written, nil
}
