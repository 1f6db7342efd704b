package logging

import (
	"bytes"
	"io"
)

// PrefixWriter writes a prefix in front of every complete line. Partial
// lines are held until their newline arrives.
type PrefixWriter struct {
	prefix  []byte
	writer  io.Writer
	pending []byte
}

// NewPrefixWriter wraps w.
func NewPrefixWriter(prefix string, w io.Writer) *PrefixWriter {
	return &PrefixWriter{prefix: []byte(prefix), writer: w}
}

// Write implements io.Writer.
func (pw *PrefixWriter) Write(p []byte) (int, error) {
	pw.pending = append(pw.pending, p...)

	for {
		i := bytes.IndexByte(pw.pending, '\n')
		if i < 0 {
			break
		}
		line := make([]byte, 0, len(pw.prefix)+i+1)
		line = append(append(line, pw.prefix...), pw.pending[:i+1]...)
		if _, err := pw.writer.Write(line); err != nil {
			return 0, err
		}
		pw.pending = pw.pending[i+1:]
	}

	return len(p), nil
}
