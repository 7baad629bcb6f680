// Package framing turns a continuous byte stream into discrete text records.
//
// The wire format is plain UTF-8 text with one record per line, separated by
// '\n'. A Decoder owns the reassembly buffer for a single connection: bytes
// arrive in arbitrary chunks (a record may be split across reads, or several
// records may arrive in one read) and the decoder emits each complete line
// exactly once, in order.
package framing

import (
	"bytes"
	"strings"
)

// Decoder accumulates bytes from one connection and splits them into
// complete lines. It is not safe for concurrent use; each connection owns
// exactly one Decoder.
//
// Records are trimmed of surrounding whitespace and dropped if empty after
// trimming. The same policy applies to the residual flush on close.
type Decoder struct {
	buf []byte
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends p to the decode buffer and returns every complete record it
// now contains, in arrival order. The buffer keeps at most one trailing
// partial line between calls. Any byte sequence is acceptable input; there
// is no error condition and no line-length limit.
func (d *Decoder) Feed(p []byte) []string {
	if len(p) == 0 {
		return nil
	}
	d.buf = append(d.buf, p...)

	var records []string
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			break
		}
		line := strings.TrimSpace(string(d.buf[:i]))
		d.buf = d.buf[i+1:]
		if line != "" {
			records = append(records, line)
		}
	}
	if len(d.buf) == 0 {
		d.buf = nil
	}
	return records
}

// Flush emits the residual buffer content as one final record, for use when
// the connection closes with an unterminated last line. Returns false if the
// buffer is empty or whitespace-only. The decoder is reset either way.
func (d *Decoder) Flush() (string, bool) {
	line := strings.TrimSpace(string(d.buf))
	d.buf = nil
	return line, line != ""
}

// Pending returns the number of buffered bytes awaiting a line break.
func (d *Decoder) Pending() int {
	return len(d.buf)
}
