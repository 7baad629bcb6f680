package client

import "strings"

// Level classifies a structured entry.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Entry is a structured log entry. It is formatted into a single text line
// before enqueueing; once on the wire it is indistinguishable from a plain
// message.
type Entry struct {
	// Level classifies the entry. Defaults to LevelInfo when empty.
	Level Level

	// Source identifies the emitting component.
	Source string

	// Operation names the calling operation. Optional.
	Operation string

	// Message is the entry text.
	Message string

	// Detail carries failure detail. Optional.
	Detail string
}

// Format renders the entry as one line:
//
//	[LEVEL] source/operation: message: detail
//
// with "/operation" and ": detail" omitted when empty. Interior line breaks
// in any field are replaced with spaces so the entry stays a single record
// on the wire.
func (e Entry) Format() string {
	level := e.Level
	if level == "" {
		level = LevelInfo
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(level))
	b.WriteString("]")

	if e.Source != "" {
		b.WriteString(" ")
		b.WriteString(e.Source)
		if e.Operation != "" {
			b.WriteString("/")
			b.WriteString(e.Operation)
		}
		b.WriteString(":")
	} else if e.Operation != "" {
		b.WriteString(" ")
		b.WriteString(e.Operation)
		b.WriteString(":")
	}

	b.WriteString(" ")
	b.WriteString(e.Message)

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	return strings.ReplaceAll(b.String(), "\n", " ")
}
