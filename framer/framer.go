package framer

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Message is one frame reconstructed from the output stream.
// Exactly one of JSON or Text is set.
type Message struct {
	// JSON is the compacted frame when it parsed as JSON.
	JSON json.RawMessage

	// Text is the trimmed frame when it did not parse as JSON.
	Text string
}

// IsJSON reports whether the frame parsed as JSON.
func (m Message) IsJSON() bool {
	return m.JSON != nil
}

// Payload returns the message as a JSON value. Raw text frames are encoded
// as a JSON string.
func (m Message) Payload() json.RawMessage {
	if m.JSON != nil {
		return m.JSON
	}
	data, _ := json.Marshal(m.Text) // Marshalling a string cannot fail
	return data
}

// String returns the frame text.
func (m Message) String() string {
	if m.JSON != nil {
		return string(m.JSON)
	}
	return m.Text
}

// Framer accumulates lines until the braces of a JSON value balance.
// The zero value is ready to use. A Framer is not safe for concurrent use.
type Framer struct {
	buf      strings.Builder
	depth    int
	inString bool
	escape   bool
}

// Feed scans one line (without its trailing newline) and returns a message
// when the buffered text forms a complete frame.
func (f *Framer) Feed(line string) (Message, bool) {
	for _, ch := range line {
		if f.inString {
			switch {
			case f.escape:
				f.escape = false
			case ch == '\\':
				f.escape = true
			case ch == '"':
				f.inString = false
			}
		} else {
			switch ch {
			case '"':
				f.inString = true
			case '{':
				f.depth++
			case '}':
				f.depth--
			}
		}
		f.buf.WriteRune(ch)
	}
	f.buf.WriteByte('\n')

	if f.depth > 0 {
		return Message{}, false
	}
	return f.emit()
}

// Flush returns whatever remains buffered at end of stream.
func (f *Framer) Flush() (Message, bool) {
	return f.emit()
}

// Reset discards any partially buffered frame.
func (f *Framer) Reset() {
	f.buf.Reset()
	f.depth = 0
	f.inString = false
	f.escape = false
}

// Pending reports whether a partial frame is buffered.
func (f *Framer) Pending() bool {
	return strings.TrimSpace(f.buf.String()) != ""
}

func (f *Framer) emit() (Message, bool) {
	text := strings.TrimSpace(f.buf.String())
	f.Reset()
	if text == "" {
		return Message{}, false
	}
	return Parse(text), true
}

// Parse converts one complete frame into a Message.
func Parse(text string) Message {
	if !json.Valid([]byte(text)) {
		return Message{Text: text}
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(text)); err != nil {
		return Message{Text: text}
	}
	return Message{JSON: compact.Bytes()}
}
