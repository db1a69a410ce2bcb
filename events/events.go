// Package events carries session output to subscribers.
//
// Every streaming session publishes three kinds of events: one
// [Data] event per reconstructed message, one [Error] event per stderr line or
// read failure, and a single [End] event when its output closes.
package events

import (
	"encoding/json"
	"fmt"
)

// Type identifies the kind of event. The values are the wire names clients
// subscribe to.
type Type string

const (
	Data  Type = "streaming-data"
	Error Type = "streaming-error"
	End   Type = "streaming-end"
)

// EndPayload is the payload of every End event.
const EndPayload = "done"

// Event is one notification from a session. Session is the key string
// "{address}-{method}" and is shared by a session and any session that
// replaces it; SessionID is unique to one process.
type Event struct {
	Type      Type            `json:"event"`
	Session   string          `json:"session"`
	SessionID string          `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// NewData builds a Data event. payload must be valid JSON.
func NewData(session string, payload json.RawMessage) Event {
	return Event{Type: Data, Session: session, Payload: payload}
}

// NewError builds an Error event carrying text as a JSON string.
func NewError(session, text string) Event {
	return Event{Type: Error, Session: session, Payload: quote(text)}
}

// NewEnd builds the End event for a session.
func NewEnd(session string) Event {
	return Event{Type: End, Session: session, Payload: quote(EndPayload)}
}

// Text returns the payload as a string. String payloads are unquoted; any
// other JSON is returned as-is.
func (e Event) Text() string {
	var s string
	if err := json.Unmarshal(e.Payload, &s); err == nil {
		return s
	}
	return string(e.Payload)
}

// String implements fmt.Stringer.
func (e Event) String() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s[%s %s] %s", e.Type, e.Session, e.SessionID, e.Payload)
	}
	return fmt.Sprintf("%s[%s] %s", e.Type, e.Session, e.Payload)
}

func quote(s string) json.RawMessage {
	data, _ := json.Marshal(s) // Marshalling a string cannot fail
	return data
}

// Publisher receives events from sessions. Implementations must be safe for
// concurrent use; Publish is called from each session's reader goroutines.
type Publisher interface {
	Publish(Event)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(Event)

// Publish calls f(e).
func (f PublisherFunc) Publish(e Event) {
	f(e)
}

// Tag returns a Publisher that stamps id as the SessionID of every event
// before passing it to p.
func Tag(p Publisher, id string) Publisher {
	return PublisherFunc(func(e Event) {
		e.SessionID = id
		p.Publish(e)
	})
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(Event) {})
