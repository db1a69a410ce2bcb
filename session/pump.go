package session

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/randalmurphal/grpcstream/events"
	"github.com/randalmurphal/grpcstream/framer"
)

// relayOutput reads r line by line, frames JSON messages, and publishes one
// Data event per message. Lines read while paused are discarded along with
// any partial frame. A read failure is published as an Error event. The End
// event is always published last.
func relayOutput(r io.Reader, session string, paused *atomic.Bool, pub events.Publisher) {
	br := bufio.NewReader(r)
	var f framer.Framer

	for {
		line, err := framer.ReadLine(br)
		if line != "" || err == nil {
			if paused.Load() {
				f.Reset()
			} else if msg, ok := f.Feed(line); ok {
				pub.Publish(events.NewData(session, msg.Payload()))
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				pub.Publish(events.NewError(session, "read error: "+err.Error()))
			}
			break
		}
	}

	if msg, ok := f.Flush(); ok {
		pub.Publish(events.NewData(session, msg.Payload()))
	}
	pub.Publish(events.NewEnd(session))
}

// relayErrors publishes every line of r as an Error event.
func relayErrors(r io.Reader, session string, pub events.Publisher) {
	br := bufio.NewReader(r)
	for {
		line, err := framer.ReadLine(br)
		if line != "" || err == nil {
			pub.Publish(events.NewError(session, line))
		}
		if err != nil {
			return
		}
	}
}

// pump drains both output pipes of a launched process, then reaps it and
// unregisters the stream. It is the only caller of stream.wait for
// registered streams.
func (m *Manager) pump(l *launched) {
	s := l.stream
	name := s.key.String()
	pub := events.Tag(m.config.publisher, s.id)
	stderrDone := make(chan struct{})

	go func() {
		defer close(stderrDone)
		relayErrors(l.stderr, name, pub)
	}()

	go func() {
		relayOutput(l.stdout, name, &s.paused, pub)

		if err := s.proto.Remove(); err != nil {
			m.log.Warn("temp proto cleanup failed", slog.String("key", name), slog.Any("error", err))
		}

		<-stderrDone
		waitErr := s.wait()

		s.mu.Lock()
		s.exited = true
		s.stdin = nil // Wait closed it
		s.mu.Unlock()
		close(s.done)

		m.registry.removeIf(s.key, s)

		attrs := []any{slog.String("key", name), slog.String("session", s.id)}
		if waitErr != nil {
			attrs = append(attrs, slog.Any("exit", waitErr))
		}
		m.log.Debug("grpcurl exited", attrs...)
	}()
}
