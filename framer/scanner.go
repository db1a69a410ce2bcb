package framer

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// Scanner reads messages lazily from an io.Reader, in the style of
// bufio.Scanner. Lines may be arbitrarily long.
type Scanner struct {
	r       *bufio.Reader
	framer  Framer
	msg     Message
	err     error
	flushed bool
}

// NewScanner returns a Scanner reading from r.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r)}
}

// Scan advances to the next message. It returns false at end of input or on
// a read error; Err distinguishes the two.
func (s *Scanner) Scan() bool {
	for !s.flushed {
		line, err := ReadLine(s.r)
		if line != "" || err == nil {
			if msg, ok := s.framer.Feed(line); ok {
				s.msg = msg
				if err != nil {
					s.finish(err)
				}
				return true
			}
		}
		if err != nil {
			s.finish(err)
			if msg, ok := s.framer.Flush(); ok {
				s.msg = msg
				return true
			}
		}
	}
	return false
}

func (s *Scanner) finish(err error) {
	s.flushed = true
	if !errors.Is(err, io.EOF) {
		s.err = err
	}
}

// Message returns the most recent message produced by Scan.
func (s *Scanner) Message() Message {
	return s.msg
}

// Err returns the first non-EOF read error.
func (s *Scanner) Err() error {
	return s.err
}

// All reads r to the end and returns every message.
func All(r io.Reader) ([]Message, error) {
	var msgs []Message
	sc := NewScanner(r)
	for sc.Scan() {
		msgs = append(msgs, sc.Message())
	}
	return msgs, sc.Err()
}

// ReadLine reads one line and strips the trailing "\n" or "\r\n".
// A final line without a newline is returned together with io.EOF.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, err
}
