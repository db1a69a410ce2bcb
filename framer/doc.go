// Package framer rebuilds discrete JSON messages from line-oriented process output.
//
// grpcurl prints each response message as a pretty-printed JSON object with no
// length prefix or delimiter. A message ends when its braces balance, so the
// framer tracks brace depth across lines while ignoring braces that appear
// inside string values.
//
// Core types:
//   - Framer: incremental state machine fed one line at a time
//   - Message: one reconstructed frame, either valid JSON or raw text
//   - Scanner: lazy iteration over the messages of an io.Reader
//
// Example usage:
//
//	sc := framer.NewScanner(stdout)
//	for sc.Scan() {
//	    msg := sc.Message()
//	    if msg.IsJSON() {
//	        fmt.Printf("JSON: %s\n", msg.JSON)
//	    } else {
//	        fmt.Printf("text: %s\n", msg.Text)
//	    }
//	}
//	if err := sc.Err(); err != nil {
//	    return err
//	}
//
// A frame that is not valid JSON is never dropped; it is delivered verbatim
// (trimmed) as Text.
package framer
