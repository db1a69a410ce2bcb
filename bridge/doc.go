// Package bridge exposes a session manager over a JSON-lines control
// protocol, so any process that can write lines to a pipe can drive
// streaming calls.
//
// Each input line is a request:
//
//	{"id": 1, "op": "start", "params": {"address": "localhost:50051", "method": "chat.Chat/Talk", "rpc_type": "bidirectional-streaming"}}
//
// and produces exactly one response line with the same id:
//
//	{"id": 1, "ok": true, "result": {...}}
//	{"id": 1, "ok": false, "error": "session start ...: no active stream"}
//
// Session events are written as they happen, interleaved with responses:
//
//	{"event": "streaming-data", "session": "localhost:50051-chat.Chat/Talk", "session_id": "6f1c...", "payload": {"text": "hi"}}
//
// Requests are handled concurrently; responses may arrive out of order and
// are matched by id. [Schema] describes the parameters of every op.
package bridge
