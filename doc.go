// Package grpcstream drives gRPC calls through the grpcurl command line
// tool and turns streaming calls into long-lived sessions.
//
// Each subpackage can be used independently:
//
//   - grpcurl: grpcurl argument building, unary invocation, reflection
//   - framer: splits streamed output into JSON values and text lines
//   - events: streaming-data / streaming-error / streaming-end events and a bus
//   - session: per-(address, method) streaming sessions with signals and sends
//   - protoschema: tolerant .proto parsing, sample bodies, payload validation
//   - bridge: line-delimited JSON control protocol over a session manager
//   - config: TOML, YAML, or JSON configuration
//   - logger: slog construction
//
// # Quick Start
//
// Unary call:
//
//	import "github.com/randalmurphal/grpcstream/grpcurl"
//	client := grpcurl.NewClient()
//	resp, err := client.Invoke(ctx, grpcurl.UnaryRequest{
//	    Address: "localhost:50051",
//	    Method:  "helloworld.Greeter/SayHello",
//	    Data:    json.RawMessage(`{"name":"world"}`),
//	})
//
// Streaming session:
//
//	import "github.com/randalmurphal/grpcstream/session"
//	bus := events.New(events.DefaultBuffer)
//	mgr := session.NewManager(session.WithPublisher(bus))
//	info, err := mgr.Start(ctx, session.CallRequest{
//	    Address: "localhost:50051",
//	    Method:  "chat.Chat/Talk",
//	    RPCType: grpcurl.BidirectionalStreaming,
//	})
//	err = mgr.Send(info.Key, map[string]any{"text": "hi"})
//	err = mgr.Signal(info.Key, session.End)
package grpcstream
