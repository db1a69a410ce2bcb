// Package session manages streaming gRPC calls driven through grpcurl.
//
// Each streaming call runs one grpcurl process. The Manager owns every
// process it starts: it primes the request body according to the call shape,
// relays output as events, and applies control signals until the process
// exits or is cancelled.
//
// # Basic Usage
//
//	bus := events.New(0)
//	defer bus.Close()
//
//	mgr := session.NewManager(session.WithPublisher(bus))
//	defer mgr.Close(context.Background())
//
//	sub, unsubscribe := bus.Subscribe()
//	defer unsubscribe()
//
//	_, err := mgr.Start(ctx, session.CallRequest{
//	    Address: "localhost:50051",
//	    Method:  "chat.Chat/Talk",
//	    RPCType: grpcurl.BidirectionalStreaming,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	key := session.KeyOf("localhost:50051", "chat.Chat/Talk")
//	_ = mgr.Send(key, map[string]string{"text": "hi"})
//	_ = mgr.Signal(key, session.End)
//
//	for e := range sub {
//	    fmt.Println(e.Type, string(e.Payload))
//	    if e.Type == events.End {
//	        break
//	    }
//	}
//
// # Call Shapes
//
//   - server-streaming: the request body (or {}) is written and stdin is
//     closed before any output is read.
//   - client-streaming and bidirectional-streaming: the optional first message
//     is written and stdin stays open for Send.
//   - unary calls do not create sessions; use Manager.Invoke.
//
// # Signals
//
//   - Cancel removes the session and kills its process. Cancelling an
//     unknown key is a no-op.
//   - End closes stdin; the process keeps running and its output is still
//     relayed. Later sends fail with ErrNoActiveStream.
//   - Pause discards output lines until Resume. Discarded lines are not
//     replayed.
//
// # Events
//
// Sessions publish [events.Data] per reconstructed message,
// [events.Error] per stderr line, and one [events.End] when stdout closes.
// Every event carries the session key string "{address}-{method}".
//
// # Thread Safety
//
// Manager is safe for concurrent use from multiple goroutines.
package session
