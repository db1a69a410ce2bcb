// Package grpcurl wraps the grpcurl command-line client.
//
// The package owns everything that depends on grpcurl's command line: flag
// names, argument construction, staging of caller-supplied .proto text to a
// temporary file, and the one-shot operations (unary invoke, service listing,
// service description). Long-running streaming sessions are built on top of
// Client.Command by the session package.
//
// # Usage
//
//	client := grpcurl.NewClient(grpcurl.WithPlaintext(true))
//
//	services, err := client.ListServices(ctx, "localhost:50051")
//
//	result, err := client.Invoke(ctx, grpcurl.UnaryRequest{
//	    Address: "localhost:50051",
//	    Method:  "helloworld.Greeter/SayHello",
//	    Data:    json.RawMessage(`{"name":"world"}`),
//	})
//
// # Method Paths
//
// Methods containing "/" or "." are passed through unchanged. A bare method
// name is prefixed with "/" for backward compatibility.
package grpcurl
