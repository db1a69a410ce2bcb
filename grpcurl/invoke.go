package grpcurl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// UnaryRequest describes a single request/response call.
type UnaryRequest struct {
	Address      string          `json:"address"`
	Method       string          `json:"method"`
	Data         json.RawMessage `json:"request_data,omitempty"`
	ProtoContent string          `json:"proto_content,omitempty"`
	Plaintext    *bool           `json:"plaintext,omitempty"`
}

// Invoke performs a unary call: it writes the request body to grpcurl's
// stdin, waits for the process to exit, and returns the response JSON.
// A staged proto file is removed before Invoke returns. A deadline on ctx
// is also passed to grpcurl as -max-time.
func (c *Client) Invoke(ctx context.Context, req UnaryRequest) (json.RawMessage, error) {
	payload := []byte("{}")
	if len(bytes.TrimSpace(req.Data)) > 0 {
		if !json.Valid(req.Data) {
			return nil, fmt.Errorf("invalid request json")
		}
		payload = req.Data
	}

	var proto *ProtoFile
	if req.ProtoContent != "" {
		var err error
		if proto, err = c.StageProto(req.ProtoContent); err != nil {
			return nil, err
		}
		defer func() {
			if err := proto.Remove(); err != nil {
				c.log.Warn("temp proto cleanup failed", slog.Any("error", err))
			}
		}()
	}

	opts := CallOptions{
		Address:   req.Address,
		Method:    req.Method,
		Proto:     proto,
		Plaintext: req.Plaintext,
	}
	// Pass the remaining budget to grpcurl.
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			opts.MaxTime = remaining
		}
	}
	args := c.CallArgs(opts)

	out, err := c.run(ctx, "invoke", payload, args)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(out)
	if !json.Valid(trimmed) {
		return nil, fmt.Errorf("%w: failed to parse grpcurl json\nRaw: %s", ErrInvalidOutput, out)
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return compact.Bytes(), nil
}
