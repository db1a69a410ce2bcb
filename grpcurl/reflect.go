package grpcurl

import (
	"context"
	"regexp"
	"strings"
)

// rpcLine matches method lines of "describe" output, e.g.
//
//	rpc Chat ( stream .chat.Msg ) returns ( stream .chat.Msg );
var rpcLine = regexp.MustCompile(`^\s*rpc\s+(\w+)\s*\(\s*(stream\s+)?([\w.]+)\s*\)\s*returns\s*\(\s*(stream\s+)?([\w.]+)\s*\)`)

// ListServices returns the services exposed through server reflection.
func (c *Client) ListServices(ctx context.Context, address string) ([]string, error) {
	args := append(c.transportArgs(nil), address, VerbList)
	out, err := c.run(ctx, "list", nil, args)
	if err != nil {
		return nil, err
	}
	return ParseList(string(out)), nil
}

// DescribeService returns the method signatures of one service.
func (c *Client) DescribeService(ctx context.Context, address, service string) ([]MethodSignature, error) {
	args := append(c.transportArgs(nil), FlagFormat, FormatVerbose, address, VerbDescribe, service)
	out, err := c.run(ctx, "describe", nil, args)
	if err != nil {
		return nil, err
	}
	return ParseDescribe(string(out)), nil
}

// ParseList splits "list" output into trimmed, non-empty service names.
func ParseList(output string) []string {
	var services []string
	for _, line := range strings.Split(output, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			services = append(services, s)
		}
	}
	return services
}

// ParseDescribe extracts method signatures from "describe" output.
// Lines that are not rpc declarations are ignored.
func ParseDescribe(output string) []MethodSignature {
	var methods []MethodSignature
	for _, line := range strings.Split(output, "\n") {
		m := rpcLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		methods = append(methods, MethodSignature{
			Name:      m[1],
			Input:     m[3],
			Output:    m[5],
			Streaming: ShapeOf(strings.Contains(m[2], "stream"), strings.Contains(m[4], "stream")),
		})
	}
	return methods
}
