package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/grpcstream/grpcurl"
	"github.com/randalmurphal/grpcstream/session"
)

var (
	invokeData      string
	invokeProto     string
	invokePlaintext bool
)

var invokeCmd = &cobra.Command{
	Use:   "invoke <address> <method>",
	Short: "Make a unary call and print the response",
	Args:  cobra.ExactArgs(2),
	RunE:  runInvoke,
}

var listCmd = &cobra.Command{
	Use:   "list <address>",
	Short: "List services exposed by server reflection",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

var describeCmd = &cobra.Command{
	Use:   "describe <address> <service>",
	Short: "List the methods of a service with their call shapes",
	Args:  cobra.ExactArgs(2),
	RunE:  runDescribe,
}

func init() {
	invokeCmd.Flags().StringVarP(&invokeData, "data", "d", "", "Request body as JSON (default {})")
	invokeCmd.Flags().StringVar(&invokeProto, "proto", "", "Proto file describing the service (instead of reflection)")
	invokeCmd.Flags().BoolVar(&invokePlaintext, "plaintext", true, "Use plaintext instead of TLS")

	rootCmd.AddCommand(invokeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(describeCmd)
}

func runInvoke(cmd *cobra.Command, args []string) error {
	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.close()

	req := session.CallRequest{
		Address: args[0],
		Method:  args[1],
		RPCType: grpcurl.Unary,
	}
	if invokeData != "" {
		req.RequestData = json.RawMessage(invokeData)
	}
	if invokeProto != "" {
		content, err := os.ReadFile(invokeProto)
		if err != nil {
			return fmt.Errorf("read proto: %w", err)
		}
		req.ProtoContent = string(content)
	}
	if cmd.Flags().Changed("plaintext") {
		req.Plaintext = &invokePlaintext
	}

	result, err := rt.mgr.Invoke(cmd.Context(), req)
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}

func runList(cmd *cobra.Command, args []string) error {
	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.InvokeTimeout.Std())
	defer cancel()
	services, err := rt.client.ListServices(ctx, args[0])
	if err != nil {
		return err
	}
	for _, svc := range services {
		fmt.Fprintln(cmd.OutOrStdout(), svc)
	}
	return nil
}

func runDescribe(cmd *cobra.Command, args []string) error {
	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.InvokeTimeout.Std())
	defer cancel()
	methods, err := rt.client.DescribeService(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	for _, m := range methods {
		fmt.Fprintf(cmd.OutOrStdout(), "%-24s %s\n", m.Streaming, m.Name)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
