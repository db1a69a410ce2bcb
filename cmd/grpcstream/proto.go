package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/grpcstream/bridge"
	"github.com/randalmurphal/grpcstream/protoschema"
)

var schemaCmd = &cobra.Command{
	Use:   "schema [op]",
	Short: "Print the JSON schema of the control protocol",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return printJSON(cmd, map[string]any{
				"request": bridge.RequestSchema(),
				"params":  bridge.Schema(),
			})
		}
		s, ok := bridge.Schema()[args[0]]
		if !ok {
			return fmt.Errorf("unknown op %q", args[0])
		}
		return printJSON(cmd, s)
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample <proto-file> <message>",
	Short: "Print a sample JSON body for a message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		schema, err := protoschema.Load(args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, schema.Sample(args[1]))
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch <proto-file>",
	Short: "Print the services of a proto file each time it changes",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, err := protoschema.Watch(ctx, args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for u := range updates {
		if u.Err != nil {
			fmt.Fprintf(out, "error: %v\n", u.Err)
			continue
		}
		for _, svc := range u.Schema.Services {
			for _, m := range svc.Methods {
				fmt.Fprintf(out, "%-24s %s\n", m.Type, m.Path(svc.Name))
			}
		}
		fmt.Fprintln(out)
	}
	return nil
}
