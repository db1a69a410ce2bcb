package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/grpcstream/bridge"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON control protocol on stdin/stdout",
	Long: `Read one JSON request per line from stdin and write one JSON response
per line to stdout. Session events (streaming-data, streaming-error,
streaming-end) are written to stdout as they occur.

Example request:

  {"id":1,"op":"start","params":{"address":"localhost:50051","method":"chat.Chat/Listen","rpc_type":"server-streaming"}}

Run "grpcstream schema" for the parameter schema of every op.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := bridge.NewServer(rt.mgr, rt.bus,
		bridge.WithLogger(rt.log),
		bridge.WithTimeout(rt.cfg.InvokeTimeout.Std()),
	)
	rt.log.Info("serving", slog.String("grpcurl", rt.client.Path()))
	return srv.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
}
