// grpcstream drives gRPC calls through grpcurl and exposes streaming
// sessions over a line-delimited JSON protocol on stdin/stdout.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/grpcstream/config"
	"github.com/randalmurphal/grpcstream/events"
	"github.com/randalmurphal/grpcstream/grpcurl"
	"github.com/randalmurphal/grpcstream/logger"
	"github.com/randalmurphal/grpcstream/session"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "grpcstream",
	Short:         "Stream gRPC calls through grpcurl",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (.toml, .yaml, or .json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
}

func main() {
	os.Exit(execute())
}

func execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// app holds the components shared by every subcommand.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	client *grpcurl.Client
	bus    *events.Bus
	mgr    *session.Manager
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.DefaultConfig(), nil
	}
	return config.Load(configPath)
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	format, err := logger.ParseFormat(cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	// stdout carries protocol output, so logs go to stderr.
	log, _ := logger.New(os.Stderr, level, format)

	client := grpcurl.NewClient(
		grpcurl.WithPath(cfg.GrpcurlPath),
		grpcurl.WithPlaintext(cfg.IsPlaintext()),
		grpcurl.WithInsecure(cfg.Insecure),
		grpcurl.WithTempDir(cfg.TempDir),
		grpcurl.WithHeaders(cfg.Headers...),
		grpcurl.WithLogger(log),
	)
	bus := events.New(cfg.EventBuffer)
	mgr := session.NewManager(
		session.WithClient(client),
		session.WithPublisher(bus),
		session.WithLogger(log),
		session.WithCollisionPolicy(cfg.OnCollision),
		session.WithMaxSessions(cfg.MaxSessions),
		session.WithInvokeTimeout(cfg.InvokeTimeout.Std()),
	)

	return &app{cfg: cfg, log: log, client: client, bus: bus, mgr: mgr}, nil
}

// close terminates every session and releases the event bus.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.mgr.Close(ctx); err != nil {
		a.log.Warn("close sessions", slog.Any("error", err))
	}
	a.bus.Close()
}
