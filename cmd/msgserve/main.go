// Package main is the entry point for the msgserve daemon.
//
// It serves the demo key/value application over the framed TCP protocol,
// optionally behind TLS, with an optional Prometheus metrics endpoint.
// Shutdown is cooperative: SIGINT/SIGTERM cancel the server's token, riding
// the same cancellation path as any internal fault.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"msgserve/internal/config"
	"msgserve/internal/echoapp"
	"msgserve/internal/metrics"
	"msgserve/pkg/certgen"
	"msgserve/pkg/logging"
	"msgserve/pkg/server"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "msgserve",
		Short:         "Framed request server with cooperative cancellation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(serveCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cfg := config.FromEnv()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the framed request server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cfg)
		},
	}

	cmd.Flags().StringVar(&cfg.ListenAddress, "listen", cfg.ListenAddress, "address to serve framed requests on")
	cmd.Flags().IntVar(&cfg.ReadBufferSize, "read-buffer", cfg.ReadBufferSize, "per-connection read buffer size in bytes")
	cmd.Flags().DurationVar(&cfg.PollInterval, "poll-interval", cfg.PollInterval, "cancellation poll interval of the supervisor")
	cmd.Flags().StringVar(&cfg.MetricsAddress, "metrics-listen", cfg.MetricsAddress, "address to serve Prometheus metrics on (empty disables)")
	cmd.Flags().BoolVar(&cfg.TLS, "tls", cfg.TLS, "serve behind TLS with a self-signed keypair")
	cmd.Flags().StringVar(&cfg.TLSCertFile, "tls-cert", cfg.TLSCertFile, "path to the TLS certificate")
	cmd.Flags().StringVar(&cfg.TLSKeyFile, "tls-key", cfg.TLSKeyFile, "path to the TLS private key")

	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("msgserve %s (commit %s)\n", version, commit)
		},
	}
}

func runServe(cfg config.Config) error {
	log := logging.New()
	slog.SetDefault(log)

	app := echoapp.New(logging.WithComponent(log, "echoapp"))

	opts := []server.Option{
		server.WithReadBufferSize(cfg.ReadBufferSize),
		server.WithPollInterval(cfg.PollInterval),
		server.WithLogger(logging.WithComponent(log, "server")),
	}
	if cfg.TLS {
		tlsCfg, err := certgen.ServerTLSConfig(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			return fmt.Errorf("configure TLS: %w", err)
		}
		opts = append(opts, server.WithTLSConfig(tlsCfg))
	}

	srv, err := server.Bind(cfg.ListenAddress, app, opts...)
	if err != nil {
		return err
	}

	if cfg.MetricsAddress != "" {
		go serveMetrics(cfg.MetricsAddress, logging.WithComponent(log, "metrics"))
	}

	// Cancel the server's token on SIGINT/SIGTERM so Ctrl-C takes the same
	// shutdown path as an internal fault.
	tok := srv.Token()
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-c
		log.Info("signal received, shutting down", "signal", sig.String())
		tok.Cancel()
	}()

	return srv.Listen()
}

func serveMetrics(addr string, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info("metrics listening", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics listener failed", "err", err)
	}
}
