package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonathan/outreach-agent/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes job extraction, link lookup, email drafting and the full pipeline as JSON endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagValues.Port, "port", 0, "Port to listen on (default 8080)")
	serveCmd.Flags().IntVar(&flagValues.Concurrency, "concurrency", 0, "Postings drafted in parallel per request (default 1)")
	serveCmd.Flags().IntVar(&flagValues.Retries, "retries", 0, "Retries on transient provider errors")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if !a.cfg.Verbose {
		a.log = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	client, err := a.outreachClient(cmd.Context())
	if err != nil {
		return err
	}
	store, err := a.portfolioStore(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(server.Config{
		Port:        a.cfg.Port,
		Concurrency: a.cfg.Concurrency,
		Retries:     a.cfg.Retries,
		Logger:      a.log,
	}, client, store)

	return srv.Start(ctx)
}
