package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/preflight/internal/dirty"
	"github.com/jonathan/preflight/internal/server"
)

var (
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes settings, streamed check runs, save interception and the live results hub.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config, default 8080)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	port := a.cfg.Port
	if servePort != 0 {
		port = servePort
	}

	jwtCfg, err := a.cfg.JWT()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	sessions := dirty.NewSessions(dirty.SessionsConfig{
		IdleTimeout: a.cfg.SessionIdle.Std(),
		Logger:      a.logger,
	})
	defer sessions.Stop()

	cfg := server.Config{
		Port:          port,
		Checker:       a.checker,
		Settings:      a.resolver,
		Content:       a.content,
		Sessions:      sessions,
		JWT:           jwtCfg,
		AllowFallback: a.cfg.Fallback(),
		Logger:        a.logger,
	}
	if a.db != nil {
		cfg.Runs = a.db
	}

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Start(ctx)
}
