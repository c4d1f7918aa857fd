package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thurmanmarka/astrocal/internal/api"
	"github.com/thurmanmarka/astrocal/internal/output"
	"github.com/thurmanmarka/astrocal/internal/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve generated files and metrics over HTTP",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("addr") {
			cfg.HTTP.Addr = serveAddr
		}
		logger := slog.Default()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var events api.EventStore
		if cfg.Database.Enabled {
			db, err := store.Connect(ctx, cfg.Database)
			if err != nil {
				fatal("Error connecting to database", err)
			}
			defer db.Close()
			events = db
		}

		srv := &http.Server{
			Addr:         cfg.HTTP.Addr,
			Handler:      api.NewRouter(output.NewWriter(cfg.OutputDir), events, logger),
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		}

		errc := make(chan error, 1)
		go func() {
			logger.Info("starting server", "addr", cfg.HTTP.Addr, "output", cfg.OutputDir, "store", events != nil)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- err
			}
		}()

		select {
		case <-ctx.Done():
		case err := <-errc:
			fatal("Server error", err)
		}
		logger.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			fatal("Server shutdown error", err)
		}
		logger.Info("server stopped")
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
