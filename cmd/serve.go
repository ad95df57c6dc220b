package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ColonelBlimp/morsetrainer/internal/api"
	"github.com/ColonelBlimp/morsetrainer/internal/recovery"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trainer over HTTP",
	Long: `Start the HTTP API. Routes live under /api: health, table, encode, decode,
render, analyze and vibration.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("listen", "l", "", "listen address (default from config: listen_addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	e, s, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	addr := s.ListenAddr
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		addr = listen
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(e, s.MaxUploadMB, slog.Default()).Router(s.Debug),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		defer recovery.HandlePanicFunc(func() { _ = srv.Close() })
		slog.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
