package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/skillprobe/internal/api"
	"github.com/abhisek/skillprobe/internal/session"
)

const (
	shutdownTimeout = 30 * time.Second
	pruneInterval   = time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve assessment sessions over HTTP",
	Long: `Run the JSON API. Each POST /v1/sessions starts an independent session;
see /v1/sessions/{id}/next, /answer, /skip, /finish and /summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer svc.Close()

		addr := svc.cfg.Server.Addr
		if a, _ := cmd.Flags().GetString("addr"); a != "" {
			addr = a
		}
		registry := session.NewRegistry(svc.deps, session.Config{MaxQuestions: svc.cfg.Assessment.MaxQuestions})
		server := api.NewServer(addr, registry, svc.logger)

		ctx, stopPrune := context.WithCancel(cmd.Context())
		defer stopPrune()
		registry.StartPruneLoop(ctx, pruneInterval, svc.cfg.SessionIdle())

		done := make(chan struct{})
		go func() {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			sig := <-sigCh

			svc.logger.Info("received signal, shutting down", "signal", sig.String())

			stopPrune()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				svc.logger.Error("shutdown error", "error", err)
			}
			close(done)
		}()

		if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		<-done
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
