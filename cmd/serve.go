package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docvault/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the docvault HTTP API",
	Long: `Starts the HTTP API for ingesting, listing, deleting and querying documents,
plus the /ws/chat websocket, /metrics and /api/audit. The vector index is
saved to the data dir on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		port := a.cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		srv := server.New(server.Config{
			Port:           port,
			AllowAll:       a.cfg.Server.AllowAllOrigins,
			AdminToken:     a.cfg.Server.AdminToken,
			RequestTimeout: a.cfg.Server.RequestTimeout,
		}, server.Deps{
			Store:    a.store,
			Pipeline: a.pipeline,
			Models:   a.models,
			Audit:    a.audit,
			Metrics:  a.metrics,
			Logger:   a.logger,
		})

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		a.logger.Info().
			Str("version", Version).
			Str("data_dir", a.cfg.DataDir).
			Int("chunks", a.index.Count()).
			Bool("reset_enabled", a.cfg.Server.AdminToken != "").
			Msg("docvault server starting")

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			a.logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error().Err(err).Msg("server shutdown")
			}
		}

		if err := a.persist(context.Background()); err != nil {
			return err
		}
		a.logger.Info().Str("dir", a.cfg.IndexDir()).Msg("vector index saved")
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
