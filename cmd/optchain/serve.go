package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/optchain-analytics/internal/data"
	"github.com/dgnsrekt/optchain-analytics/internal/server"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve chain reports, spread analysis and pricing over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if port == "" {
				port = cfg.Server.Port
			}

			st, err := buildStack(cfg, logger)
			if err != nil {
				return err
			}

			var reload *server.ReloadManager
			if st.live != nil {
				var cache server.Flusher
				if st.cache != nil {
					cache = st.cache
				}
				dir := cfg.Data.SnapshotDir
				reload = server.NewReloadManager(st.live, cache, func() (*data.SnapshotLoader, error) {
					return data.NewSnapshotLoader(dir, logger)
				}, st.snapshotKeys, logger)
			}

			srv := server.NewServer(st.builder, reload, cfg.Pricing.RiskFreeRate, logger)
			limiter := server.NewLimiter(cfg.Server.RatePerSecond, cfg.Server.Burst)

			httpServer := &http.Server{
				Addr:         ":" + port,
				Handler:      server.NewRouter(srv, limiter, logger),
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
				WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("starting server",
					zap.String("addr", httpServer.Addr),
					zap.String("dataMode", cfg.Data.Mode),
					zap.Bool("reload", reload != nil),
				)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return err
			}

			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (default from config)")

	return cmd
}
