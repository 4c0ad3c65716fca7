package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/notes/server"
)

func newServeCmd(a *app) *cobra.Command {
	var addr string
	c := &cobra.Command{
		Use:   "serve",
		Short: "Serve the valuation API over HTTP",
		Long: `Start the HTTP API. The listen address and CORS origins come from the
config file or NOTES_SERVER_ADDR and NOTES_CORS_ORIGINS.

Example:
  notes serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Server.Addr = addr
			}
			srv := &http.Server{
				Addr: a.cfg.Server.Addr,
				Handler: server.NewRouter(server.Deps{
					Evaluator:      a.evaluator(),
					Logger:         a.log,
					AllowedOrigins: a.cfg.Server.AllowedOrigins,
				}),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, srv, a)
		},
	}
	c.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return c
}

// run serves until ctx is done, then shuts srv down gracefully.
func run(ctx context.Context, srv *http.Server, a *app) error {
	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	a.log.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error().Err(err).Msg("server forced to shut down")
		return err
	}
	a.log.Info().Msg("server stopped")
	return nil
}
