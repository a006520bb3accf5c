package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpDelivery "edubot/internal/delivery/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func (c *cli) serveCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local dev server: gateway proxy and streamed answers",
		Long: `Runs the dev server used by the browser front end.

  ANY  /api/*         proxied to the API Gateway, /api stripped
  POST /stream/query  answer replayed as server-sent events
  GET  /healthz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.online(); err != nil {
				return err
			}
			if port == 0 {
				port = c.app.cfg.Server.Port
			}

			gin.SetMode(gin.ReleaseMode)
			handler := httpDelivery.NewHandler(c.app.gateway, c.app.revealer, c.app.log.Named("http"))
			router, err := httpDelivery.InitRouter(handler, httpDelivery.RouterConfig{
				APIBaseURL:    c.app.cfg.APIBaseURL,
				AllowedOrigin: c.app.cfg.Server.AllowedOrigin,
			})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dev server on http://localhost:%d, proxying %s\n", port, c.app.cfg.APIBaseURL)
			return runServer(cmd.Context(), srv, c.app.log)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Listen port (default from config, 3001)")
	return cmd
}

// runServer serves until ctx ends, then shuts down gracefully.
func runServer(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
