package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"storyweave/internal/handler"
	"storyweave/internal/hub"
	"storyweave/internal/service"

	"github.com/spf13/cobra"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.Config.Server.Addr = addr
			}
			return c.serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	return cmd
}

// serve blocks until ctx is cancelled, then shuts the server down gracefully
func (c *CLI) serve(ctx context.Context) error {
	svc, bus, closeDB, err := c.openService()
	if err != nil {
		return err
	}
	defer closeDB()

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	sseHub := hub.New(c.Logger.WithPrefix("sse"))
	go sseHub.Run(hubCtx, bus)

	server := &http.Server{
		Addr:         c.Config.Server.Addr,
		Handler:      handler.NewRouter(handler.NewGraphHandler(svc), sseHub, c.Logger),
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  60 * time.Second,
		// No WriteTimeout: SSE streams stay open
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down server")
	sseHub.Broadcast(service.Event{Type: service.EventServerStopping})
	stopHub()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.Config.Server.ShutdownTimeout.Duration())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		c.Logger.Error("server shutdown error", "err", err)
		return err
	}
	c.Logger.Info("server stopped")
	return nil
}
