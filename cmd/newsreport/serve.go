package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fedestu/RPA-Challenge/logger"
	"github.com/fedestu/RPA-Challenge/runs"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run history over HTTP",
		Long: `Start a read-only JSON API over the run history:

  GET    /api/v1/runs
  GET    /api/v1/runs/:id
  GET    /api/v1/runs/:id/articles
  DELETE /api/v1/runs/:id`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("addr", "", "listen address")
	a.bindFlags(cmd, map[string]string{"addr": "server.address"})
	return cmd
}

// serve runs the history API until ctx is cancelled.
func (a *app) serve(ctx context.Context) error {
	store, err := openStore(a.cfg.History.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if !a.debug {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           runs.NewAPIServer(store).SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		a.log.Info("starting history API", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("stopping history API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}
	return nil
}
