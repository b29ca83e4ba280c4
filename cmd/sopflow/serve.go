package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/sopflow/internal/cli"
	httpAdapter "github.com/aretw0/sopflow/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serves the sopflow JSON API described by /openapi.yaml, Prometheus metrics on
/metrics and case updates as Server-Sent Events on /events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer app.Close()

		if port, _ := cmd.Flags().GetInt("port"); port != 0 {
			app.Config.HTTP.Port = port
		}
		watch, _ := cmd.Flags().GetBool("watch")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		opts := []httpAdapter.Option{
			httpAdapter.WithStreams(app.Streams),
			httpAdapter.WithMetrics(app.Registry),
			httpAdapter.WithLogger(app.Logger),
		}
		if watch {
			opts = append(opts, httpAdapter.WithWatcher(app.Loader))
		}

		handler, err := httpAdapter.NewHandler(app.Engine, opts...)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              app.Config.HTTP.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			app.Logger.Info("starting sopflow server", "address", srv.Addr, "definitions", app.Config.DefinitionsDir, "watch", watch)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			app.Logger.Info("shutdown started", "signal", sigCtx.Signal())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				app.Logger.Warn("graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			app.Logger.Info("sopflow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolP("watch", "w", false, "Reload definitions when files change and stream reload events")
}
