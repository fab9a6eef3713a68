package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/timesheet-engine/api"
	"github.com/warp/timesheet-engine/config"
)

type serveOptions struct {
	port    string
	db      string
	origins []string
}

func newServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API until SIGINT or SIGTERM.

On shutdown the server stops accepting connections, waits up to 30s for
active requests and then closes the store.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().StringVar(&opts.port, "port", "", "HTTP port (overrides PORT)")
	cmd.Flags().StringVar(&opts.db, "db", "", "SQLite database path (overrides SQLITE_PATH)")
	cmd.Flags().StringSliceVar(&opts.origins, "origins", nil, "allowed CORS origins")

	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions, opts *serveOptions) error {
	override := rootOpts.Override
	serveOpts := *rootOpts
	serveOpts.Override = func(cfg *config.Config) {
		if override != nil {
			override(cfg)
		}
		if opts.port != "" {
			cfg.Port = opts.port
		}
		if opts.db != "" {
			cfg.Store.SQLitePath = opts.db
		}
	}

	app, err := loadApp(cmd, &serveOpts)
	if err != nil {
		return err
	}
	defer app.Close()

	handler := api.NewHandler(app.Ledger, app.Clock, app.Log)
	for name, check := range app.Checks {
		handler.Checks[name] = check
	}

	server := &http.Server{
		Addr:         app.Config.Addr(),
		Handler:      api.NewRouter(handler, opts.origins...),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		app.Log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.Log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitCommandError, "server forced to shutdown", err)
	}
	app.Log.Info().Msg("server stopped")
	return nil
}
