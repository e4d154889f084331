package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/warp/utilization-engine/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard API",
		Long: `Serve the utilization API over HTTP.

On SIGINT/SIGTERM the server stops accepting connections, waits up to the
shutdown timeout for active requests, stops the directory importer and
closes the database.`,
		RunE: runServe,
	}

	cmd.Flags().IntP("port", "p", 8080, "HTTP server port")
	cmd.Flags().StringSlice("origins", nil, "CORS allowed origins (default: local dev servers)")
	cmd.Flags().String("watch-dir", "", "import contracts/timesheet/allowances exports from this directory")
	cmd.Flags().Duration("watch-interval", time.Minute, "how often to scan --watch-dir")
	cmd.Flags().Duration("shutdown-timeout", 30*time.Second, "grace period for active requests on shutdown")

	_ = viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.origins", cmd.Flags().Lookup("origins"))
	_ = viper.BindPFlag("server.watch_dir", cmd.Flags().Lookup("watch-dir"))
	_ = viper.BindPFlag("server.watch_interval", cmd.Flags().Lookup("watch-interval"))
	_ = viper.BindPFlag("server.shutdown_timeout", cmd.Flags().Lookup("shutdown-timeout"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	profile, err := loadProfile()
	if err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	handler := api.NewHandler(store, profile, logger)

	router := api.NewRouter(handler, api.RouterOptions{
		AllowedOrigins: viper.GetStringSlice("server.origins"),
	})

	if dir := viper.GetString("server.watch_dir"); dir != "" {
		importer := api.NewDirectoryImporter(store, dir, logger)
		importer.CheckInterval = viper.GetDuration("server.watch_interval")
		importer.Start()
		defer importer.Stop()
	}

	port := viper.GetInt("server.port")
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "profile", profile.Profile, "db", viper.GetString("db"))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("server.shutdown_timeout"))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
