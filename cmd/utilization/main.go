/*
main.go - Application entry point

PURPOSE:
  CLI for the utilization engine: serve the dashboard API, import source
  table exports into the local store, and print reports.

COMMANDS:
  serve     HTTP API with graceful shutdown
  import    Store a CSV/XLSX export as a new import run
  report    Compute reports from the store or straight from files
  profiles  List built-in profile presets
  version   Print version information

CONFIGURATION (lowest to highest precedence):
  1. Defaults
  2. Config file: --config, else ./utilization.yaml or
     $HOME/.config/utilization/config.yaml
  3. .env in the working directory
  4. Environment: UTIL_ prefix, dots become underscores (UTIL_SERVER_PORT)
  5. Flags

  Example config:

    db: ./data/utilization.db
    logging:
      level: info
      format: json
    profile:
      preset: standard
      config:
        pd_cap_hours: 24
    server:
      port: 8080
      watch_dir: /srv/exports

SEE ALSO:
  - api/server.go: Router configuration
  - factory/profile.go: Profile documents
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/factory"
	"github.com/warp/utilization-engine/store/sqlite"
	"github.com/warp/utilization-engine/utilization"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "utilization",
		Short: "Employee utilization reporting engine",
		Long: `utilization reconciles contracts, timesheets and vacation allowances into
per-employee utilization reports: target vs. actual hours, PTO consumption,
remaining balances and period utilization.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./utilization.yaml or $HOME/.config/utilization/config.yaml)")
	rootCmd.PersistentFlags().String("db", "utilization.db", "SQLite database path (\":memory:\" for in-memory)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("profile", "standard", "built-in profile preset")
	rootCmd.PersistentFlags().String("cutoff", "", "cutoff date YYYY-MM-DD (default: Monday of the current week)")

	// Bind flags to viper
	_ = viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("profile.preset", rootCmd.PersistentFlags().Lookup("profile"))
	_ = viper.BindPFlag("profile.cutoff", rootCmd.PersistentFlags().Lookup("cutoff"))

	// Add commands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(importCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(profilesCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/utilization")
		}
		viper.SetConfigName("utilization")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("UTIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return setupLogging()
}

func setupLogging() error {
	level := viper.GetString("logging.level")
	format := viper.GetString("logging.format")

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}

	switch format {
	case "console":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log format: %s", format)
	}

	slog.SetDefault(slog.New(handler).With("app", "utilization", "version", version))
	return nil
}

// loadProfile builds the configured profile: a preset, overlaid with any
// inline profile.config document, then the cutoff override. The cutoff is
// left unresolved when none is configured.
func loadProfile() (utilization.Config, error) {
	f := factory.NewProfileFactory()

	cfg, err := f.Preset(viper.GetString("profile.preset"))
	if err != nil {
		return utilization.Config{}, err
	}

	if viper.IsSet("profile.config") {
		pj := f.ToJSON(cfg)
		if err := viper.UnmarshalKey("profile.config", &pj); err != nil {
			return utilization.Config{}, fmt.Errorf("failed to decode profile.config: %w", err)
		}
		if cfg, err = f.FromJSON(pj); err != nil {
			return utilization.Config{}, err
		}
	}

	if s := viper.GetString("profile.cutoff"); s != "" {
		cutoff, err := calendar.ParseDate(s)
		if err != nil {
			return utilization.Config{}, fmt.Errorf("invalid cutoff: %w", err)
		}
		cfg = cfg.WithCutoff(cutoff)
	}
	return cfg, nil
}

func openStore() (*sqlite.Store, error) {
	path := viper.GetString("db")
	store, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return store, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "utilization %s\n", version)
		},
	}
}
