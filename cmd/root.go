package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jsphweid/chordrnn/config"
	"github.com/jsphweid/chordrnn/file"
	"github.com/jsphweid/chordrnn/logging"
)

var (
	configFlag    string
	dataDirFlag   string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "chordrnn",
	Short: "Predict chords from melodies",
	Long: `chordrnn imports MIDI scores, extracts per-measure note and chord
features, and trains an LSTM that predicts a measure's chord from its melody.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ./chordrnn.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Override paths.data_dir")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Override logging.format (console, json)")
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	cobra.CheckErr(err)
}

// env is what every stage needs: the resolved configuration, where its
// artifacts live and a logger.
type env struct {
	cfg    config.Config
	layout file.Layout
	logger *slog.Logger
}

// loadEnv reads the configuration, lets apply layer command flags over it
// and validates the result. apply may be nil.
func loadEnv(apply func(config.Config) config.Config) (env, error) {
	cfg, _, _, err := config.Load(strings.TrimSpace(configFlag))
	if err != nil {
		return env{}, err
	}
	cfg = withGlobalFlags(cfg)
	if apply != nil {
		cfg = apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return env{}, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return env{}, err
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Writer: os.Stderr,
	})
	if err != nil {
		return env{}, fmt.Errorf("init logger: %w", err)
	}
	return env{cfg: cfg, layout: file.NewLayout(cfg), logger: logger}, nil
}

func withGlobalFlags(cfg config.Config) config.Config {
	if v := strings.TrimSpace(dataDirFlag); v != "" {
		cfg = cfg.WithDataDir(v)
	}
	if v := strings.TrimSpace(logLevelFlag); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(logFormatFlag); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	return cfg
}

// Run executes the command line args against ctx, writing command output to
// out. It is the entry point for end-to-end tests.
func Run(ctx context.Context, args []string, out io.Writer) error {
	rootCmd.SetArgs(args)
	rootCmd.SetOut(out)
	defer rootCmd.SetArgs(nil)
	return rootCmd.ExecuteContext(ctx)
}
