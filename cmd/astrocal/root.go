package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thurmanmarka/astrocal/internal/config"
)

var (
	configPath string
	verbose    bool
	logFormat  string
	workers    int
	outputDir  string
)

var rootCmd = &cobra.Command{
	Use:   "astrocal",
	Short: "Generate yearly astrological event calendars",
	Long: `astrocal scans a year day by day and writes lunar phases, aspects,
conjunctions, ingresses, retrograde periods, eclipses, daily positions
and a curated summary as JSON.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
		if logFormat == "json" {
			handler = slog.NewJSONHandler(os.Stderr, opts)
		}
		slog.SetDefault(slog.New(handler))
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Scan units run at once (overrides config)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "Output directory (overrides config)")
}

// loadConfig reads --config and applies the global flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("Error loading config", err)
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if err := cfg.Validate(); err != nil {
		fatal("Error in config", err)
	}
	return cfg
}
