package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"uuid-bench/bench"
	"uuid-bench/config"
)

var (
	// Version information set at build time.
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile string
	log     = newLogger()
	v       = config.New()
)

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return l
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(exitCode(err))
	}
}

var rootCmd = &cobra.Command{
	Use:   "uuid-bench",
	Short: "Primary key strategy benchmark for relational databases",
	Long: `uuid-bench measures how the UUID generation strategy used for a primary
key affects insert throughput, point lookups and index fragmentation.
Every variant is run several times against an ephemeral database and the
median of every measurement is reported.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(v.GetString("log_level"))
		if err != nil {
			return fmt.Errorf("%w: invalid log level %q: %v", bench.ErrConfiguration, v.GetString("log_level"), err)
		}

		log.SetLevel(level)

		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "uuid-bench %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
		fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().String("log-level", config.DefaultLogLevel,
		"log level ("+strings.Join(logLevels(), ", ")+")")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", bench.ErrConfiguration, err)
	})

	rootCmd.AddCommand(versionCmd)
}

// loadConfig merges file, environment and bound flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return nil, err
	}

	// The file may carry its own log level.
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid log level %q: %v", bench.ErrConfiguration, cfg.LogLevel, err)
	}
	log.SetLevel(level)

	log.WithField("config_file", v.ConfigFileUsed()).Debug("Configuration loaded")

	return cfg, nil
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, bench.ErrConfiguration):
		return 2
	case errors.Is(err, bench.ErrEngineUnavailable):
		return 3
	case errors.Is(err, bench.ErrStorageFailure):
		return 4
	default:
		return 1
	}
}

func logLevels() []string {
	levels := make([]string, 0, len(logrus.AllLevels))
	for _, level := range logrus.AllLevels {
		levels = append(levels, level.String())
	}

	return levels
}
