package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/pkg/common/logger"

	// Compiled-in ref storage engines self-register.
	_ "github.com/utkarsh5026/RefStore/pkg/refs/boltdb"
	_ "github.com/utkarsh5026/RefStore/pkg/refs/files"
)

var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
	CommitSHA = "unknown"
)

var (
	logLevel  string
	logFormat string
	verbose   bool
	storeDir  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "refstore",
		Short:   "RefStore - A pluggable reference store for content-addressed version control",
		Long:    "RefStore maps reference names to content identifiers,\nrecords the history each reference has held, and stores both\nin a pluggable backend (plain files or an embedded key-value store).",
		Version: fmt.Sprintf("%s (built: %s, commit: %s)", Version, BuildTime, CommitSHA),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging()
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output (sets log level to debug)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store-dir", "", "Path to the reference store (default: nearest .refstore)")

	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newBranchCmd())
	rootCmd.AddCommand(newUpdateRefCmd())
	rootCmd.AddCommand(newSymbolicRefCmd())
	rootCmd.AddCommand(newShowRefCmd())
	rootCmd.AddCommand(newForEachRefCmd())
	rootCmd.AddCommand(newReflogCmd())
	rootCmd.AddCommand(newPackRefsCmd())
	rootCmd.AddCommand(newRenameRefCmd())
	rootCmd.AddCommand(newCheckFormatCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := logger.LevelInfo
	switch logLevel {
	case "debug":
		level = logger.LevelDebug
	case "warn":
		level = logger.LevelWarn
	case "error":
		level = logger.LevelError
	}
	if verbose {
		level = logger.LevelDebug
	}

	format := logger.FormatText
	if logFormat == "json" {
		format = logger.FormatJSON
	}

	logger.Default = logger.New(logger.Config{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})
}
