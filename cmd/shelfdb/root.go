package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	storeFile   string
	schemaFile  string
	multi       bool
	lockTimeout time.Duration
	verbose     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shelfdb",
	Short: "A keyed record store over plain text files",
	Long: `Shelfdb keeps typed records in a plain text file, one JSON object per
line, and coordinates concurrent access across processes with a lock file.
The record layout comes from a YAML schema file.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		logger := slog.New(tint.NewHandler(colorable.NewColorable(os.Stderr), &tint.Options{
			Level:      level,
			TimeFormat: time.TimeOnly,
			NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
		}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&storeFile, "file", "f", "", "Store file path")
	rootCmd.PersistentFlags().StringVarP(&schemaFile, "schema", "s", "", "YAML schema file path")
	rootCmd.PersistentFlags().BoolVar(&multi, "multi", false, "Allow multiple records per key")
	rootCmd.PersistentFlags().DurationVar(&lockTimeout, "timeout", 10*time.Second, "Max wait for the lock file (0 waits forever)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
}
