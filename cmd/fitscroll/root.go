package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/raushankrgupta/fitscroll/logging"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:          "fitscroll",
	Short:        "fitscroll generates try-on feeds from the command line",
	Long:         "fitscroll runs feed generation for a stored profile, checks the outfit bridge and issues API tokens.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")
}

func newLogger(cmd *cobra.Command) logging.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return logging.NewTextLogger(cmd.ErrOrStderr(), level)
}
