package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	environmentFile string
	verbose         bool
)

var rootCmd = &cobra.Command{
	Use:   "rulekit",
	Short: "Rulekit - debug and validate rule expressions",
	Long: `Rulekit is a debugging and validation tool for rule text.

Rules are boolean expressions written in a small, typed grammar, evaluated
against arbitrary data inside a closed interpreter. This tool provides:
  - An interactive evaluation loop (repl)
  - Syntax and static type validation (check)
  - Expression tree rendering in Graphviz DOT form (graph)

An optional YAML environment file supplies the data a rule is evaluated
against, symbol type declarations, a default value and a timezone.

For more information, visit: https://github.com/rulekit/rulekit`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: level,
		})))
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
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&environmentFile, "environment", "e", "", "YAML environment file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
