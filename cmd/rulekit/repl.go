package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulekit"
	"github.com/rulekit/rulekit/pkg/cache"
	"github.com/rulekit/rulekit/pkg/types"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Evaluate rules interactively",
	Long: `Read rules from standard input and evaluate each one.

The thing rules are evaluated against is null unless an environment file
supplies one. Evaluation errors are printed with suggestions where the
engine has them; the loop continues until end of input.

Examples:
  # Evaluate rules against nothing (constant expressions)
  rulekit repl

  # Evaluate rules against data from an environment file
  rulekit repl --environment env.yaml`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
}

func runRepl(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(environmentFile)
	if err != nil {
		return err
	}
	opts, err := env.options()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	rules := cache.New(256)

	for {
		fmt.Fprint(out, "rule > ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		text := scanner.Text()
		if text == "" {
			continue
		}

		rule, err := rules.GetOrCompile(text, func() (*rulekit.Rule, error) {
			return rulekit.New(text, opts...)
		})
		if err != nil {
			printEngineError(errOut, err)
			continue
		}
		slog.Debug("rule compiled", "result_type", rule.ResultType().String(), "symbols", rule.Symbols())

		value, err := rule.Evaluate(env.Thing)
		if err != nil {
			printEngineError(errOut, err)
			continue
		}
		fmt.Fprintf(out, "result: %s (%s)\n", value.String(), types.FromValue(value))
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// printEngineError renders an engine error with whatever detail its concrete
// type carries.
func printEngineError(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %s\n", err)

	var rse *types.RuleSyntaxError
	if errors.As(err, &rse) && rse.Position >= 0 {
		fmt.Fprintf(w, "  at position %d\n", rse.Position)
	}
	var regexErr *types.RegexSyntaxError
	if errors.As(err, &regexErr) {
		fmt.Fprintf(w, "  pattern: %q\n", regexErr.Pattern)
	}
	var fce *types.FunctionCallError
	if errors.As(err, &fce) && fce.FunctionName != "" {
		fmt.Fprintf(w, "  function: %q\n", fce.FunctionName)
	}
}
