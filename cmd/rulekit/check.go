package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulekit"
	"github.com/rulekit/rulekit/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check <rule>...",
	Short: "Validate rule text",
	Long: `Parse each rule and report syntax errors and static type violations.

Symbol type declarations from an environment file extend the check to
symbol usage, e.g. comparing a FLOAT symbol against a STRING literal is
then rejected.

Examples:
  # Check a single rule
  rulekit check 'age > 21'

  # Check several rules with symbol types
  rulekit check --environment env.yaml 'age > 21' 'name == 42'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(environmentFile)
	if err != nil {
		return err
	}
	opts, err := env.options()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, text := range args {
		rule, err := rulekit.New(text, opts...)
		if err != nil {
			failed++
			printCheckFailure(out, text, err)
			continue
		}
		fmt.Fprintf(out, "ok:    %s (result type %s)\n", text, rule.ResultType())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d rule(s) failed validation", failed, len(args))
	}
	return nil
}

// printCheckFailure reports an invalid rule, pointing at the offending token
// when its position is known.
func printCheckFailure(w io.Writer, text string, err error) {
	fmt.Fprintf(w, "error: %s\n", text)

	var rse *types.RuleSyntaxError
	if errors.As(err, &rse) && rse.Position >= 0 && rse.Position <= len(text) {
		fmt.Fprintf(w, "       %s^\n", strings.Repeat(" ", rse.Position))
	}
	fmt.Fprintf(w, "       %s\n", err)
}
