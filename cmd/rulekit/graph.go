package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rulekit/rulekit"
)

var graphFlags struct {
	output string
}

var graphCmd = &cobra.Command{
	Use:   "graph <rule>",
	Short: "Render a rule's expression tree as a DOT graph",
	Long: `Compile a rule and print its expression tree in Graphviz DOT form.

Pipe the output to the dot tool to produce an image:
  rulekit graph 'publisher == "DC" and issue >= 1' | dot -Tpng -o rule.png`,
	Args: cobra.ExactArgs(1),
	RunE: runGraph,
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().StringVarP(&graphFlags.output, "output", "o", "", "write the graph to a file instead of stdout")
}

func runGraph(cmd *cobra.Command, args []string) error {
	env, err := loadEnvironment(environmentFile)
	if err != nil {
		return err
	}
	opts, err := env.options()
	if err != nil {
		return err
	}

	rule, err := rulekit.New(args[0], opts...)
	if err != nil {
		return err
	}

	rendered := rule.Graphviz().String()
	if graphFlags.output == "" {
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	}
	if err := os.WriteFile(graphFlags.output, []byte(rendered), 0o644); err != nil {
		return fmt.Errorf("failed to write graph: %w", err)
	}
	return nil
}
