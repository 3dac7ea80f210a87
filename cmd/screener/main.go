// Command screener evaluates and ranks free-text interview answers
// using a sequence of model-backed agents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "screener",
		Short:         "Evaluate and rank interview answers with model-backed agents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newEvaluateCommand())
	root.AddCommand(newRankCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
