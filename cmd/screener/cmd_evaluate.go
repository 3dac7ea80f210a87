package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newEvaluateCommand() *cobra.Command {
	var (
		configPath string
		question   string
		answerFile string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate [answer]",
		Short: "Evaluate one interview answer against a question",
		Long: `Evaluate one free-text interview answer against a question.

The answer is taken from the argument, or from --answer-file when set.
The result is printed as JSON on stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			answer, err := resolveAnswer(args, answerFile)
			if err != nil {
				return err
			}
			if strings.TrimSpace(question) == "" {
				return fmt.Errorf("--question is required")
			}

			engine, err := newEngine(configPath, verbose)
			if err != nil {
				return err
			}
			defer engine.Close()

			result, err := engine.pipeline.Evaluate(cmd.Context(), question, answer)
			if err != nil {
				return fmt.Errorf("evaluation failed: %w", err)
			}

			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().StringVarP(&question, "question", "q", "", "interview question the answer responds to")
	cmd.Flags().StringVar(&answerFile, "answer-file", "", "read the answer from a file instead of the argument")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	return cmd
}

func resolveAnswer(args []string, answerFile string) (string, error) {
	if answerFile != "" {
		data, err := os.ReadFile(answerFile)
		if err != nil {
			return "", fmt.Errorf("read answer file: %w", err)
		}
		return string(data), nil
	}
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		return args[0], nil
	}
	return "", fmt.Errorf("an answer argument or --answer-file is required")
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
