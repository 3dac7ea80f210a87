package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-screener/internal/domain"
)

// rankRequest is the YAML shape of a ranking input file.
type rankRequest struct {
	Question   string `yaml:"question"`
	Candidates []struct {
		ID     string `yaml:"id"`
		Answer string `yaml:"answer"`
	} `yaml:"candidates"`
}

func newRankCommand() *cobra.Command {
	var (
		configPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "rank <candidates.yaml>",
		Short: "Rank multiple candidate answers against one question",
		Long: `Rank multiple candidate answers against one question.

The input file holds the question and the candidate answers:

    question: find two numbers summing to target
    candidates:
      - id: c1
        answer: use a hash map for O(1) lookups
      - id: c2
        answer: nested loops over all pairs

Candidates are evaluated concurrently; one candidate's failure shows up
as a score-0 entry instead of failing the whole request. The ranking is
printed as JSON on stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question, candidates, err := loadRankRequest(args[0])
			if err != nil {
				return err
			}

			engine, err := newEngine(configPath, verbose)
			if err != nil {
				return err
			}
			defer engine.Close()

			ranked, err := engine.coordinator.Rank(cmd.Context(), question, candidates)
			if err != nil {
				return fmt.Errorf("ranking failed: %w", err)
			}

			return printJSON(cmd, ranked)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	return cmd
}

func loadRankRequest(path string) (string, []domain.CandidateAnswer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read candidates file: %w", err)
	}

	var request rankRequest
	if err := yaml.Unmarshal(data, &request); err != nil {
		return "", nil, fmt.Errorf("parse candidates file: %w", err)
	}
	if request.Question == "" {
		return "", nil, fmt.Errorf("candidates file must set a question")
	}
	if len(request.Candidates) == 0 {
		return "", nil, fmt.Errorf("candidates file must list at least one candidate")
	}

	candidates := make([]domain.CandidateAnswer, len(request.Candidates))
	for i, c := range request.Candidates {
		if c.ID == "" {
			return "", nil, fmt.Errorf("candidate %d is missing an id", i)
		}
		candidates[i] = domain.CandidateAnswer{ID: c.ID, Answer: c.Answer}
	}

	return request.Question, candidates, nil
}
