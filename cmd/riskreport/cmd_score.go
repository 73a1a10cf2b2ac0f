package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-sentinel/internal/application"
)

var scoreFlags struct {
	evaluations string
	configPath  string
	id          string
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score evaluations and classify their risk level",
	Long: `Score computes the weighted total score, per-category scores, risk level
and recommendations for each evaluation in the input file.

Usage:
  riskreport score --evaluations evals.json
  riskreport score --evaluations evals.json --id site-nord-2026`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVarP(&scoreFlags.evaluations, "evaluations", "e", "", "Path to evaluations JSON file")
	f.StringVarP(&scoreFlags.configPath, "config", "c", "", "Path to engine config YAML (optional)")
	f.StringVar(&scoreFlags.id, "id", "", "Score only the evaluation with this id")
	_ = scoreCmd.MarkFlagRequired("evaluations")
}

func runScore(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(scoreFlags.configPath)
	if err != nil {
		return err
	}
	engine, err := application.NewEngine(config)
	if err != nil {
		return err
	}

	evaluations, err := loadEvaluations(scoreFlags.evaluations)
	if err != nil {
		return err
	}

	type scored struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Result any    `json:"result"`
	}

	results := make([]scored, 0, len(evaluations))
	for _, eval := range evaluations {
		if scoreFlags.id != "" && eval.ID != scoreFlags.id {
			continue
		}
		result := engine.ScoreEvaluation(cmd.Context(), eval)
		results = append(results, scored{ID: eval.ID, Title: eval.Title, Result: result})
	}

	if len(results) == 0 {
		return fmt.Errorf("no evaluation matched id %q", scoreFlags.id)
	}
	return printJSON(results)
}
