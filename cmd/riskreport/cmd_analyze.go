package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-sentinel/infrastructure/gateway"
	"github.com/ahrav/go-sentinel/internal/application"
	"github.com/ahrav/go-sentinel/internal/domain"
)

var analyzeFlags struct {
	evaluations string
	configPath  string
	target      string
	scenario    string
	category    string
	provider    string
	model       string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a risk scenario against the evaluation history",
	Long: `Analyze aggregates the evaluation history, detects cross-evaluation
patterns and scores the probability, vulnerability and impact of the
named scenario, with citations back to the questionnaire evidence.

The analysis runs fully offline by default. Passing --provider enables
the external reasoning oracle; the API key is read from the
OPENAI_API_KEY or ANTHROPIC_API_KEY environment variable.

Usage:
  riskreport analyze -e evals.json --target "Site Nord" --scenario "intrusion nocturne"
  riskreport analyze -e evals.json --target "Datacenter" --scenario "cyberattaque" --provider anthropic`,
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVarP(&analyzeFlags.evaluations, "evaluations", "e", "", "Path to evaluations JSON file")
	f.StringVarP(&analyzeFlags.configPath, "config", "c", "", "Path to engine config YAML (optional)")
	f.StringVar(&analyzeFlags.target, "target", "", "Asset under analysis")
	f.StringVar(&analyzeFlags.scenario, "scenario", "", "Threat scenario to assess")
	f.StringVar(&analyzeFlags.category, "category", "", "Focus taxonomy category (optional)")
	f.StringVar(&analyzeFlags.provider, "provider", "", "Oracle provider: openai or anthropic (optional)")
	f.StringVar(&analyzeFlags.model, "model", "", "Oracle model override (optional)")
	_ = analyzeCmd.MarkFlagRequired("evaluations")
	_ = analyzeCmd.MarkFlagRequired("target")
	_ = analyzeCmd.MarkFlagRequired("scenario")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(analyzeFlags.configPath)
	if err != nil {
		return err
	}
	if analyzeFlags.provider != "" {
		config.Gateway = &gateway.Config{
			Provider: analyzeFlags.provider,
			APIKey:   apiKeyFor(analyzeFlags.provider),
			Model:    analyzeFlags.model,
		}
	}

	engine, err := application.NewEngine(config)
	if err != nil {
		return err
	}

	evaluations, err := loadEvaluations(analyzeFlags.evaluations)
	if err != nil {
		return err
	}

	risk := domain.RiskContext{
		Target:   analyzeFlags.target,
		Scenario: analyzeFlags.scenario,
		Category: domain.EvidenceCategory(analyzeFlags.category),
	}

	result, err := engine.AnalyzeRisk(cmd.Context(), risk, evaluations)
	if err != nil {
		return err
	}
	return printJSON(result)
}

func apiKeyFor(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}
