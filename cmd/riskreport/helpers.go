package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ahrav/go-sentinel/internal/application"
	"github.com/ahrav/go-sentinel/internal/domain"
)

// loadEvaluations reads a JSON array of evaluations from a file.
func loadEvaluations(path string) ([]domain.Evaluation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading evaluations: %w", err)
	}
	var evaluations []domain.Evaluation
	if err := json.Unmarshal(data, &evaluations); err != nil {
		return nil, fmt.Errorf("parsing evaluations: %w", err)
	}
	return evaluations, nil
}

// loadConfig builds the engine configuration, from a file when one is
// given and from defaults otherwise.
func loadConfig(path string) (application.EngineConfig, error) {
	if path == "" {
		return application.DefaultEngineConfig(), nil
	}
	return application.LoadEngineConfig(path)
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
