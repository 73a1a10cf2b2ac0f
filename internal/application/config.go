package application

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-sentinel/infrastructure/analysis"
	"github.com/ahrav/go-sentinel/infrastructure/gateway"
	"github.com/ahrav/go-sentinel/infrastructure/scoring"
	"github.com/ahrav/go-sentinel/infrastructure/taxonomy"
	"github.com/ahrav/go-sentinel/internal/domain"
)

// EngineConfig is the primary configuration entry point for the risk
// engine. Every section has a working default, so an empty file yields a
// fully functional engine; overrides are validated strictly.
type EngineConfig struct {
	// Scoring configures category weights, sector weight tables and
	// critical-issue rules.
	Scoring scoring.Config `yaml:"scoring"`

	// Taxonomy configures the category keyword rules used to classify
	// questions, in priority order.
	Taxonomy []taxonomy.CategoryRule `yaml:"taxonomy" validate:"omitempty,dive"`

	// Relevance configures the scenario-to-question co-occurrence rules
	// used during evidence extraction.
	Relevance []analysis.RelevanceRule `yaml:"relevance" validate:"omitempty,dive"`

	// Profiles overrides the criterion score parameterization. Criteria
	// absent from a partial map keep their default profile.
	Profiles map[domain.Criterion]analysis.CriterionProfile `yaml:"profiles" validate:"omitempty,dive"`

	// Gateway configures the optional external reasoning oracle. A nil
	// section keeps the engine fully offline.
	Gateway *gateway.Config `yaml:"gateway"`

	// OracleStepDelay paces sequential oracle dispatch when concurrent
	// dispatch is unavailable or has failed.
	OracleStepDelay time.Duration `yaml:"oracle_step_delay"`
}

// DefaultEngineConfig returns a complete offline configuration.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Scoring:         scoring.DefaultConfig(),
		Taxonomy:        taxonomy.DefaultRules(),
		Relevance:       analysis.DefaultRelevanceRules(),
		Profiles:        analysis.DefaultProfiles(),
		OracleStepDelay: time.Second,
	}
}

// Validate checks the configuration for internal consistency.
func (c EngineConfig) Validate() error {
	if err := c.Scoring.Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}
	return nil
}

// LoadEngineConfig reads an engine configuration from a YAML file.
// Unknown fields are rejected. Sections absent from the file keep their
// defaults.
func LoadEngineConfig(path string) (EngineConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()
	return LoadEngineConfigFromReader(f)
}

// LoadEngineConfigFromReader parses an engine configuration in strict
// mode from r.
func LoadEngineConfigFromReader(r io.Reader) (EngineConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return EngineConfig{}, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultEngineConfig()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict mode, fail on unknown fields.
	if err := decoder.Decode(&config); err != nil && err != io.EOF {
		return EngineConfig{}, fmt.Errorf("%w: %v", domain.ErrInvalidConfiguration, err)
	}

	if err := config.Validate(); err != nil {
		return EngineConfig{}, err
	}
	return config, nil
}
