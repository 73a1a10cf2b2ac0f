// Package scoring implements the questionnaire scoring engine: it turns a
// single completed questionnaire into weighted per-category scores, a risk
// classification, critical findings, and remediation recommendations.
package scoring

import (
	"fmt"
	"math"

	"github.com/ahrav/go-sentinel/internal/domain"
)

// weightSumTolerance bounds floating-point drift when checking that a
// sector's category weights sum to 1.0.
const weightSumTolerance = 1e-6

// Config holds the data-driven scoring tables. The numeric defaults are
// editorial calibration choices carried over from field use; the contract
// is the mechanism (lookup, clamping, monotonic thresholds), not the
// specific values.
type Config struct {
	// DefaultWeights maps categories to weights for unknown sectors.
	// The table must cover every taxonomy category and sum to 1.0.
	DefaultWeights map[domain.EvidenceCategory]float64 `yaml:"default_weights" json:"default_weights" validate:"required,min=1"`

	// SectorWeights overrides DefaultWeights per sector. Each table must
	// cover every taxonomy category and sum to 1.0. Sector names are
	// matched after folding.
	SectorWeights map[string]map[domain.EvidenceCategory]float64 `yaml:"sector_weights" json:"sector_weights"`

	// CriticalKeywords flags a boolean "no" answer as a critical issue
	// regardless of the category score.
	CriticalKeywords []string `yaml:"critical_keywords" json:"critical_keywords" validate:"required,min=1"`

	// CriticalCategories lists categories where a constraint rating of 3
	// on any answer is itself a critical issue.
	CriticalCategories []domain.EvidenceCategory `yaml:"critical_categories" json:"critical_categories"`
}

// Validate checks the weight tables for completeness and unit sums.
func (c Config) Validate() error {
	if err := validateWeights("default", c.DefaultWeights); err != nil {
		return err
	}
	for sector, weights := range c.SectorWeights {
		if err := validateWeights(sector, weights); err != nil {
			return err
		}
	}
	if len(c.CriticalKeywords) == 0 {
		return fmt.Errorf("%w: critical keyword list cannot be empty", domain.ErrInvalidConfiguration)
	}
	return nil
}

func validateWeights(name string, weights map[domain.EvidenceCategory]float64) error {
	if len(weights) == 0 {
		return fmt.Errorf("%w: weight table %q is empty", domain.ErrInvalidConfiguration, name)
	}
	// A category missing from the table would score responses and then
	// weigh them at zero. Require full taxonomy coverage instead.
	for _, category := range domain.Categories() {
		if _, ok := weights[category]; !ok {
			return fmt.Errorf("%w: weight table %q is missing category %s",
				domain.ErrInvalidConfiguration, name, category)
		}
	}
	sum := 0.0
	for category, w := range weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("%w: weight table %q: category %s weight %.3f outside [0,1]",
				domain.ErrInvalidConfiguration, name, category, w)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("%w: weight table %q sums to %.6f, want 1.0",
			domain.ErrInvalidConfiguration, name, sum)
	}
	return nil
}

// DefaultConfig returns the built-in scoring tables.
func DefaultConfig() Config {
	return Config{
		DefaultWeights: map[domain.EvidenceCategory]float64{
			domain.CategoryAccessControl:     0.15,
			domain.CategorySurveillance:      0.12,
			domain.CategoryPerimeter:         0.10,
			domain.CategoryTraining:          0.08,
			domain.CategoryProcedures:        0.10,
			domain.CategoryIncidents:         0.08,
			domain.CategoryInfrastructure:    0.12,
			domain.CategoryDataProtection:    0.10,
			domain.CategoryPersonnelSecurity: 0.08,
			domain.CategoryGeneral:           0.07,
		},
		SectorWeights: map[string]map[domain.EvidenceCategory]float64{
			"mines": {
				domain.CategoryAccessControl:     0.12,
				domain.CategorySurveillance:      0.12,
				domain.CategoryPerimeter:         0.15,
				domain.CategoryTraining:          0.08,
				domain.CategoryProcedures:        0.08,
				domain.CategoryIncidents:         0.10,
				domain.CategoryInfrastructure:    0.16,
				domain.CategoryDataProtection:    0.05,
				domain.CategoryPersonnelSecurity: 0.07,
				domain.CategoryGeneral:           0.07,
			},
			"industrie": {
				domain.CategoryAccessControl:     0.13,
				domain.CategorySurveillance:      0.12,
				domain.CategoryPerimeter:         0.14,
				domain.CategoryTraining:          0.07,
				domain.CategoryProcedures:        0.09,
				domain.CategoryIncidents:         0.08,
				domain.CategoryInfrastructure:    0.15,
				domain.CategoryDataProtection:    0.08,
				domain.CategoryPersonnelSecurity: 0.07,
				domain.CategoryGeneral:           0.07,
			},
			"services": {
				domain.CategoryAccessControl:     0.14,
				domain.CategorySurveillance:      0.10,
				domain.CategoryPerimeter:         0.06,
				domain.CategoryTraining:          0.10,
				domain.CategoryProcedures:        0.12,
				domain.CategoryIncidents:         0.07,
				domain.CategoryInfrastructure:    0.08,
				domain.CategoryDataProtection:    0.16,
				domain.CategoryPersonnelSecurity: 0.10,
				domain.CategoryGeneral:           0.07,
			},
		},
		CriticalKeywords: []string{
			"clôture", "fence",
			"contrôle d'accès", "access control",
			"surveillance",
			"extincteur", "extinguisher",
			"détection incendie", "fire detection",
			"groupe électrogène", "backup generator",
			"sauvegarde", "backup",
			"antivirus",
		},
		CriticalCategories: []domain.EvidenceCategory{
			domain.CategoryAccessControl,
			domain.CategoryPerimeter,
			domain.CategoryInfrastructure,
			domain.CategoryDataProtection,
		},
	}
}
