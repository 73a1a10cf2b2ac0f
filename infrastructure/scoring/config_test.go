package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ahrav/go-sentinel/internal/domain"
)

func TestConfigValidate(t *testing.T) {
	t.Run("default config is valid", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("sector tables must sum to one", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.SectorWeights["mines"][domain.CategoryGeneral] = 0.2
		assert.Error(t, cfg.Validate())
	})

	t.Run("weights outside unit interval rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DefaultWeights[domain.CategoryGeneral] = -0.07
		assert.Error(t, cfg.Validate())
	})

	t.Run("tables must cover the full taxonomy", func(t *testing.T) {
		cfg := DefaultConfig()
		// Keep the unit sum so only the coverage check can fire.
		cfg.DefaultWeights[domain.CategoryTraining] += cfg.DefaultWeights[domain.CategoryGeneral]
		delete(cfg.DefaultWeights, domain.CategoryGeneral)
		assert.ErrorContains(t, cfg.Validate(), "missing category general")

		cfg = DefaultConfig()
		cfg.SectorWeights["mines"][domain.CategoryPerimeter] += cfg.SectorWeights["mines"][domain.CategoryDataProtection]
		delete(cfg.SectorWeights["mines"], domain.CategoryDataProtection)
		assert.ErrorContains(t, cfg.Validate(), "missing category data_protection")
	})

	t.Run("rounding slack accepted", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DefaultWeights[domain.CategoryGeneral] += 1e-9
		assert.NoError(t, cfg.Validate())
	})
}
