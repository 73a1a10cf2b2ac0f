package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-sentinel/internal/domain"
)

func TestNewCategorizer(t *testing.T) {
	t.Run("rejects empty rule table", func(t *testing.T) {
		_, err := NewCategorizer(nil)
		assert.Error(t, err)
	})

	t.Run("rejects rule without keywords", func(t *testing.T) {
		_, err := NewCategorizer([]CategoryRule{
			{Category: domain.CategoryTraining},
		})
		assert.Error(t, err)
	})

	t.Run("rejects rule without category", func(t *testing.T) {
		_, err := NewCategorizer([]CategoryRule{
			{Keywords: []string{"formation"}},
		})
		assert.Error(t, err)
	})

	t.Run("copies the rule table", func(t *testing.T) {
		rules := []CategoryRule{
			{Category: domain.CategoryTraining, Keywords: []string{"formation"}},
		}
		c, err := NewCategorizer(rules)
		require.NoError(t, err)

		rules[0].Category = domain.CategoryGeneral
		assert.Equal(t, domain.CategoryTraining, c.Categorize("formation incendie annuelle"))
	})
}

func TestCategorizerCategorize(t *testing.T) {
	c, err := NewCategorizer(DefaultRules())
	require.NoError(t, err)

	tests := []struct {
		name     string
		question string
		want     domain.EvidenceCategory
	}{
		{
			name:     "access control by badge",
			question: "Disposez-vous d'un contrôle d'accès par badge ?",
			want:     domain.CategoryAccessControl,
		},
		{
			name:     "surveillance cameras",
			question: "Le site dispose-t-il de caméras de surveillance ?",
			want:     domain.CategorySurveillance,
		},
		{
			name:     "perimeter fence accent-insensitive",
			question: "La cloture est-elle en bon état ?",
			want:     domain.CategoryPerimeter,
		},
		{
			name:     "backup generator",
			question: "Disposez-vous d'un groupe électrogène de secours ?",
			want:     domain.CategoryInfrastructure,
		},
		{
			name:     "data backups",
			question: "Des sauvegardes régulières sont-elles effectuées ?",
			want:     domain.CategoryDataProtection,
		},
		{
			name:     "first match wins over later rules",
			question: "Le contrôle d'accès au serveur est-il journalisé ?",
			want:     domain.CategoryAccessControl,
		},
		{
			name:     "unmatched falls back to general",
			question: "Combien de sites exploitez-vous ?",
			want:     domain.CategoryGeneral,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Categorize(tt.question))
		})
	}
}
