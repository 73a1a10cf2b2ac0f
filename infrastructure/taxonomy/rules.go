package taxonomy

import (
	"fmt"

	"github.com/ahrav/go-sentinel/internal/domain"
)

// CategoryRule binds a taxonomy category to the keywords that select it.
// Rules are evaluated in order with first-match-wins semantics, so more
// specific categories must precede broader ones.
type CategoryRule struct {
	// Category is the taxonomy category this rule assigns.
	Category domain.EvidenceCategory `yaml:"category" json:"category" validate:"required"`

	// Keywords select the category when any of them appears in the
	// question text. Matching folds case and diacritics.
	Keywords []string `yaml:"keywords" json:"keywords" validate:"required,min=1,dive,min=2"`
}

// Categorizer assigns taxonomy categories to questionnaire text using an
// ordered, externally configurable rule table. It is immutable after
// construction and safe for concurrent use.
type Categorizer struct {
	rules []CategoryRule
}

// NewCategorizer builds a categorizer from an ordered rule table.
// An empty table is rejected; a table that never matches still yields
// domain.CategoryGeneral at lookup time.
func NewCategorizer(rules []CategoryRule) (*Categorizer, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("categorizer requires at least one rule")
	}
	for i, rule := range rules {
		if rule.Category == "" {
			return nil, fmt.Errorf("rule %d: category cannot be empty", i)
		}
		if len(rule.Keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): keywords cannot be empty", i, rule.Category)
		}
	}
	copied := make([]CategoryRule, len(rules))
	copy(copied, rules)
	return &Categorizer{rules: copied}, nil
}

// Categorize returns the category of the first rule whose keywords match
// the question text, or domain.CategoryGeneral when none match.
func (c *Categorizer) Categorize(questionText string) domain.EvidenceCategory {
	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if ContainsKeyword(questionText, kw) {
				return rule.Category
			}
		}
	}
	return domain.CategoryGeneral
}

// Rules returns a copy of the rule table, preserving order.
func (c *Categorizer) Rules() []CategoryRule {
	out := make([]CategoryRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// DefaultRules returns the built-in category rule table. The ordering is
// deliberate: narrowly scoped categories come before broad ones so that
// "contrôle d'accès au serveur" lands in access_control rather than
// data_protection.
func DefaultRules() []CategoryRule {
	return []CategoryRule{
		{
			Category: domain.CategoryAccessControl,
			Keywords: []string{
				"contrôle d'accès", "access control", "badge", "accès",
				"serrure", "verrouillage", "identification",
			},
		},
		{
			Category: domain.CategorySurveillance,
			Keywords: []string{
				"surveillance", "caméra", "vidéo", "cctv", "alarme",
				"détection d'intrusion", "gardien", "ronde",
			},
		},
		{
			Category: domain.CategoryPerimeter,
			Keywords: []string{
				"clôture", "périmètre", "barrière", "portail", "enceinte",
				"fence", "perimeter", "éclairage extérieur",
			},
		},
		{
			Category: domain.CategoryTraining,
			Keywords: []string{
				"formation", "sensibilisation", "training", "exercice",
				"entraînement",
			},
		},
		{
			Category: domain.CategoryIncidents,
			Keywords: []string{
				"incident", "accident", "intrusion", "sinistre", "vol",
				"cambriolage",
			},
		},
		{
			Category: domain.CategoryInfrastructure,
			Keywords: []string{
				"électrogène", "générateur", "generator", "extincteur",
				"incendie", "sprinkler", "électrique", "énergie",
				"climatisation", "bâtiment", "infrastructure",
			},
		},
		{
			Category: domain.CategoryDataProtection,
			Keywords: []string{
				"sauvegarde", "backup", "antivirus", "données",
				"informatique", "cyber", "serveur", "mot de passe",
				"chiffrement",
			},
		},
		{
			Category: domain.CategoryPersonnelSecurity,
			Keywords: []string{
				"habilitation", "recrutement", "visiteur", "sous-traitant",
				"personnel", "employé",
			},
		},
		{
			Category: domain.CategoryProcedures,
			Keywords: []string{
				"procédure", "consigne", "protocole", "politique",
				"registre", "procedure", "policy", "plan d'urgence",
			},
		},
	}
}
