// Package analysis implements the cross-evaluation half of the engine:
// evidence extraction, aggregation into an immutable analysis context,
// pattern and anomaly detection, criterion reasoning, synthesis, and
// citation tracking. Every stage is a pure computation over in-memory
// collections; only the citation tracker accumulates state, and each
// analysis run owns its own tracker instance.
package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ahrav/go-sentinel/infrastructure/taxonomy"
	"github.com/ahrav/go-sentinel/internal/domain"
)

// Evidence confidence bases per response shape, scaled by question
// complexity. Structured answers are worth more than free text.
const (
	confidenceBoolean    = 0.8
	confidenceBothScores = 0.9
	confidenceText       = 0.6
	confidencePercentage = 0.7

	// minTextLength is the shortest free-text answer that still counts
	// as evidence.
	minTextLength = 10

	// bothScoresWeight is the quality-average weight of answers carrying
	// both facility and constraint ratings.
	bothScoresWeight = 1.5

	// contextualRelevanceThreshold is the rule-based co-occurrence score
	// above which a response is risk-relevant even without direct token
	// overlap.
	contextualRelevanceThreshold = 0.6

	// categoryRelevanceFloor is the minimum relevance granted to items in
	// the risk context's explicitly requested category.
	categoryRelevanceFloor = 0.7
)

// RelevanceRule scores a keyword co-occurrence between the risk context
// and a question, e.g. a target mentioning "accès" pairs with questions
// mentioning "contrôle".
type RelevanceRule struct {
	// ContextKeyword must appear in the target or scenario text.
	ContextKeyword string `yaml:"context_keyword" json:"context_keyword" validate:"required,min=2"`

	// QuestionKeyword must appear in the question text.
	QuestionKeyword string `yaml:"question_keyword" json:"question_keyword" validate:"required,min=2"`

	// Score in [0,1] is the contextual relevance granted on a match.
	Score float64 `yaml:"score" json:"score" validate:"min=0,max=1"`
}

// DefaultRelevanceRules returns the built-in co-occurrence table.
func DefaultRelevanceRules() []RelevanceRule {
	return []RelevanceRule{
		{ContextKeyword: "accès", QuestionKeyword: "contrôle", Score: 0.8},
		{ContextKeyword: "intrusion", QuestionKeyword: "clôture", Score: 0.8},
		{ContextKeyword: "intrusion", QuestionKeyword: "alarme", Score: 0.7},
		{ContextKeyword: "intrusion", QuestionKeyword: "surveillance", Score: 0.7},
		{ContextKeyword: "vol", QuestionKeyword: "surveillance", Score: 0.7},
		{ContextKeyword: "vol", QuestionKeyword: "accès", Score: 0.7},
		{ContextKeyword: "incendie", QuestionKeyword: "extincteur", Score: 0.9},
		{ContextKeyword: "incendie", QuestionKeyword: "détection", Score: 0.8},
		{ContextKeyword: "panne", QuestionKeyword: "électrogène", Score: 0.8},
		{ContextKeyword: "électrique", QuestionKeyword: "électrogène", Score: 0.8},
		{ContextKeyword: "cyberattaque", QuestionKeyword: "sauvegarde", Score: 0.8},
		{ContextKeyword: "cyberattaque", QuestionKeyword: "antivirus", Score: 0.8},
		{ContextKeyword: "sabotage", QuestionKeyword: "accès", Score: 0.7},
		{ContextKeyword: "sabotage", QuestionKeyword: "habilitation", Score: 0.7},
	}
}

// Extractor converts raw evaluation responses into normalized, scored
// evidence items. It is stateless and safe for concurrent use.
type Extractor struct {
	categorizer *taxonomy.Categorizer
	rules       []RelevanceRule
}

// NewExtractor builds an extractor over a categorizer and a relevance
// rule table.
func NewExtractor(categorizer *taxonomy.Categorizer, rules []RelevanceRule) (*Extractor, error) {
	if categorizer == nil {
		return nil, fmt.Errorf("categorizer cannot be nil")
	}
	copied := make([]RelevanceRule, len(rules))
	copy(copied, rules)
	return &Extractor{categorizer: categorizer, rules: copied}, nil
}

// Extract converts every well-formed response of the evaluation into an
// evidence item. Malformed responses are skipped; they never abort the
// extraction. Items come back in response order so reruns are
// byte-identical.
func (x *Extractor) Extract(eval domain.Evaluation, risk domain.RiskContext) []domain.EvidenceItem {
	contextText := risk.Target + " " + risk.Scenario
	contextTokens := taxonomy.TokenSet(contextText)

	items := make([]domain.EvidenceItem, 0, len(eval.Responses))
	for _, resp := range eval.Responses {
		item, ok := x.extractOne(eval, resp, contextText, contextTokens, risk.Category)
		if !ok {
			continue
		}
		items = append(items, item)
	}
	return items
}

// extractOne normalizes one response. It returns false for responses that
// carry no usable answer or are missing identity fields.
func (x *Extractor) extractOne(
	eval domain.Evaluation,
	resp domain.EvaluationResponse,
	contextText string,
	contextTokens map[string]struct{},
	focusCategory domain.EvidenceCategory,
) (domain.EvidenceItem, bool) {
	if resp.QuestionID == "" || resp.QuestionText == "" {
		return domain.EvidenceItem{}, false
	}

	item := domain.EvidenceItem{
		ID:       domain.EvidenceID(eval.ID, resp.QuestionID),
		Source:   eval.Title,
		Category: x.categorizer.Categorize(resp.QuestionText),
		Question: resp.QuestionText,
	}

	complexity := questionComplexity(resp.QuestionText)

	switch {
	case resp.BoolValue != nil:
		b := *resp.BoolValue
		item.ResponseType = domain.ResponseBoolean
		item.Value = strconv.FormatBool(b)
		item.BoolValue = &b
		item.Confidence = confidenceBoolean * complexity
	case resp.NumberValue != nil:
		v := *resp.NumberValue
		item.ResponseType = domain.ResponsePercentage
		item.Value = strconv.FormatFloat(v, 'f', -1, 64)
		item.NumberValue = &v
		item.Confidence = confidencePercentage * complexity
	case len(strings.TrimSpace(resp.TextValue)) > minTextLength:
		item.ResponseType = domain.ResponseText
		item.Value = strings.TrimSpace(resp.TextValue)
		item.Confidence = confidenceText * complexity
	case resp.HasBothScores():
		item.ResponseType = domain.ResponseScore
		item.Value = fmt.Sprintf("facility=%d constraint=%d", *resp.FacilityScore, *resp.ConstraintScore)
		item.Confidence = confidenceBothScores * complexity
	default:
		return domain.EvidenceItem{}, false
	}

	// Answers carrying both ratings are the most trustworthy shape
	// regardless of their primary value type.
	if resp.HasBothScores() {
		item.Rated = true
		if item.Confidence < confidenceBothScores*complexity {
			item.Confidence = confidenceBothScores * complexity
		}
	}

	item.Relevance = x.relevance(resp.QuestionText, contextText, contextTokens)
	if focusCategory != "" && item.Category == focusCategory && item.Relevance < categoryRelevanceFloor {
		item.Relevance = categoryRelevanceFloor
	}
	return item, true
}

// relevance combines direct token overlap with the rule-based
// co-occurrence score, keeping whichever is stronger. Contextual scores
// only count once they clear the relevance threshold; below it they are
// noise, not evidence of relatedness.
func (x *Extractor) relevance(question, contextText string, contextTokens map[string]struct{}) float64 {
	overlap := taxonomy.OverlapScore(question, contextTokens)
	contextual := x.contextualScore(contextText, question)
	if contextual <= contextualRelevanceThreshold {
		contextual = 0
	}
	if contextual > overlap {
		return contextual
	}
	return overlap
}

// contextualScore returns the best co-occurrence rule score, or 0 when no
// rule fires.
func (x *Extractor) contextualScore(contextText, question string) float64 {
	best := 0.0
	for _, rule := range x.rules {
		if rule.Score <= best {
			continue
		}
		if taxonomy.ContainsKeyword(contextText, rule.ContextKeyword) &&
			taxonomy.ContainsKeyword(question, rule.QuestionKeyword) {
			best = rule.Score
		}
	}
	return best
}

// IsRelevant applies the risk-relevance filter: direct overlap with the
// context tokens, a contextual score above the threshold, or membership
// in the explicitly requested category. All three paths leave a non-zero
// relevance on the item.
func IsRelevant(item domain.EvidenceItem) bool {
	return item.Relevance > 0
}

// questionComplexity scales evidence confidence by how substantial the
// question wording is: longer questions and compound clauses produce more
// informative answers.
func questionComplexity(question string) float64 {
	c := 0.85
	if len(question) > 40 {
		c += 0.05
	}
	if len(question) > 80 {
		c += 0.05
	}
	folded := " " + taxonomy.Fold(question) + " "
	if strings.Contains(folded, " et ") || strings.Contains(folded, " ou ") ||
		strings.Contains(folded, " and ") {
		c += 0.05
	}
	if c > 1.0 {
		c = 1.0
	}
	return c
}
