package analysis

import (
	"fmt"
	"sort"

	"github.com/ahrav/go-sentinel/internal/domain"
)

// Citation quality thresholds for the validation report.
const (
	// lowWeightThreshold marks a citation as weak.
	lowWeightThreshold = 0.3

	// lowWeightAlarmFraction triggers the global quality alarm when this
	// fraction of citations is weak.
	lowWeightAlarmFraction = 0.5
)

// Tracker maintains the mapping from each criterion conclusion back to
// the specific evidence items that justify it. One tracker serves exactly
// one analysis session; it is the only stateful component in the
// pipeline and is not safe for concurrent use.
type Tracker struct {
	evidence map[string]domain.EvidenceItem
	order    []string
	cited    []domain.Citation
	index    map[domain.Criterion]map[domain.SupportType][]domain.Citation
}

// NewTracker creates an empty citation tracker for one analysis run.
func NewTracker() *Tracker {
	return &Tracker{
		evidence: make(map[string]domain.EvidenceItem),
		index:    make(map[domain.Criterion]map[domain.SupportType][]domain.Citation),
	}
}

// AddEvidence registers evidence items so they can be cited. Re-adding an
// id overwrites the stored item but keeps its original position.
func (t *Tracker) AddEvidence(items ...domain.EvidenceItem) {
	for _, item := range items {
		if item.ID == "" {
			continue
		}
		if _, seen := t.evidence[item.ID]; !seen {
			t.order = append(t.order, item.ID)
		}
		t.evidence[item.ID] = item
	}
}

// AddEvidenceFromEvaluations extracts and registers evidence from raw
// evaluations using the same normalization rules as the aggregator.
func (t *Tracker) AddEvidenceFromEvaluations(
	extractor *Extractor,
	risk domain.RiskContext,
	evaluations []domain.Evaluation,
) {
	for _, eval := range evaluations {
		t.AddEvidence(extractor.Extract(eval, risk)...)
	}
}

// Evidence returns the registered item for an id.
func (t *Tracker) Evidence(id string) (domain.EvidenceItem, bool) {
	item, ok := t.evidence[id]
	return item, ok
}

// EvidenceCount returns the number of registered evidence items.
func (t *Tracker) EvidenceCount() int { return len(t.order) }

// Cite links an evidence item to a criterion conclusion. Unknown evidence
// ids fail silently (ok=false): a dangling reference is a data-quality
// warning surfaced by Validate, never a program fault.
func (t *Tracker) Cite(
	evidenceID string,
	criterion domain.Criterion,
	support domain.SupportType,
	context string,
) (domain.Citation, bool) {
	item, ok := t.evidence[evidenceID]
	if !ok {
		return domain.Citation{}, false
	}

	citation := domain.Citation{
		EvidenceID: evidenceID,
		Criterion:  criterion,
		Support:    support,
		Weight:     item.Weight(),
		Context:    context,
	}
	t.cited = append(t.cited, citation)

	bySupport, ok := t.index[criterion]
	if !ok {
		bySupport = make(map[domain.SupportType][]domain.Citation)
		t.index[criterion] = bySupport
	}
	bySupport[support] = append(bySupport[support], citation)

	return citation, true
}

// Citations returns all citations in creation order.
func (t *Tracker) Citations() []domain.Citation {
	out := make([]domain.Citation, len(t.cited))
	copy(out, t.cited)
	return out
}

// CitationsFor returns a criterion's citations of one support type.
func (t *Tracker) CitationsFor(criterion domain.Criterion, support domain.SupportType) []domain.Citation {
	bySupport, ok := t.index[criterion]
	if !ok {
		return nil
	}
	out := make([]domain.Citation, len(bySupport[support]))
	copy(out, bySupport[support])
	return out
}

// FindRelevantEvidence returns the evidence cited for a criterion, sorted
// by confidence x relevance descending and truncated to limit. Ties keep
// registration order so repeated runs return identical slices.
func (t *Tracker) FindRelevantEvidence(criterion domain.Criterion, limit int) []domain.EvidenceItem {
	seen := make(map[string]struct{})
	items := make([]domain.EvidenceItem, 0)
	for _, citation := range t.cited {
		if citation.Criterion != criterion {
			continue
		}
		if _, dup := seen[citation.EvidenceID]; dup {
			continue
		}
		seen[citation.EvidenceID] = struct{}{}
		items = append(items, t.evidence[citation.EvidenceID])
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Weight() > items[j].Weight()
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// Validate checks citation completeness and quality for the session and
// returns an actionable report. Integrity issues are warnings, not
// errors: the report is the only channel through which they surface.
func (t *Tracker) Validate() domain.CitationReport {
	report := domain.CitationReport{
		IsValid:         true,
		Issues:          []string{},
		Recommendations: []string{},
	}

	for _, criterion := range domain.AllCriteria() {
		bySupport := t.index[criterion]
		total := len(bySupport[domain.SupportPositive]) +
			len(bySupport[domain.SupportNegative]) +
			len(bySupport[domain.SupportNeutral])

		if total == 0 {
			report.IsValid = false
			report.Issues = append(report.Issues,
				fmt.Sprintf("criterion %s has no citations", criterion))
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("Collect evidence relevant to %s: no questionnaire answer could be tied to this conclusion", criterion))
			continue
		}

		nonNeutral := total - len(bySupport[domain.SupportNeutral])
		if nonNeutral == 0 {
			report.IsValid = false
			report.Issues = append(report.Issues,
				fmt.Sprintf("criterion %s has only neutral citations", criterion))
			report.Recommendations = append(report.Recommendations,
				fmt.Sprintf("Add questions with clear positive or negative signal for %s: neutral evidence cannot justify a score", criterion))
		}
	}

	if len(t.cited) > 0 {
		weak := 0
		for _, citation := range t.cited {
			if citation.Weight < lowWeightThreshold {
				weak++
			}
		}
		if float64(weak) > lowWeightAlarmFraction*float64(len(t.cited)) {
			report.Issues = append(report.Issues,
				fmt.Sprintf("%d of %d citations have weight below %.1f", weak, len(t.cited), lowWeightThreshold))
			report.Recommendations = append(report.Recommendations,
				"Improve evidence quality: most citations are low-confidence or weakly relevant to the scenario")
		}
	}

	return report
}
