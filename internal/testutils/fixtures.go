// Package testutils provides deterministic evaluation fixtures and a
// scripted reasoning oracle for tests across the engine packages.
package testutils

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ahrav/go-sentinel/internal/domain"
)

// QuestionBank holds representative questionnaire questions per taxonomy
// category, in the French wording the scoring rules are tuned for.
var QuestionBank = map[domain.EvidenceCategory][]string{
	domain.CategoryAccessControl:   {"Disposez-vous d'un contrôle d'accès par badge ?", "Les accès visiteurs sont-ils enregistrés ?"},
	domain.CategorySurveillance:    {"Le site dispose-t-il de caméras de surveillance ?", "Une alarme anti-intrusion est-elle installée ?"},
	domain.CategoryPerimeter:       {"Le site est-il entouré d'une clôture en bon état ?"},
	domain.CategoryTraining:        {"Le personnel reçoit-il une formation sécurité annuelle ?"},
	domain.CategoryIncidents:       {"Les incidents de sécurité sont-ils documentés ?"},
	domain.CategoryInfrastructure:  {"Disposez-vous d'un groupe électrogène de secours ?", "Des extincteurs sont-ils présents et vérifiés ?"},
	domain.CategoryDataProtection:  {"Des sauvegardes régulières sont-elles effectuées ?", "Un antivirus est-il déployé sur tous les postes ?"},
	domain.CategoryProcedures:      {"Une procédure d'évacuation est-elle affichée ?"},
}

// BoolPtr, Float64Ptr and IntPtr build pointer fields for responses.
func BoolPtr(v bool) *bool          { return &v }
func Float64Ptr(v float64) *float64 { return &v }
func IntPtr(v int) *int             { return &v }

// BoolResponse builds an answered boolean response.
func BoolResponse(id, question string, value bool) domain.EvaluationResponse {
	return domain.EvaluationResponse{
		QuestionID:   id,
		QuestionText: question,
		BoolValue:    BoolPtr(value),
	}
}

// RatedBoolResponse builds a boolean response carrying facility and
// constraint ratings.
func RatedBoolResponse(id, question string, value bool, facility, constraint int) domain.EvaluationResponse {
	resp := BoolResponse(id, question, value)
	resp.FacilityScore = IntPtr(facility)
	resp.ConstraintScore = IntPtr(constraint)
	return resp
}

// PercentResponse builds an answered percentage response.
func PercentResponse(id, question string, value float64) domain.EvaluationResponse {
	return domain.EvaluationResponse{
		QuestionID:   id,
		QuestionText: question,
		NumberValue:  Float64Ptr(value),
	}
}

// CompletedEvaluation builds a completed evaluation with a total score
// and a completion date offset in days from a fixed epoch, so ordering
// in temporal tests is explicit.
func CompletedEvaluation(id, title, sector string, totalScore float64, dayOffset int, responses ...domain.EvaluationResponse) domain.Evaluation {
	completed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC).AddDate(0, 0, dayOffset)
	level := domain.RiskLevelForScore(totalScore)
	return domain.Evaluation{
		ID:          id,
		Title:       title,
		Status:      domain.StatusCompleted,
		TotalScore:  &totalScore,
		RiskLevel:   level,
		Sector:      sector,
		CompletedAt: &completed,
		Responses:   responses,
	}
}

// StrongPostureResponses answers the question bank positively, the way a
// well-secured site would.
func StrongPostureResponses() []domain.EvaluationResponse {
	var out []domain.EvaluationResponse
	i := 0
	for _, category := range domain.Categories() {
		for _, question := range QuestionBank[category] {
			i++
			out = append(out, BoolResponse(fmt.Sprintf("q%d", i), question, true))
		}
	}
	return out
}

// WeakPostureResponses answers the question bank negatively.
func WeakPostureResponses() []domain.EvaluationResponse {
	var out []domain.EvaluationResponse
	i := 0
	for _, category := range domain.Categories() {
		for _, question := range QuestionBank[category] {
			i++
			out = append(out, BoolResponse(fmt.Sprintf("q%d", i), question, false))
		}
	}
	return out
}

// ScriptedGateway implements ports.ReasoningGateway with canned
// responses keyed by criterion, for engine tests without a network.
type ScriptedGateway struct {
	mu sync.Mutex

	// Responses maps criteria to the response to return.
	Responses map[domain.Criterion]domain.ReasoningResponse

	// Errors maps criteria to an error returned instead of a response.
	Errors map[domain.Criterion]error

	// Requests records every request received, in arrival order.
	Requests []domain.ReasoningRequest
}

// NewScriptedGateway creates a gateway that echoes the baseline score
// for any criterion not explicitly scripted.
func NewScriptedGateway() *ScriptedGateway {
	return &ScriptedGateway{
		Responses: make(map[domain.Criterion]domain.ReasoningResponse),
		Errors:    make(map[domain.Criterion]error),
	}
}

// Analyze implements ports.ReasoningGateway.
func (g *ScriptedGateway) Analyze(_ context.Context, req domain.ReasoningRequest) (domain.ReasoningResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Requests = append(g.Requests, req)

	if err, ok := g.Errors[req.Criterion]; ok {
		return domain.ReasoningResponse{}, err
	}
	if resp, ok := g.Responses[req.Criterion]; ok {
		return resp, nil
	}
	return domain.ReasoningResponse{
		Score:       float64(req.BaselineScore),
		Explanation: "scripted assessment echoing the baseline score",
		Confidence:  0.8,
	}, nil
}

// Model implements ports.ReasoningGateway.
func (g *ScriptedGateway) Model() string { return "scripted" }
