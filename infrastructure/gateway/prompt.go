package gateway

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ahrav/go-sentinel/internal/domain"
)

// RenderPrompt turns the structured evidence context into the prompt
// sent to the model. The rendering is deterministic: map-backed sections
// are sorted so identical requests produce identical prompts.
func RenderPrompt(req domain.ReasoningRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a security risk analyst. Assess the %s criterion for the scenario below.\n\n", req.Criterion)
	fmt.Fprintf(&b, "Target: %s\n", req.Target)
	fmt.Fprintf(&b, "Scenario: %s\n", req.Scenario)
	fmt.Fprintf(&b, "Score range: %d (lowest) to %d (highest)\n", req.ScoreMin, req.ScoreMax)
	fmt.Fprintf(&b, "Baseline score from questionnaire evidence: %d\n", req.BaselineScore)

	if len(req.EvidenceSummary) > 0 {
		b.WriteString("\nEvidence from security evaluations:\n")
		for _, line := range req.EvidenceSummary {
			b.WriteString("- " + line + "\n")
		}
	}

	if len(req.DomainScores) > 0 {
		b.WriteString("\nMean scores per security domain (0-100):\n")
		categories := make([]domain.EvidenceCategory, 0, len(req.DomainScores))
		for c := range req.DomainScores {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
		for _, c := range categories {
			fmt.Fprintf(&b, "- %s: %.1f\n", c, req.DomainScores[c])
		}
	}

	writeSection(&b, "Patterns observed across evaluations", req.Patterns)
	writeSection(&b, "Known weaknesses", req.Weaknesses)
	writeSection(&b, "Known strengths", req.Strengths)

	b.WriteString("\n" + req.Instructions + "\n")
	b.WriteString("Respond with JSON only, no surrounding prose.\n")

	return b.String()
}

func writeSection(b *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n" + title + ":\n")
	for _, line := range lines {
		b.WriteString("- " + line + "\n")
	}
}

// ExtractJSON pulls a JSON object out of a model reply that may wrap it
// in markdown fences or surrounding prose. Returns "" when no object can
// be located.
func ExtractJSON(response string) string {
	response = strings.TrimSpace(response)

	if strings.Contains(response, "```json") {
		start := strings.Index(response, "```json") + len("```json")
		if end := strings.Index(response[start:], "```"); end != -1 {
			return strings.TrimSpace(response[start : start+end])
		}
	}

	if strings.Contains(response, "```") {
		start := strings.Index(response, "```") + 3
		// Skip a language identifier on the fence line.
		if nl := strings.Index(response[start:], "\n"); nl != -1 {
			start += nl + 1
		}
		if end := strings.Index(response[start:], "```"); end != -1 {
			candidate := strings.TrimSpace(response[start : start+end])
			if strings.HasPrefix(candidate, "{") {
				return candidate
			}
		}
	}

	// Fall back to brace matching over the raw text.
	start := strings.Index(response, "{")
	if start == -1 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		ch := response[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case !inString && ch == '{':
			depth++
		case !inString && ch == '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return ""
}
