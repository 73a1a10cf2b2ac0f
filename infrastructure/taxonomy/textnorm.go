// Package taxonomy provides the text normalization and data-driven
// categorization rules shared by the scoring engine and the analysis
// pipeline. Questionnaire text is predominantly French, so matching folds
// case and diacritics before comparing.
package taxonomy

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks so "clôture" and "cloture"
// compare equal.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases s and removes diacritics. The result is the canonical
// form used for every keyword comparison in the engine.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, strings.ToLower(s))
	if err != nil {
		// Transform failures only occur on invalid UTF-8; fall back to
		// the lowercased input so matching degrades instead of panicking.
		return strings.ToLower(s)
	}
	return folded
}

// stopwords are high-frequency French and English words excluded from
// tokenization so relevance overlap is driven by content words.
var stopwords = map[string]struct{}{
	"les": {}, "des": {}, "une": {}, "aux": {}, "est": {}, "sont": {},
	"avec": {}, "pour": {}, "dans": {}, "sur": {}, "par": {}, "pas": {},
	"vous": {}, "votre": {}, "vos": {}, "avez": {}, "disposez": {},
	"the": {}, "and": {}, "are": {}, "for": {}, "you": {}, "your": {},
	"have": {}, "does": {}, "with": {},
}

// Tokenize splits s into folded content tokens of three or more runes,
// dropping stopwords. Tokens are returned in order of appearance with
// duplicates preserved.
func Tokenize(s string) []string {
	folded := Fold(s)
	fields := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) < 3 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet returns the distinct tokens of s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// fuzzyMinRunes is the minimum token length eligible for edit-distance
// matching; short tokens produce too many false positives.
const fuzzyMinRunes = 6

// ContainsKeyword reports whether text contains keyword after folding.
// Keywords of six runes or more also match tokens within one edit,
// tolerating typos and inconsistent accenting in questionnaire text.
func ContainsKeyword(text, keyword string) bool {
	foldedText := Fold(text)
	foldedKw := Fold(keyword)
	if foldedKw == "" {
		return false
	}
	if strings.Contains(foldedText, foldedKw) {
		return true
	}

	kwRunes := len([]rune(foldedKw))
	if kwRunes < fuzzyMinRunes || strings.ContainsRune(foldedKw, ' ') {
		return false
	}
	for _, tok := range Tokenize(text) {
		tokRunes := len([]rune(tok))
		if tokRunes < fuzzyMinRunes {
			continue
		}
		if diff := tokRunes - kwRunes; diff > 1 || diff < -1 {
			continue
		}
		if levenshtein.ComputeDistance(tok, foldedKw) <= 1 {
			return true
		}
	}
	return false
}

// OverlapScore returns the fraction of contextTokens found in text,
// in [0,1]. An empty context yields 0.
func OverlapScore(text string, contextTokens map[string]struct{}) float64 {
	if len(contextTokens) == 0 {
		return 0
	}
	textTokens := TokenSet(text)
	matched := 0
	for tok := range contextTokens {
		if _, ok := textTokens[tok]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(contextTokens))
}
