package retriever

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

type LexicalParams struct {
	TokenWeight      float64
	LengthPenalty    float64
	LengthPenaltyCap int
}

var DefaultLexical = LexicalParams{TokenWeight: 1.0, LengthPenalty: 0.001, LengthPenaltyCap: 300}

// fold applies NFKC and Unicode case folding. A Caser is stateful, so one is
// built per call.
func fold(text string) string {
	return cases.Fold().String(norm.NFKC.String(text))
}

// Tokenize splits text into de-duplicated, case-folded word tokens in first-seen order.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(fold(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

// LexicalScore adds TokenWeight for each token found as a substring of the
// description and subtracts a length penalty capped at LengthPenaltyCap runes.
func LexicalScore(tokens []string, description string, p LexicalParams) float64 {
	folded := fold(description)

	score := 0.0
	for _, tok := range tokens {
		if strings.Contains(folded, tok) {
			score += p.TokenWeight
		}
	}

	length := min(utf8.RuneCountInString(description), p.LengthPenaltyCap)
	return score - float64(length)*p.LengthPenalty
}

// MinMaxNormalize scales scores into [0, 1]. A pool with no spread maps to all zeros.
func MinMaxNormalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		lo = min(lo, s)
		hi = max(hi, s)
	}

	spread := hi - lo
	if spread <= 0 {
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / spread
	}
	return out
}
