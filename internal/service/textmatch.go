package service

import (
	"strings"

	"github.com/arbovm/levenshtein"

	"go-mrz-scanner/pkg/models"
)

// buildTextMatch scores recognized text against the caller's expected text.
// Returns nil when no expectation was supplied.
func buildTextMatch(expected, recognized string) *models.TextMatch {
	if expected == "" {
		return nil
	}

	normExpected := normalizeText(expected)
	normRecognized := normalizeText(recognized)

	return &models.TextMatch{
		ExpectedText:  expected,
		Similarity:    textSimilarity(normExpected, normRecognized),
		WordErrorRate: wordErrorRate(strings.Fields(normExpected), strings.Fields(normRecognized)),
	}
}

// normalizeText uppercases and collapses all whitespace runs to single
// spaces so comparisons ignore layout differences between MRZ lines.
func normalizeText(text string) string {
	return strings.Join(strings.Fields(strings.ToUpper(text)), " ")
}

// textSimilarity returns a 0..1 character-level similarity score
func textSimilarity(expected, recognized string) float64 {
	if expected == "" && recognized == "" {
		return 1.0
	}

	distance := levenshtein.Distance(expected, recognized)
	maxLen := len([]rune(expected))
	if l := len([]rune(recognized)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// wordErrorRate computes the standard WER: word-level edit distance divided
// by the reference length.
func wordErrorRate(ref, hyp []string) float64 {
	if len(ref) == 0 {
		if len(hyp) == 0 {
			return 0.0
		}
		return 1.0
	}

	prev := make([]int, len(hyp)+1)
	curr := make([]int, len(hyp)+1)
	for j := 0; j <= len(hyp); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ref); i++ {
		curr[0] = i
		for j := 1; j <= len(hyp); j++ {
			cost := 1
			if ref[i-1] == hyp[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return float64(prev[len(hyp)]) / float64(len(ref))
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
