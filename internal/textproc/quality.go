package textproc

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hyperjump/kotaeru/pkg/utils"
)

var sentenceEndRe = regexp.MustCompile(`[.!?]+`)

// QualityScore estimates how well-formed the cleaned text is, in [0,1].
// Starts at 0.5 and adds fixed bonuses for length preservation, character
// diversity, word and sentence counts, and low special-character and
// spacing-anomaly ratios. Surfaced to clients as a percentage, so the
// thresholds are part of the observable behavior.
func QualityScore(original, cleaned string) float64 {
	score := 0.5

	if len(original) > 0 {
		ratio := float64(len(cleaned)) / float64(len(original))
		if ratio > 0.9 {
			score += 0.1
		} else if ratio > 0.8 {
			score += 0.05
		}
	}

	unique := make(map[rune]struct{})
	special := 0
	total := 0
	for _, r := range cleaned {
		unique[r] = struct{}{}
		total++
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) && !isBasicPunct(r) {
			special++
		}
	}
	if len(unique) > 20 {
		score += 0.05
	}

	words := len(strings.Fields(cleaned))
	if words > 100 {
		score += 0.05
	}
	if words > 500 {
		score += 0.05
	}

	sentences := len(sentenceEndRe.FindAllString(cleaned, -1))
	if sentences > 5 {
		score += 0.05
	}
	if sentences > 20 {
		score += 0.05
	}

	if total > 0 && float64(special)/float64(total) < 0.05 {
		score += 0.1
	}

	if total > 0 && float64(strings.Count(cleaned, "  "))/float64(total) < 0.01 {
		score += 0.05
	}

	return utils.Clamp01(score)
}

func isBasicPunct(r rune) bool {
	switch r {
	case '.', ',', ';', ':', '!', '?', '\'', '"', '-', '(', ')', '[', ']', '/':
		return true
	}
	return false
}
