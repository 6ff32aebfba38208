package feedback

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/example/gclearnbot/pkg/models"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	punctuationRe = regexp.MustCompile(`[.!?]`)
)

// detailedWords is the word count above which a response counts as detailed.
const detailedWords = 30

// AnalyzeQuality computes surface metrics for a response and folds in the
// thinking pattern scores.
func AnalyzeQuality(text string) models.QualityMetrics {
	clean := strings.TrimSpace(text)
	words := strings.Fields(clean)

	sentences := 0
	for _, s := range sentenceSplit.Split(clean, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}

	patterns := AnalyzePatterns(clean)

	return models.QualityMetrics{
		Length:          utf8.RuneCountInString(clean),
		WordCount:       len(words),
		SentenceCount:   sentences,
		HasPunctuation:  punctuationRe.MatchString(clean),
		IncludesDetails: len(words) > detailedWords,
		CriticalScore:   patterns.CriticalScore,
		ConceptScore:    patterns.ConceptScore,
		LearningStyle:   patterns.LearningStyle,
	}
}
