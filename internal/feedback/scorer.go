package feedback

import (
	"context"
	"math"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/pkg/models"
)

const (
	introAcknowledgement = "Thanks for your response! Let's continue with the lesson."
	noRulesMessage       = "No feedback available for this lesson."
)

// Scorer evaluates journal responses against lesson rubrics.
type Scorer struct {
	cache Cache
	log   *logger.Logger

	mu       sync.Mutex
	keywords map[string]*regexp.Regexp
}

// NewScorer creates a Scorer backed by the given cache.
func NewScorer(cache Cache, log *logger.Logger) *Scorer {
	return &Scorer{
		cache:    cache,
		log:      log,
		keywords: make(map[string]*regexp.Regexp),
	}
}

// keywordPattern returns the compiled whole-word matcher for a keyword.
func (s *Scorer) keywordPattern(keyword string) *regexp.Regexp {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.keywords[keyword]; ok {
		return p
	}
	p := regexp.MustCompile(`\b` + regexp.QuoteMeta(strings.ToLower(keyword)) + `\b`)
	s.keywords[keyword] = p
	return p
}

// MatchedKeywords returns the rubric keywords found in a response, in rubric
// order. Used both for scoring and for recording keywords on journal entries.
func (s *Scorer) MatchedKeywords(lessonID, text string) []string {
	rules, ok := RulesFor(lessonID)
	if !ok {
		return nil
	}

	lower := strings.ToLower(text)
	var matched []string
	seen := make(map[string]bool)
	for _, criterion := range rules.Criteria {
		for _, kw := range criterion.Keywords {
			if seen[kw] {
				continue
			}
			if s.keywordPattern(kw).MatchString(lower) {
				matched = append(matched, kw)
				seen[kw] = true
			}
		}
	}
	return matched
}

// Evaluate produces feedback for a response to a lesson node.
//
// Intro nodes get a fixed acknowledgement. Step nodes are scored per rubric
// criterion: the response passes a criterion when the number of distinct
// matched keywords reaches 0.3 x keyword count, scaled by a length factor of
// min(len/500, 1.5). Passing emits the good and extra-good messages, failing
// emits the bad message and the improvement tip.
func (s *Scorer) Evaluate(ctx context.Context, userID int64, lessonID, text string) *models.FeedbackResult {
	quality := AnalyzeQuality(text)

	if !content.IsStep(lessonID) {
		return &models.FeedbackResult{
			Messages: []string{introAcknowledgement},
			Quality:  quality,
		}
	}

	if messages, ok := s.cache.Get(ctx, userID, lessonID, text); ok {
		return &models.FeedbackResult{
			Messages: messages,
			Quality:  quality,
			Cached:   true,
		}
	}

	rules, ok := RulesFor(lessonID)
	if !ok || len(rules.Criteria) == 0 {
		s.log.Warn("no feedback rules for lesson", "lesson", lessonID)
		return &models.FeedbackResult{
			Messages: []string{noRulesMessage},
			Quality:  quality,
		}
	}

	lower := strings.ToLower(text)
	// length is measured in characters, not bytes; multi-byte responses must
	// not be held to an inflated threshold
	lengthFactor := math.Min(float64(utf8.RuneCountInString(text))/500, 1.5)

	var messages []string
	for _, criterion := range rules.Criteria {
		matches := 0
		for _, kw := range criterion.Keywords {
			if s.keywordPattern(kw).MatchString(lower) {
				matches++
			}
		}

		threshold := 0.3 * float64(len(criterion.Keywords)) * lengthFactor
		if float64(matches) >= threshold {
			messages = append(messages, criterion.GoodFeedback)
			if criterion.ExtraGood != "" {
				messages = append(messages, criterion.ExtraGood)
			}
		} else {
			messages = append(messages, criterion.BadFeedback)
			if criterion.ImprovementTip != "" {
				messages = append(messages, criterion.ImprovementTip)
			}
		}
	}

	s.cache.Set(ctx, userID, lessonID, text, messages)

	return &models.FeedbackResult{
		Messages: messages,
		Quality:  quality,
	}
}
