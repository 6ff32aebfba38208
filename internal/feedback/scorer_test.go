package feedback

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gclearnbot/internal/logger"
)

func newTestScorer() *Scorer {
	return NewScorer(NewMemoryCache(DefaultCacheTimeout), logger.NewNop())
}

func TestEvaluateIntroAcknowledgement(t *testing.T) {
	s := newTestScorer()

	result := s.Evaluate(context.Background(), 1, "lesson_2", "I am ready to start.")

	require.Len(t, result.Messages, 1)
	assert.Equal(t, "Thanks for your response! Let's continue with the lesson.", result.Messages[0])
	assert.False(t, result.Cached)
}

func TestEvaluateStepEmitsCriterionMessages(t *testing.T) {
	s := newTestScorer()

	// Mentions enough empathy keywords to pass the first criterion of the
	// design thinking rubric, and nothing from the others.
	response := "I ran an interview to learn how the user would feel, what they experience, " +
		"and the frustration behind their need."
	result := s.Evaluate(context.Background(), 1, "lesson_2_step_1", response)

	require.NotEmpty(t, result.Messages)
	assert.Contains(t, result.Messages[0], "Excellent job showing empathy")
	// A short response with no prototyping vocabulary fails that criterion
	// and picks up the improvement tip.
	joined := strings.Join(result.Messages, "\n")
	assert.Contains(t, joined, "Consider making your prototype more concrete")
	assert.Contains(t, joined, "what specific aspects you want to test")
}

func TestEvaluateLongResponseRaisesThreshold(t *testing.T) {
	s := newTestScorer()

	// 800+ characters caps the length factor at 1.5, so the empathy
	// criterion (14 keywords) needs 0.3*14*1.5 = 6.3 distinct keywords.
	// Four matches is no longer enough.
	padding := strings.Repeat("The plan continues with more detail about the project work. ", 14)
	response := "The user had a challenge with their experience and motivation. " + padding
	require.Greater(t, len(response), 800)

	result := s.Evaluate(context.Background(), 1, "lesson_2_step_1", response)

	require.NotEmpty(t, result.Messages)
	assert.Contains(t, result.Messages[0], "Try to dig deeper")
}

func TestEvaluateMeasuresLengthInCharacters(t *testing.T) {
	s := newTestScorer()

	// Emoji padding makes the response over 1000 bytes but only ~320
	// characters. The length factor must follow characters, so four empathy
	// keywords clear the threshold (0.3*14*0.64 ≈ 2.7) instead of being held
	// to the byte-inflated 6.3.
	response := "The user shared how they feel about the experience and the need behind it. " +
		strings.Repeat("🎯", 245)
	require.Greater(t, len(response), 1000)
	require.Less(t, utf8.RuneCountInString(response), 500)

	result := s.Evaluate(context.Background(), 1, "lesson_2_step_1", response)

	require.NotEmpty(t, result.Messages)
	assert.Contains(t, result.Messages[0], "Excellent job showing empathy")
	assert.Equal(t, utf8.RuneCountInString(response), result.Quality.Length)
}

func TestEvaluateCachesIdenticalResponse(t *testing.T) {
	s := newTestScorer()
	ctx := context.Background()

	first := s.Evaluate(ctx, 7, "lesson_3_step_1", "My value proposition is unique.")
	assert.False(t, first.Cached)

	second := s.Evaluate(ctx, 7, "lesson_3_step_1", "My value proposition is unique.")
	assert.True(t, second.Cached)
	assert.Equal(t, first.Messages, second.Messages)

	// A changed response invalidates the cached entry.
	third := s.Evaluate(ctx, 7, "lesson_3_step_1", "A different answer about revenue and pricing.")
	assert.False(t, third.Cached)
}

func TestEvaluateStepWithoutRules(t *testing.T) {
	s := newTestScorer()

	result := s.Evaluate(context.Background(), 1, "lesson_9_step_1", "Some answer.")

	require.Len(t, result.Messages, 1)
	assert.Equal(t, "No feedback available for this lesson.", result.Messages[0])
}

func TestMatchedKeywordsWholeWordsOnly(t *testing.T) {
	s := newTestScorer()

	matched := s.MatchedKeywords("lesson_2_step_1", "The user shared their Frustration during the interview.")

	assert.Contains(t, matched, "user")
	assert.Contains(t, matched, "frustration")
	assert.Contains(t, matched, "interview")

	// "users" must not match the keyword "user".
	matched = s.MatchedKeywords("lesson_2_step_1", "Many users were present.")
	assert.NotContains(t, matched, "user")
}

func TestRulesForStepFallsBackToParentLesson(t *testing.T) {
	parent, ok := RulesFor("lesson_4")
	require.True(t, ok)

	step, ok := RulesFor("lesson_4_step_3")
	require.True(t, ok)
	assert.Equal(t, parent, step)

	_, ok = RulesFor("lesson_1")
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache(time.Millisecond)
	ctx := context.Background()

	c.Set(ctx, 1, "lesson_2_step_1", "answer", []string{"ok"})
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get(ctx, 1, "lesson_2_step_1", "answer")
	assert.False(t, ok)
}
