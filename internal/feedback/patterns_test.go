package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gclearnbot/pkg/models"
)

func TestAnalyzePatternsScoresAndCaps(t *testing.T) {
	// One reasoning match and one evidence match: 2 * 20 = 40.
	result := AnalyzePatterns("This works because the data supports it.")
	assert.Equal(t, 40, result.CriticalScore)

	// Enough distinct patterns to hit the 100 cap.
	dense := "I analyze and compare and examine and evaluate why and how things relate, " +
		"because therefore consequently as a result the data shows proof."
	result = AnalyzePatterns(dense)
	assert.Equal(t, 100, result.CriticalScore)
}

func TestDetermineLearningStyle(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"analytical", "Let me analyze and compare why this happens.", "analytical"},
		{"practical", "I will apply this and practice with a test.", "practical"},
		{"logical", "This happened because of that, therefore it follows.", "logical"},
		{"balanced", "Hello there.", "balanced"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AnalyzePatterns(tc.text).LearningStyle)
		})
	}
}

func TestAnalyzeQuality(t *testing.T) {
	m := AnalyzeQuality("First sentence. Second one! Third?")
	assert.Equal(t, 3, m.SentenceCount)
	assert.Equal(t, 5, m.WordCount)
	assert.True(t, m.HasPunctuation)
	assert.False(t, m.IncludesDetails)

	long := AnalyzeQuality("word " + repeatWords("detail", 35))
	assert.True(t, long.IncludesDetails)
}

func TestDetermineSkillLevelThresholds(t *testing.T) {
	assert.Equal(t, models.LevelBeginner, DetermineSkillLevel(0))
	assert.Equal(t, models.LevelBeginner, DetermineSkillLevel(59.9))
	assert.Equal(t, models.LevelIntermediate, DetermineSkillLevel(60))
	assert.Equal(t, models.LevelIntermediate, DetermineSkillLevel(79.9))
	assert.Equal(t, models.LevelAdvanced, DetermineSkillLevel(80))
}

func TestAnalyzeSkillsDetectsPathways(t *testing.T) {
	scores := AnalyzeSkills("We built a prototype, gathered feedback from each user, and will iterate on the design.")

	require.NotEmpty(t, scores)
	found := false
	for _, s := range scores {
		if s.Skill == "design_thinking" {
			found = true
			assert.Greater(t, s.Score, 0.0)
			assert.LessOrEqual(t, s.Score, 100.0)
		}
	}
	assert.True(t, found, "design_thinking should be detected")

	assert.Empty(t, AnalyzeSkills("Nothing relevant here."))
}

func repeatWords(word string, n int) string {
	out := word
	for i := 1; i < n; i++ {
		out += " " + word
	}
	return out
}
