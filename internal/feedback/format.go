package feedback

import (
	"fmt"
	"strings"

	"github.com/example/gclearnbot/pkg/models"
)

// FormatMessage renders a feedback result as a markdown message for chat
// platforms. Skill scores and previous levels are optional; pass nil to omit
// the skill section.
func FormatMessage(result *models.FeedbackResult, skills []models.SkillScore, prevLevels map[string]models.SkillLevel) string {
	var b strings.Builder
	b.WriteString("📝 *Response Analysis*\n\n")

	if result.Quality.IncludesDetails {
		b.WriteString("✨ *Detailed Response!* Good level of explanation.\n")
	}
	if result.Quality.HasPunctuation {
		b.WriteString("📖 *Well Structured!* Good use of punctuation.\n")
	}

	b.WriteString("\n*Feedback:*\n")
	b.WriteString(strings.Join(result.Messages, "\n"))

	b.WriteString("\n\n🧠 *Thinking Patterns:*\n")
	fmt.Fprintf(&b, "• Critical Thinking: %d/100\n", result.Quality.CriticalScore)
	switch {
	case result.Quality.CriticalScore > 80:
		b.WriteString("Excellent analytical thinking!\n")
	case result.Quality.CriticalScore > 60:
		b.WriteString("Good critical analysis. Try adding more supporting evidence.\n")
	case result.Quality.CriticalScore > 40:
		b.WriteString("Consider explaining your reasoning more deeply.\n")
	}

	b.WriteString("\n📚 *Concept Understanding:*\n")
	fmt.Fprintf(&b, "• Understanding Score: %d/100\n", result.Quality.ConceptScore)
	fmt.Fprintf(&b, "• Learning Style: %s\n", titleCase(result.Quality.LearningStyle))

	if len(skills) > 0 {
		b.WriteString(formatSkillSection(skills, prevLevels))
	}

	b.WriteString("\n\n📊 *Response Stats:*\n")
	fmt.Fprintf(&b, "• Words: %d\n", result.Quality.WordCount)
	fmt.Fprintf(&b, "• Sentences: %d\n", result.Quality.SentenceCount)

	return b.String()
}

func formatSkillSection(skills []models.SkillScore, prevLevels map[string]models.SkillLevel) string {
	var b strings.Builder
	b.WriteString("\n🎯 *Skill Analysis:*\n")

	for _, s := range skills {
		fmt.Fprintf(&b, "\n*%s*\n", titleCase(strings.ReplaceAll(s.Skill, "_", " ")))
		fmt.Fprintf(&b, "• Score: %.1f/100\n", s.Score)
		fmt.Fprintf(&b, "• Level: %s\n", titleCase(string(s.Level)))

		if prev, ok := prevLevels[s.Skill]; ok && levelRank(s.Level) > levelRank(prev) {
			b.WriteString("🎉 *Level Up!* Keep up the great work!\n")
		}

		switch {
		case s.Score >= 80:
			b.WriteString("🌟 Excellent mastery of concepts!\n")
		case s.Score >= 60:
			b.WriteString("💪 Good progress! Try incorporating more advanced concepts.\n")
		default:
			b.WriteString("📚 Keep practicing! Focus on core concepts first.\n")
		}
	}

	return b.String()
}

func levelRank(level models.SkillLevel) int {
	switch level {
	case models.LevelAdvanced:
		return 2
	case models.LevelIntermediate:
		return 1
	default:
		return 0
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
