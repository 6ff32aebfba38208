package feedback

import (
	"regexp"
	"strings"
)

// PatternAnalysis summarizes the thinking patterns detected in a response.
type PatternAnalysis struct {
	CriticalScore int            `json:"critical_thinking_score"`
	ConceptScore  int            `json:"concept_understanding_score"`
	Critical      map[string]int `json:"critical_patterns"`
	Concept       map[string]int `json:"concept_patterns"`
	LearningStyle string         `json:"learning_style"`
}

// criticalThinkingPatterns groups indicators of critical thinking by family.
var criticalThinkingPatterns = map[string][]*regexp.Regexp{
	"analysis": compilePatterns(
		`\banalyze\b`, `\bcompare\b`, `\bexamine\b`, `\bevaluate\b`,
		`\bwhy\b`, `\bhow\b`, `\brelate\b`, `\bimpact\b`,
	),
	"reasoning": compilePatterns(
		`\bbecause\b`, `\btherefore\b`, `\bconsequently\b`,
		`\bthis means\b`, `\bas a result\b`,
	),
	"evidence": compilePatterns(
		`\bexample\b`, `\binstance\b`, `\bcase\b`, `\bproof\b`,
		`\bdata\b`, `\bshows\b`, `\bdemonstrates\b`,
	),
}

// conceptPatterns groups indicators of concept understanding by family.
var conceptPatterns = map[string][]*regexp.Regexp{
	"explanation": compilePatterns(
		`\bmeans\b`, `\bis when\b`, `\bis about\b`, `\bdefine\b`,
		`\bconcept\b`, `\bunderstand\b`,
	),
	"application": compilePatterns(
		`\bapply\b`, `\buse\b`, `\bimplement\b`, `\bpractice\b`,
		`\btry\b`, `\btest\b`,
	),
	"connection": compilePatterns(
		`\bconnect\b`, `\brelate\b`, `\blink\b`, `\bsimilar\b`,
		`\bdifferent\b`, `\blike\b`,
	),
}

func compilePatterns(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(e))
	}
	return out
}

// AnalyzePatterns scores the critical thinking and concept understanding
// signals in a response. Each matched pattern family member contributes 20
// points, capped at 100.
func AnalyzePatterns(text string) PatternAnalysis {
	lower := strings.ToLower(text)

	critical := countMatches(criticalThinkingPatterns, lower)
	concept := countMatches(conceptPatterns, lower)

	return PatternAnalysis{
		CriticalScore: capScore(sumCounts(critical) * 20),
		ConceptScore:  capScore(sumCounts(concept) * 20),
		Critical:      critical,
		Concept:       concept,
		LearningStyle: determineLearningStyle(critical, concept),
	}
}

func countMatches(families map[string][]*regexp.Regexp, lower string) map[string]int {
	counts := make(map[string]int, len(families))
	for family, patterns := range families {
		n := 0
		for _, p := range patterns {
			if p.MatchString(lower) {
				n++
			}
		}
		counts[family] = n
	}
	return counts
}

// determineLearningStyle classifies the dominant thinking pattern. The rules
// are checked in a fixed order so ties resolve the same way every time.
func determineLearningStyle(critical, concept map[string]int) string {
	switch {
	case critical["analysis"] > concept["explanation"]:
		return "analytical"
	case concept["application"] > critical["evidence"]:
		return "practical"
	case critical["reasoning"] > concept["connection"]:
		return "logical"
	default:
		return "balanced"
	}
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

func capScore(score int) int {
	if score > 100 {
		return 100
	}
	return score
}
