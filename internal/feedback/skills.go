package feedback

import (
	"regexp"
	"sort"
	"strings"

	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/pkg/models"
)

// skillArea bundles the detection patterns for one skill pathway with the
// keywords that mark each proficiency level.
type skillArea struct {
	Patterns []string
	Levels   map[models.SkillLevel][]string
}

// skillAreas defines the five learning pathways tracked across lessons.
var skillAreas = map[string]skillArea{
	"design_thinking": {
		Patterns: []string{"empathy", "user", "prototype", "test", "feedback", "iterate", "solve", "design"},
		Levels: map[models.SkillLevel][]string{
			models.LevelBeginner:     {"empathy", "user", "test"},
			models.LevelIntermediate: {"prototype", "feedback", "iterate"},
			models.LevelAdvanced:     {"solve", "design"},
		},
	},
	"business_modeling": {
		Patterns: []string{"value", "customer", "revenue", "model", "market", "profit", "cost", "strategy"},
		Levels: map[models.SkillLevel][]string{
			models.LevelBeginner:     {"value", "customer", "market"},
			models.LevelIntermediate: {"revenue", "cost", "model"},
			models.LevelAdvanced:     {"profit", "strategy"},
		},
	},
	"market_thinking": {
		Patterns: []string{"scale", "growth", "channel", "fit", "user acquisition", "retention", "metrics"},
		Levels: map[models.SkillLevel][]string{
			models.LevelBeginner:     {"channel", "fit", "metrics"},
			models.LevelIntermediate: {"growth", "retention"},
			models.LevelAdvanced:     {"scale", "user acquisition"},
		},
	},
	"user_thinking": {
		Patterns: []string{"behavior", "emotion", "journey", "experience", "persona", "need", "want", "feeling", "user research", "interview", "empathy"},
		Levels: map[models.SkillLevel][]string{
			models.LevelBeginner:     {"need", "want", "feeling", "emotion"},
			models.LevelIntermediate: {"behavior", "journey", "experience"},
			models.LevelAdvanced:     {"persona", "user research", "empathy"},
		},
	},
	"agile_thinking": {
		Patterns: []string{"sprint", "iterate", "scrum", "backlog", "prioritize", "task", "resource", "plan", "deliver", "review", "retrospective"},
		Levels: map[models.SkillLevel][]string{
			models.LevelBeginner:     {"task", "plan", "resource"},
			models.LevelIntermediate: {"sprint", "backlog", "prioritize"},
			models.LevelAdvanced:     {"iterate", "review", "retrospective"},
		},
	},
}

// skillPatternCache holds the compiled whole-word regexes keyed by pattern.
var skillPatternCache = func() map[string]*regexp.Regexp {
	cache := make(map[string]*regexp.Regexp)
	for _, area := range skillAreas {
		for _, p := range area.Patterns {
			if _, ok := cache[p]; !ok {
				cache[p] = regexp.MustCompile(`\b` + regexp.QuoteMeta(p) + `\b`)
			}
		}
	}
	return cache
}()

// DetermineSkillLevel maps an average score onto a proficiency level using
// the shared 30/60/80 thresholds.
func DetermineSkillLevel(score float64) models.SkillLevel {
	switch {
	case score >= 80:
		return models.LevelAdvanced
	case score >= 60:
		return models.LevelIntermediate
	default:
		return models.LevelBeginner
	}
}

// AnalyzeSkills scores a response against every skill pathway. Areas with no
// matching patterns are omitted. The base pattern coverage contributes 60% of
// the score and level-specific keyword coverage the remaining 40%.
func AnalyzeSkills(text string) []models.SkillScore {
	lower := strings.ToLower(text)
	scores := make([]models.SkillScore, 0, len(skillAreas))

	for name, area := range skillAreas {
		var matched []string
		for _, p := range area.Patterns {
			if skillPatternCache[p].MatchString(lower) {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			continue
		}

		baseScore := float64(len(matched)) / float64(len(area.Patterns)) * 100

		levelTotal := 0.0
		for _, keywords := range area.Levels {
			hits := 0
			for _, m := range matched {
				for _, kw := range keywords {
					if strings.Contains(m, kw) {
						hits++
						break
					}
				}
			}
			levelTotal += float64(hits) / float64(len(keywords)) * 100
		}

		score := baseScore*0.6 + levelTotal*0.4/float64(len(area.Levels))
		if score > 100 {
			score = 100
		}

		scores = append(scores, models.SkillScore{
			Skill: name,
			Score: score,
			Level: DetermineSkillLevel(score),
		})
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].Skill < scores[j].Skill })
	return scores
}

// SkillTracker persists per-user skill progression.
type SkillTracker struct {
	repo *database.SkillRepository
	log  *logger.Logger
}

// NewSkillTracker creates a new SkillTracker.
func NewSkillTracker(repo *database.SkillRepository, log *logger.Logger) *SkillTracker {
	return &SkillTracker{repo: repo, log: log}
}

// Update folds the latest scores into the user's stored skill history and
// returns the previous levels so callers can report level-ups. Each skill
// keeps its last five scores; the level is derived from their average.
func (t *SkillTracker) Update(userID int64, scores []models.SkillScore) (map[string]models.SkillLevel, error) {
	previous, err := t.repo.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	prevLevels := make(map[string]models.SkillLevel, len(previous))
	for skill, p := range previous {
		prevLevels[skill] = p.Level
	}

	for _, s := range scores {
		progress, ok := previous[s.Skill]
		if !ok {
			progress = models.SkillProgress{
				UserID: userID,
				Skill:  s.Skill,
				Level:  models.LevelBeginner,
			}
		}

		progress.RecentScores = append(progress.RecentScores, s.Score)
		if n := len(progress.RecentScores); n > 5 {
			progress.RecentScores = progress.RecentScores[n-5:]
		}
		if s.Score > progress.HighestScore {
			progress.HighestScore = s.Score
		}

		sum := 0.0
		for _, v := range progress.RecentScores {
			sum += v
		}
		progress.Level = DetermineSkillLevel(sum / float64(len(progress.RecentScores)))

		if err := t.repo.Upsert(&progress); err != nil {
			return nil, err
		}
	}

	return prevLevels, nil
}
