package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/gclearnbot/pkg/models"
)

// SkillRepository persists per-user skill progression
type SkillRepository struct{}

// NewSkillRepository creates a new repository instance
func NewSkillRepository() *SkillRepository {
	return &SkillRepository{}
}

// GetByUser returns the user's skill records keyed by skill area
func (r *SkillRepository) GetByUser(userID int64) (map[string]models.SkillProgress, error) {
	query := DB.Rebind(`
		SELECT user_id, skill, level, recent_scores, highest_score, updated_at
		FROM user_skills
		WHERE user_id = ?
	`)
	rows, err := DB.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user skills: %w", err)
	}
	defer rows.Close()

	skills := make(map[string]models.SkillProgress)
	for rows.Next() {
		var sp models.SkillProgress
		var scoresJSON string
		err := rows.Scan(&sp.UserID, &sp.Skill, &sp.Level, &scoresJSON, &sp.HighestScore, &sp.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		if scoresJSON != "" {
			if err := json.Unmarshal([]byte(scoresJSON), &sp.RecentScores); err != nil {
				return nil, fmt.Errorf("failed to parse recent scores: %w", err)
			}
		}
		skills[sp.Skill] = sp
	}
	return skills, rows.Err()
}

// Upsert writes one skill record, replacing any previous row for the same
// (user, skill) pair.
func (r *SkillRepository) Upsert(sp *models.SkillProgress) error {
	scoresJSON, err := json.Marshal(sp.RecentScores)
	if err != nil {
		return fmt.Errorf("failed to marshal recent scores: %w", err)
	}
	sp.UpdatedAt = time.Now().UTC()

	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO user_skills (user_id, skill, level, recent_scores, highest_score, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (user_id, skill) DO UPDATE SET
				level = EXCLUDED.level,
				recent_scores = EXCLUDED.recent_scores,
				highest_score = EXCLUDED.highest_score,
				updated_at = EXCLUDED.updated_at
		`
		_, err = DB.Exec(query, sp.UserID, sp.Skill, sp.Level, string(scoresJSON), sp.HighestScore, sp.UpdatedAt)
	} else {
		query := `
			INSERT OR REPLACE INTO user_skills (user_id, skill, level, recent_scores, highest_score, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err = DB.Exec(query, sp.UserID, sp.Skill, sp.Level, string(scoresJSON), sp.HighestScore, sp.UpdatedAt)
	}
	if err != nil {
		return fmt.Errorf("failed to upsert skill: %w", err)
	}
	return nil
}
