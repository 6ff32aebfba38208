package feedback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/pkg/models"
)

func TestSkillTrackerUpdate(t *testing.T) {
	require.NoError(t, database.ConnectForTest())
	defer database.Close()

	tracker := NewSkillTracker(database.NewSkillRepository(), logger.NewNop())

	prev, err := tracker.Update(42, []models.SkillScore{
		{Skill: "design_thinking", Score: 90, Level: models.LevelAdvanced},
	})
	require.NoError(t, err)
	assert.Empty(t, prev)

	stored, err := database.NewSkillRepository().GetByUser(42)
	require.NoError(t, err)
	progress := stored["design_thinking"]
	assert.Equal(t, models.LevelAdvanced, progress.Level)
	assert.Equal(t, 90.0, progress.HighestScore)
	assert.Equal(t, []float64{90}, progress.RecentScores)

	// Levels derive from the average of recent scores, so a string of low
	// scores drags the level back down.
	for i := 0; i < 5; i++ {
		_, err = tracker.Update(42, []models.SkillScore{
			{Skill: "design_thinking", Score: 10, Level: models.LevelBeginner},
		})
		require.NoError(t, err)
	}

	stored, err = database.NewSkillRepository().GetByUser(42)
	require.NoError(t, err)
	progress = stored["design_thinking"]
	assert.Equal(t, models.LevelBeginner, progress.Level)
	assert.Equal(t, 90.0, progress.HighestScore)
	assert.Len(t, progress.RecentScores, 5)
}

func TestSkillTrackerReportsPreviousLevels(t *testing.T) {
	require.NoError(t, database.ConnectForTest())
	defer database.Close()

	tracker := NewSkillTracker(database.NewSkillRepository(), logger.NewNop())

	_, err := tracker.Update(7, []models.SkillScore{
		{Skill: "agile_thinking", Score: 20, Level: models.LevelBeginner},
	})
	require.NoError(t, err)

	prev, err := tracker.Update(7, []models.SkillScore{
		{Skill: "agile_thinking", Score: 95, Level: models.LevelAdvanced},
	})
	require.NoError(t, err)
	assert.Equal(t, models.LevelBeginner, prev["agile_thinking"])
}
