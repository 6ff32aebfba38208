package excel

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/pkg/models"
)

func seedUserWithEntries(t *testing.T) *models.User {
	t.Helper()
	require.NoError(t, database.ConnectForTest())
	t.Cleanup(func() { database.Close() })

	user := &models.User{
		Platform:      models.PlatformTelegram,
		PlatformID:    "100",
		Username:      "ada",
		CurrentLesson: "lesson_2",
	}
	require.NoError(t, database.NewUserRepository().Create(user))

	tx, err := database.DB.Beginx()
	require.NoError(t, err)
	err = database.NewJournalRepository().AppendTx(tx, &models.JournalEntry{
		ID:             uuid.NewString(),
		UserID:         user.ID,
		Lesson:         "lesson_1",
		Response:       "My first answer.",
		ResponseLength: 16,
		KeywordsUsed:   []string{"user"},
		Timestamp:      time.Now().UTC(),
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	return user
}

func TestExportUserJournal(t *testing.T) {
	user := seedUserWithEntries(t)
	config := DefaultExportConfig(t.TempDir())

	path, err := ExportUserJournal(user.ID, config)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Journal")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Lesson", rows[0][0])
	assert.Equal(t, "lesson_1", rows[1][0])
	assert.Equal(t, "My first answer.", rows[1][1])
}

func TestExportCohort(t *testing.T) {
	seedUserWithEntries(t)
	config := DefaultExportConfig(t.TempDir())

	path, err := ExportCohort(config)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Users")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "ada", rows[1][2])

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	require.NotEmpty(t, summary)
	assert.Equal(t, "Total users", summary[0][0])
}
