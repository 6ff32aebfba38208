package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/gclearnbot/internal/analytics"
	"github.com/example/gclearnbot/internal/config"
	"github.com/example/gclearnbot/internal/content"
	"github.com/example/gclearnbot/internal/database"
	"github.com/example/gclearnbot/internal/feedback"
	"github.com/example/gclearnbot/internal/logger"
	"github.com/example/gclearnbot/internal/progress"
)

const testLessons = `{
	"lesson_1": {"text": "Welcome to the course.", "next": "lesson_2"},
	"lesson_2": {"text": "Design thinking intro.", "next": "lesson_2_step_1"},
	"lesson_2_step_1": {"text": "Interview a user.", "next": null}
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	require.NoError(t, database.ConnectForTest())
	t.Cleanup(func() { database.Close() })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lessons.json"), []byte(testLessons), 0o644))
	graph, err := content.Load(dir, logger.NewNop())
	require.NoError(t, err)

	scorer := feedback.NewScorer(feedback.NewMemoryCache(feedback.DefaultCacheTimeout), logger.NewNop())
	tracker := feedback.NewSkillTracker(database.NewSkillRepository(), logger.NewNop())
	prog := progress.NewService(graph, database.NewUserRepository(), database.NewJournalRepository(), scorer, tracker, logger.NewNop())
	stats := analytics.NewService(graph, database.NewUserRepository(), database.NewJournalRepository(), database.NewSkillRepository(), logger.NewNop())

	cfg := &config.Config{HTTPAddr: ":0", JWTSecret: "test-secret"}
	return New(cfg, graph, prog, stats, logger.NewNop())
}

func doJSON(t *testing.T, s *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, s *Server, email string) (token string, userID int64) {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"email":      email,
		"password":   "longenough",
		"first_name": "Ada",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID            int64  `json:"id"`
			CurrentLesson string `json:"current_lesson"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "lesson_1", resp.User.CurrentLesson)
	return resp.Token, resp.User.ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := doJSON(t, s, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerUser(t, s, "ada@example.com")
	assert.NotEmpty(t, token)

	// duplicate registration is rejected
	rec := doJSON(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": "longenough",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// wrong password
	rec = doJSON(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrongwrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "longenough",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"password": "longenough",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email")

	rec = doJSON(t, s, http.MethodPost, "/auth/register", "", map[string]string{
		"email":    "bob@example.com",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitResponseFlow(t *testing.T) {
	s := newTestServer(t)
	token, userID := registerUser(t, s, "ada@example.com")

	rec := doJSON(t, s, http.MethodPost, "/responses", token, map[string]string{
		"lesson_id": "lesson_1",
		"response":  "I am excited to start learning about design.",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var result struct {
		Accepted   bool `json:"accepted"`
		NextLesson *struct {
			ID string `json:"id"`
		} `json:"next_lesson"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Accepted)
	require.NotNil(t, result.NextLesson)
	assert.Equal(t, "lesson_2", result.NextLesson.ID)

	// progress reflects the advance
	rec = doJSON(t, s, http.MethodGet, "/progress/"+itoa(userID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"current_lesson":"lesson_2"`)

	// the entry landed in the journal
	rec = doJSON(t, s, http.MethodGet, "/journals/"+itoa(userID), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)
	assert.Contains(t, rec.Body.String(), "excited to start learning")
}

func TestSubmitRejectsEmptyLesson(t *testing.T) {
	s := newTestServer(t)
	token, _ := registerUser(t, s, "ada@example.com")

	rec := doJSON(t, s, http.MethodPost, "/responses", token, map[string]string{
		"lesson_id": "",
		"response":  "hello",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/progress/1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/progress/1", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserScoping(t *testing.T) {
	s := newTestServer(t)
	tokenAda, _ := registerUser(t, s, "ada@example.com")
	_, bobID := registerUser(t, s, "bob@example.com")

	rec := doJSON(t, s, http.MethodGet, "/progress/"+itoa(bobID), tokenAda, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/journals/"+itoa(bobID), tokenAda, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminEndpoints(t *testing.T) {
	s := newTestServer(t)
	token, userID := registerUser(t, s, "ada@example.com")

	// plain users cannot reach admin routes
	rec := doJSON(t, s, http.MethodGet, "/analytics", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(t, s, http.MethodGet, "/journals", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// promote and mint a fresh token carrying the admin claim
	_, err := database.DB.Exec(database.DB.Rebind("UPDATE users SET is_admin = ? WHERE id = ?"), true, userID)
	require.NoError(t, err)
	admin, err := s.users.GetByID(userID)
	require.NoError(t, err)
	adminToken, err := s.generateToken(admin)
	require.NoError(t, err)

	rec = doJSON(t, s, http.MethodPost, "/responses", adminToken, map[string]string{
		"lesson_id": "lesson_1",
		"response":  "Some analysis of the problem with evidence.",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/journals", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total":1`)

	rec = doJSON(t, s, http.MethodGet, "/analytics", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "total_users")

	rec = doJSON(t, s, http.MethodGet, "/analytics?user_id="+itoa(userID), adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/analytics?lesson=lesson_1", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/analytics?user_id=abc", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
