package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/example/gclearnbot/internal/errs"
	"github.com/example/gclearnbot/pkg/models"
)

// UserRepository handles database operations for users
type UserRepository struct{}

// NewUserRepository creates a new repository instance
func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

const userColumns = `id, platform, platform_id, username, first_name, last_name, email,
	password_hash, is_admin, current_lesson, completed_lessons, completion_rate,
	total_responses, last_active, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var completedJSON string

	err := row.Scan(
		&user.ID,
		&user.Platform,
		&user.PlatformID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CurrentLesson,
		&completedJSON,
		&user.CompletionRate,
		&user.TotalResponses,
		&user.LastActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if completedJSON != "" {
		if err := json.Unmarshal([]byte(completedJSON), &user.CompletedLessons); err != nil {
			return nil, fmt.Errorf("failed to parse completed lessons: %w", err)
		}
	}
	return &user, nil
}

// GetByID returns a user by internal ID
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := DB.Rebind("SELECT " + userColumns + " FROM users WHERE id = ?")
	return scanUser(DB.QueryRow(query, id))
}

// GetByPlatformID returns a user by platform tag and channel-native ID
func (r *UserRepository) GetByPlatformID(platform, platformID string) (*models.User, error) {
	query := DB.Rebind("SELECT " + userColumns + " FROM users WHERE platform = ? AND platform_id = ?")
	return scanUser(DB.QueryRow(query, platform, platformID))
}

// GetByEmail returns a web user by email
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	query := DB.Rebind("SELECT " + userColumns + " FROM users WHERE email = ?")
	return scanUser(DB.QueryRow(query, email))
}

// Create inserts a new user and fills in the generated ID and timestamps.
// New users start at the lesson chain head set by the caller.
func (r *UserRepository) Create(user *models.User) error {
	completedJSON, err := json.Marshal(user.CompletedLessons)
	if err != nil {
		return fmt.Errorf("failed to marshal completed lessons: %w", err)
	}
	if user.CompletedLessons == nil {
		completedJSON = []byte("[]")
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastActive = now

	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO users (
				platform, platform_id, username, first_name, last_name, email,
				password_hash, is_admin, current_lesson, completed_lessons,
				last_active, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id
		`
		return DB.QueryRow(
			query,
			user.Platform, user.PlatformID, user.Username, user.FirstName, user.LastName,
			user.Email, user.PasswordHash, user.IsAdmin, user.CurrentLesson,
			string(completedJSON), user.LastActive, user.CreatedAt, user.UpdatedAt,
		).Scan(&user.ID)
	}

	// SQLite: no RETURNING, fetch the rowid afterwards
	result, err := DB.Exec(`
		INSERT INTO users (
			platform, platform_id, username, first_name, last_name, email,
			password_hash, is_admin, current_lesson, completed_lessons,
			last_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Platform, user.PlatformID, user.Username, user.FirstName, user.LastName,
		user.Email, user.PasswordHash, user.IsAdmin, user.CurrentLesson,
		string(completedJSON), user.LastActive, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	return nil
}

// TouchActivity records the user's last interaction time
func (r *UserRepository) TouchActivity(id int64) error {
	query := DB.Rebind("UPDATE users SET last_active = ?, updated_at = ? WHERE id = ?")
	now := time.Now().UTC()
	_, err := DB.Exec(query, now, now, id)
	if err != nil {
		return fmt.Errorf("failed to touch user activity: %w", err)
	}
	return nil
}

// AdvanceProgressTx applies one progress transition inside tx, guarded by a
// compare-and-set on the expected current lesson. Returns false when another
// writer moved the user first; the caller re-reads and reconciles.
func (r *UserRepository) AdvanceProgressTx(
	tx *sqlx.Tx,
	userID int64,
	expectedCurrent, newCurrent string,
	completed []string,
	completionRate float64,
	totalResponses int,
) (bool, error) {
	completedJSON, err := json.Marshal(completed)
	if err != nil {
		return false, fmt.Errorf("failed to marshal completed lessons: %w", err)
	}

	query := tx.Rebind(`
		UPDATE users SET
			current_lesson = ?,
			completed_lessons = ?,
			completion_rate = ?,
			total_responses = ?,
			last_active = ?,
			updated_at = ?
		WHERE id = ? AND current_lesson = ?
	`)
	now := time.Now().UTC()
	result, err := tx.Exec(query,
		newCurrent, string(completedJSON), completionRate, totalResponses,
		now, now, userID, expectedCurrent,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update progress: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}

// GetAll returns all users, newest first
func (r *UserRepository) GetAll() ([]models.User, error) {
	rows, err := DB.Query("SELECT " + userColumns + " FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var completedJSON string
		err := rows.Scan(
			&user.ID, &user.Platform, &user.PlatformID, &user.Username,
			&user.FirstName, &user.LastName, &user.Email, &user.PasswordHash,
			&user.IsAdmin, &user.CurrentLesson, &completedJSON, &user.CompletionRate,
			&user.TotalResponses, &user.LastActive, &user.CreatedAt, &user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if completedJSON != "" {
			if err := json.Unmarshal([]byte(completedJSON), &user.CompletedLessons); err != nil {
				return nil, fmt.Errorf("failed to parse completed lessons: %w", err)
			}
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// CountAll returns the total user count
func (r *UserRepository) CountAll() (int, error) {
	var count int
	if err := DB.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountActiveSince returns how many users interacted after the cutoff
func (r *UserRepository) CountActiveSince(cutoff time.Time) (int, error) {
	var count int
	query := DB.Rebind("SELECT COUNT(*) FROM users WHERE last_active >= ?")
	if err := DB.Get(&count, query, cutoff); err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}

// LessonDistribution returns how many users sit on each lesson node
func (r *UserRepository) LessonDistribution() (map[string]int, error) {
	rows, err := DB.Query("SELECT current_lesson, COUNT(*) FROM users GROUP BY current_lesson")
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[string]int)
	for rows.Next() {
		var lesson string
		var count int
		if err := rows.Scan(&lesson, &count); err != nil {
			return nil, fmt.Errorf("failed to scan distribution row: %w", err)
		}
		if lesson != "" {
			dist[lesson] = count
		}
	}
	return dist, rows.Err()
}

// AverageCompletionRate returns the mean completion rate across all users
func (r *UserRepository) AverageCompletionRate() (float64, error) {
	var avg float64
	if err := DB.Get(&avg, "SELECT COALESCE(AVG(completion_rate), 0) FROM users"); err != nil {
		return 0, fmt.Errorf("failed to get average completion rate: %w", err)
	}
	return avg, nil
}
