package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/gclearnbot/internal/errs"
	"github.com/example/gclearnbot/pkg/models"
)

// TaskRepository handles database operations for admin-authored tasks
type TaskRepository struct{}

// NewTaskRepository creates a new repository instance
func NewTaskRepository() *TaskRepository {
	return &TaskRepository{}
}

// Create inserts a new task and fills in the generated ID
func (r *TaskRepository) Create(task *models.Task) error {
	reqJSON, err := json.Marshal(task.Requirements)
	if err != nil {
		return fmt.Errorf("failed to marshal requirements: %w", err)
	}
	if task.Requirements == nil {
		reqJSON = []byte("[]")
	}
	task.CreatedAt = time.Now().UTC()
	task.IsActive = true

	if DB.DriverName() == "postgres" {
		query := `
			INSERT INTO tasks (company, lesson, description, requirements, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`
		return DB.QueryRow(query,
			task.Company, task.Lesson, task.Description, string(reqJSON), task.IsActive, task.CreatedAt,
		).Scan(&task.ID)
	}

	result, err := DB.Exec(`
		INSERT INTO tasks (company, lesson, description, requirements, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		task.Company, task.Lesson, task.Description, string(reqJSON), task.IsActive, task.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	task.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get task id: %w", err)
	}
	return nil
}

// ActiveForLesson returns the active tasks attached to a lesson node
func (r *TaskRepository) ActiveForLesson(lesson string) ([]models.Task, error) {
	query := DB.Rebind(`
		SELECT id, company, lesson, description, requirements, is_active, created_at
		FROM tasks
		WHERE lesson = ? AND is_active = ?
		ORDER BY created_at
	`)
	return r.queryTasks(query, lesson, true)
}

// ListAll returns every task, newest first
func (r *TaskRepository) ListAll() ([]models.Task, error) {
	return r.queryTasks(`
		SELECT id, company, lesson, description, requirements, is_active, created_at
		FROM tasks
		ORDER BY created_at DESC
	`)
}

func (r *TaskRepository) queryTasks(query string, args ...interface{}) ([]models.Task, error) {
	rows, err := DB.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		var reqJSON string
		err := rows.Scan(
			&task.ID, &task.Company, &task.Lesson, &task.Description,
			&reqJSON, &task.IsActive, &task.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if reqJSON != "" {
			if err := json.Unmarshal([]byte(reqJSON), &task.Requirements); err != nil {
				return nil, fmt.Errorf("failed to parse requirements: %w", err)
			}
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Deactivate clears the activation flag on a task
func (r *TaskRepository) Deactivate(id int64) error {
	query := DB.Rebind("UPDATE tasks SET is_active = ? WHERE id = ?")
	result, err := DB.Exec(query, false, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return errs.NotFoundf("task %d", id)
	}
	return nil
}

// GetByID returns one task
func (r *TaskRepository) GetByID(id int64) (*models.Task, error) {
	query := DB.Rebind(`
		SELECT id, company, lesson, description, requirements, is_active, created_at
		FROM tasks WHERE id = ?
	`)
	var task models.Task
	var reqJSON string
	err := DB.QueryRow(query, id).Scan(
		&task.ID, &task.Company, &task.Lesson, &task.Description,
		&reqJSON, &task.IsActive, &task.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errs.NotFoundf("task %d", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if reqJSON != "" {
		if err := json.Unmarshal([]byte(reqJSON), &task.Requirements); err != nil {
			return nil, fmt.Errorf("failed to parse requirements: %w", err)
		}
	}
	return &task, nil
}
