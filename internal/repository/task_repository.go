package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"

	"github.com/yourusername/todolist/internal/models"
)

// ErrTaskNotFound は対象タスクが存在しないか、呼び出し元の所有物でない場合に返されます。
// 他人のタスクと存在しないタスクは区別しません。
var ErrTaskNotFound = errors.New("task not found")

// TaskRepository はタスク行の読み書きを定義します。
// 全ての読み書きは所有者のユーザーIDでフィルタされます。
type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) (int64, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Task, error)
	GetByID(ctx context.Context, taskID, userID int64) (*models.Task, error)
	UpdateTitle(ctx context.Context, taskID, userID int64, title string) error
	Delete(ctx context.Context, taskID, userID int64) error
}

type postgresTaskRepository struct {
	db *sqlx.DB
}

// NewPostgresTaskRepository はPostgreSQL用のタスクリポジトリを作成します。
func NewPostgresTaskRepository(db *sqlx.DB) TaskRepository {
	return &postgresTaskRepository{db: db}
}

// Create は新しいタスクを作成し、採番されたIDを返します。
func (r *postgresTaskRepository) Create(ctx context.Context, task *models.Task) (int64, error) {
	query := `INSERT INTO tasks (title, user_id) VALUES ($1, $2) RETURNING id`
	var taskID int64

	err := r.db.QueryRowxContext(ctx, query, task.Title, task.UserID).Scan(&taskID)
	if err != nil {
		log.Printf("[repo] failed to create task for user %d: %v", task.UserID, err)
		return 0, fmt.Errorf("failed to insert task: %w", err)
	}

	return taskID, nil
}

// ListByUser は指定ユーザーのタスクを作成日時の降順で返します。
func (r *postgresTaskRepository) ListByUser(ctx context.Context, userID int64) ([]models.Task, error) {
	query := `SELECT id, title, user_id, created_at FROM tasks WHERE user_id = $1 ORDER BY created_at DESC`
	tasks := []models.Task{}

	if err := r.db.SelectContext(ctx, &tasks, query, userID); err != nil {
		log.Printf("[repo] failed to list tasks for user %d: %v", userID, err)
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	return tasks, nil
}

// GetByID は指定ユーザーが所有するタスクを1件取得します。
func (r *postgresTaskRepository) GetByID(ctx context.Context, taskID, userID int64) (*models.Task, error) {
	query := `SELECT id, title, user_id, created_at FROM tasks WHERE id = $1 AND user_id = $2`
	var task models.Task

	err := r.db.GetContext(ctx, &task, query, taskID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		log.Printf("[repo] failed to get task %d for user %d: %v", taskID, userID, err)
		return nil, fmt.Errorf("failed to query task: %w", err)
	}

	return &task, nil
}

// UpdateTitle は指定ユーザーが所有するタスクのタイトルを更新します。
// 影響行数がちょうど1でない場合は ErrTaskNotFound を返します。
func (r *postgresTaskRepository) UpdateTitle(ctx context.Context, taskID, userID int64, title string) error {
	query := `UPDATE tasks SET title = $1 WHERE id = $2 AND user_id = $3`

	res, err := r.db.ExecContext(ctx, query, title, taskID, userID)
	if err != nil {
		log.Printf("[repo] failed to update task %d for user %d: %v", taskID, userID, err)
		return fmt.Errorf("failed to update task: %w", err)
	}

	return requireOneRow(res)
}

// Delete は指定ユーザーが所有するタスクを削除します。
// 影響行数がちょうど1でない場合は ErrTaskNotFound を返します。
func (r *postgresTaskRepository) Delete(ctx context.Context, taskID, userID int64) error {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, taskID, userID)
	if err != nil {
		log.Printf("[repo] failed to delete task %d for user %d: %v", taskID, userID, err)
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected != 1 {
		return ErrTaskNotFound
	}
	return nil
}
