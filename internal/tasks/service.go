// Package tasks はタスクのCRUD操作とそのHTTPハンドラーを提供します。
package tasks

import (
	"context"
	"errors"
	"strings"

	"github.com/yourusername/todolist/internal/models"
	"github.com/yourusername/todolist/internal/repository"
)

// ErrEmptyTitle はトリム後のタイトルが空の場合に返されます。
var ErrEmptyTitle = errors.New("title is empty")

// Service はタスク操作を提供します。全ての操作は所有者のユーザーIDを要求します。
type Service interface {
	List(ctx context.Context, userID int64) ([]models.Task, error)
	Add(ctx context.Context, userID int64, title string) error
	Get(ctx context.Context, taskID, userID int64) (*models.Task, error)
	UpdateTitle(ctx context.Context, taskID, userID int64, title string) error
	Delete(ctx context.Context, taskID, userID int64) error
}

type service struct {
	repo repository.TaskRepository
}

// NewService はタスクサービスを作成します。
func NewService(repo repository.TaskRepository) Service {
	return &service{repo: repo}
}

// List はユーザーのタスクを新しい順に返します。
func (s *service) List(ctx context.Context, userID int64) ([]models.Task, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Add はトリム済みタイトルでタスクを作成します。空タイトルは ErrEmptyTitle になります。
func (s *service) Add(ctx context.Context, userID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	_, err := s.repo.Create(ctx, &models.Task{
		Title:  title,
		UserID: userID,
	})
	return err
}

// Get は所有タスクを1件返します。
func (s *service) Get(ctx context.Context, taskID, userID int64) (*models.Task, error) {
	return s.repo.GetByID(ctx, taskID, userID)
}

// UpdateTitle は所有タスクのタイトルをトリムして更新します。
func (s *service) UpdateTitle(ctx context.Context, taskID, userID int64, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	return s.repo.UpdateTitle(ctx, taskID, userID, title)
}

// Delete は所有タスクを削除します。
func (s *service) Delete(ctx context.Context, taskID, userID int64) error {
	return s.repo.Delete(ctx, taskID, userID)
}
