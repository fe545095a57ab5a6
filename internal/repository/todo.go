package repository

import (
	"context"

	"tasklist/internal/domain"
)

// TodoRepository exposes persistence operations for Todo records. All reads
// and mutations are scoped to the owning user.
type TodoRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, todo *domain.Todo) (int64, error)
	Get(ctx context.Context, userID, id int64) (*domain.Todo, error)
	Update(ctx context.Context, todo *domain.Todo) error
	Delete(ctx context.Context, userID, id int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.Todo, error)
}
