package service

import (
	"context"
	"strings"

	"tasklist/internal/apperr"
	"tasklist/internal/domain"
	"tasklist/internal/repository"
)

// TodoPatch carries a partial update; nil fields are left unchanged.
type TodoPatch struct {
	Title     *string
	Completed *bool
}

// TodoService coordinates todo operations scoped to the authenticated user.
type TodoService interface {
	List(ctx context.Context, userID int64) ([]domain.Todo, error)
	Create(ctx context.Context, userID int64, title string) (*domain.Todo, error)
	Update(ctx context.Context, userID, id int64, patch TodoPatch) (*domain.Todo, error)
	Delete(ctx context.Context, userID, id int64) error
}

type todoService struct {
	todos repository.TodoRepository
}

func NewTodoService(todos repository.TodoRepository) TodoService {
	return &todoService{todos: todos}
}

func (s *todoService) List(ctx context.Context, userID int64) ([]domain.Todo, error) {
	return s.todos.ListByUser(ctx, userID)
}

func (s *todoService) Create(ctx context.Context, userID int64, title string) (*domain.Todo, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}

	todo := &domain.Todo{
		UserID:    userID,
		Title:     title,
		Completed: false,
	}
	if _, err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Update(ctx context.Context, userID, id int64, patch TodoPatch) (*domain.Todo, error) {
	todo, err := s.todos.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.Validation("title must not be empty")
		}
		todo.Title = title
	}
	if patch.Completed != nil {
		todo.Completed = *patch.Completed
	}

	// last write wins; concurrent updates to the same todo are unordered
	if err := s.todos.Update(ctx, todo); err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, userID, id int64) error {
	return s.todos.Delete(ctx, userID, id)
}
