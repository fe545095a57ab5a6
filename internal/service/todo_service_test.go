package service

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/apperr"
	"tasklist/internal/domain"
	"tasklist/internal/repository/sqlite"
)

func setupTodos(t *testing.T) (TodoService, int64) {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := sqlite.NewUserRepository(db)
	require.NoError(t, users.Init(ctx))
	todos := sqlite.NewTodoRepository(db)
	require.NoError(t, todos.Init(ctx))

	owner := &domain.User{Name: "Owner", Email: "owner@example.com", PasswordHash: "hash"}
	ownerID, err := users.Create(ctx, owner)
	require.NoError(t, err)

	return NewTodoService(todos), ownerID
}

func TestCreate_TrimsTitle(t *testing.T) {
	svc, owner := setupTodos(t)

	todo, err := svc.Create(context.Background(), owner, "  buy milk  ")
	require.NoError(t, err)
	assert.Equal(t, "buy milk", todo.Title)
	assert.False(t, todo.Completed)
}

func TestCreate_WhitespaceOnlyTitle(t *testing.T) {
	svc, owner := setupTodos(t)

	_, err := svc.Create(context.Background(), owner, "   ")
	assert.True(t, apperr.IsValidation(err), "expected validation error, got %v", err)
}

func TestUpdate_UnknownID(t *testing.T) {
	svc, owner := setupTodos(t)
	ctx := context.Background()

	completed := true
	_, err := svc.Update(ctx, owner, 999, TodoPatch{Completed: &completed})
	assert.ErrorIs(t, err, apperr.ErrTodoNotFound)

	// store unchanged
	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc, owner := setupTodos(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, owner, "original")
	require.NoError(t, err)

	// completed only: title untouched
	completed := true
	updated, err := svc.Update(ctx, owner, todo.ID, TodoPatch{Completed: &completed})
	require.NoError(t, err)
	assert.Equal(t, "original", updated.Title)
	assert.True(t, updated.Completed)

	// title only: completed untouched
	title := "  renamed  "
	updated, err = svc.Update(ctx, owner, todo.ID, TodoPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.True(t, updated.Completed)
}

func TestUpdate_BlankTitle(t *testing.T) {
	svc, owner := setupTodos(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, owner, "keep me")
	require.NoError(t, err)

	blank := "   "
	_, err = svc.Update(ctx, owner, todo.ID, TodoPatch{Title: &blank})
	assert.True(t, apperr.IsValidation(err), "expected validation error, got %v", err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "keep me", list[0].Title)
}

func TestRoundTrip(t *testing.T) {
	svc, owner := setupTodos(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, owner, "round trip")
	require.NoError(t, err)

	completed := true
	_, err = svc.Update(ctx, owner, created.ID, TodoPatch{Completed: &completed})
	require.NoError(t, err)

	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, "round trip", list[0].Title)
	assert.True(t, list[0].Completed)
	assert.GreaterOrEqual(t, list[0].UpdatedAt.Unix(), list[0].CreatedAt.Unix())
}

func TestDelete_Twice(t *testing.T) {
	svc, owner := setupTodos(t)
	ctx := context.Background()

	todo, err := svc.Create(ctx, owner, "delete me")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, owner, todo.ID))
	err = svc.Delete(ctx, owner, todo.ID)
	assert.ErrorIs(t, err, apperr.ErrTodoNotFound)
}
