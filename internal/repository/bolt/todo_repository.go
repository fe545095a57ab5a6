package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.etcd.io/bbolt"

	"tasklist/internal/apperr"
	"tasklist/internal/domain"
	"tasklist/internal/repository"
)

type TodoRepository struct {
	db *bbolt.DB
}

func NewTodoRepository(db *bbolt.DB) repository.TodoRepository {
	return &TodoRepository{db: db}
}

func (r *TodoRepository) Init(ctx context.Context) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketTodos); err != nil {
			return fmt.Errorf("create todos bucket: %w", err)
		}
		return nil
	})
}

func (r *TodoRepository) Create(ctx context.Context, todo *domain.Todo) (int64, error) {
	now := time.Now().UTC()
	todo.CreatedAt = now
	todo.UpdatedAt = now

	err := r.db.Update(func(tx *bbolt.Tx) error {
		todos := tx.Bucket(bucketTodos)

		seq, err := todos.NextSequence()
		if err != nil {
			return fmt.Errorf("next todo id: %w", err)
		}
		todo.ID = int64(seq)

		data, err := json.Marshal(todo)
		if err != nil {
			return fmt.Errorf("marshal todo: %w", err)
		}
		return todos.Put(itob(seq), data)
	})
	if err != nil {
		return 0, err
	}
	return todo.ID, nil
}

func (r *TodoRepository) Get(ctx context.Context, userID, id int64) (*domain.Todo, error) {
	var todo *domain.Todo
	err := r.db.View(func(tx *bbolt.Tx) error {
		t, err := getTodo(tx, userID, id)
		if err != nil {
			return err
		}
		todo = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

func (r *TodoRepository) Update(ctx context.Context, todo *domain.Todo) error {
	todo.UpdatedAt = time.Now().UTC()

	return r.db.Update(func(tx *bbolt.Tx) error {
		if _, err := getTodo(tx, todo.UserID, todo.ID); err != nil {
			return err
		}
		data, err := json.Marshal(todo)
		if err != nil {
			return fmt.Errorf("marshal todo: %w", err)
		}
		return tx.Bucket(bucketTodos).Put(itob(uint64(todo.ID)), data)
	})
}

func (r *TodoRepository) Delete(ctx context.Context, userID, id int64) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if _, err := getTodo(tx, userID, id); err != nil {
			return err
		}
		return tx.Bucket(bucketTodos).Delete(itob(uint64(id)))
	})
}

func (r *TodoRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Todo, error) {
	var todos []domain.Todo
	err := r.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketTodos).ForEach(func(_, data []byte) error {
			var todo domain.Todo
			if err := json.Unmarshal(data, &todo); err != nil {
				return fmt.Errorf("unmarshal todo: %w", err)
			}
			if todo.UserID == userID {
				todos = append(todos, todo)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(todos, func(i, j int) bool {
		if todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].ID > todos[j].ID
		}
		return todos[i].CreatedAt.After(todos[j].CreatedAt)
	})
	return todos, nil
}

// getTodo loads a todo within a transaction and hides records owned by other
// users behind the same not-found error.
func getTodo(tx *bbolt.Tx, userID, id int64) (*domain.Todo, error) {
	data := tx.Bucket(bucketTodos).Get(itob(uint64(id)))
	if data == nil {
		return nil, apperr.ErrTodoNotFound
	}
	var todo domain.Todo
	if err := json.Unmarshal(data, &todo); err != nil {
		return nil, fmt.Errorf("unmarshal todo: %w", err)
	}
	if todo.UserID != userID {
		return nil, apperr.ErrTodoNotFound
	}
	return &todo, nil
}
