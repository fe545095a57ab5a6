package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"tasklist/internal/apperr"
	"tasklist/internal/domain"
	"tasklist/internal/repository"
)

type UserRepository struct {
	db *bbolt.DB
}

func NewUserRepository(db *bbolt.DB) repository.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Init(ctx context.Context) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketUsers); err != nil {
			return fmt.Errorf("create users bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists(bucketUserEmails); err != nil {
			return fmt.Errorf("create user emails bucket: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.Update(func(tx *bbolt.Tx) error {
		users := tx.Bucket(bucketUsers)
		emails := tx.Bucket(bucketUserEmails)

		// email index enforces uniqueness
		if emails.Get([]byte(user.Email)) != nil {
			return apperr.ErrEmailTaken
		}

		seq, err := users.NextSequence()
		if err != nil {
			return fmt.Errorf("next user id: %w", err)
		}
		user.ID = int64(seq)

		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("marshal user: %w", err)
		}
		if err := users.Put(itob(seq), data); err != nil {
			return fmt.Errorf("put user: %w", err)
		}
		if err := emails.Put([]byte(user.Email), itob(seq)); err != nil {
			return fmt.Errorf("put email index: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		idKey := tx.Bucket(bucketUserEmails).Get([]byte(email))
		if idKey == nil {
			return apperr.ErrUserNotFound
		}
		data := tx.Bucket(bucketUsers).Get(idKey)
		if data == nil {
			return apperr.ErrUserNotFound
		}
		var u domain.User
		if err := json.Unmarshal(data, &u); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}
		user = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketUsers).Get(itob(uint64(id)))
		if data == nil {
			return apperr.ErrUserNotFound
		}
		var u domain.User
		if err := json.Unmarshal(data, &u); err != nil {
			return fmt.Errorf("unmarshal user: %w", err)
		}
		user = &u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
