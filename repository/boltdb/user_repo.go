package boltdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/taskboard/domain"
	boltInfra "github.com/fastygo/taskboard/internal/infrastructure/boltdb"
	"github.com/fastygo/taskboard/repository"
)

// userRecord is the stored form; domain.User hides the hash from JSON.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r userRecord) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

type userRepository struct {
	db *bolt.DB
}

// NewUserRepository returns a BoltDB-backed user repository. Uniqueness of
// username and email is kept with two index buckets updated in the same
// transaction as the record.
func NewUserRepository(db *bolt.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		user, err = loadUser(tx, []byte(id))
		return err
	})
	return user, err
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.byIndex(boltInfra.BucketUsersByEmail, email)
}

func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	user, err := r.byIndex(boltInfra.BucketUsersByUsername, username)
	if err == nil {
		return user, nil
	}
	if err != domain.ErrUserNotFound {
		return nil, err
	}
	return r.byIndex(boltInfra.BucketUsersByEmail, email)
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	record := userRecord{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	err = r.db.Update(func(tx *bolt.Tx) error {
		byEmail := tx.Bucket(boltInfra.BucketUsersByEmail)
		byUsername := tx.Bucket(boltInfra.BucketUsersByUsername)
		if byEmail.Get([]byte(user.Email)) != nil || byUsername.Get([]byte(user.Username)) != nil {
			return domain.ErrUserExists
		}
		if err := tx.Bucket(boltInfra.BucketUsers).Put([]byte(user.ID), payload); err != nil {
			return err
		}
		if err := byEmail.Put([]byte(user.Email), []byte(user.ID)); err != nil {
			return err
		}
		return byUsername.Put([]byte(user.Username), []byte(user.ID))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) byIndex(bucket []byte, key string) (*domain.User, error) {
	if key == "" {
		return nil, domain.ErrUserNotFound
	}
	var user *domain.User
	err := r.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket(bucket).Get([]byte(key))
		if id == nil {
			return domain.ErrUserNotFound
		}
		var err error
		user, err = loadUser(tx, id)
		return err
	})
	return user, err
}

func loadUser(tx *bolt.Tx, id []byte) (*domain.User, error) {
	raw := tx.Bucket(boltInfra.BucketUsers).Get(id)
	if raw == nil {
		return nil, domain.ErrUserNotFound
	}
	var record userRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, err
	}
	return record.toDomain(), nil
}
