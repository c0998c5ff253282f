package repository

import (
	"context"

	"github.com/fastygo/taskboard/domain"
)

// UserRepository returns domain.ErrUserNotFound for absent rows and
// domain.ErrUserExists when a unique constraint rejects Create.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
}
