package auth

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository"
)

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type TokenIssuer interface {
	Issue(userID, email string) (string, error)
	Refresh(identity domain.Identity) (string, error)
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Result is returned by Register and Login.
type Result struct {
	Token string
	User  *domain.User
}

type UseCase struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	logger *zap.Logger
}

func New(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register hashes the password first so password errors win over missing
// fields, then rejects duplicates before inserting.
func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	hash, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	if in.Username == "" || in.Email == "" {
		return nil, domain.ErrIdentityRequired
	}

	existing, err := uc.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	switch {
	case err == nil && existing != nil:
		return nil, domain.ErrUserExists
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return nil, err
	}

	user, err := uc.users.Create(ctx, &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return nil, err
	}

	token, err := uc.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("user registered", zap.String("user_id", user.ID))
	return &Result{Token: token, User: user}, nil
}

// Login returns domain.ErrInvalidCredentials for both unknown emails and
// wrong passwords.
func (uc *UseCase) Login(ctx context.Context, email, password string) (*Result, error) {
	if email == "" || password == "" {
		return nil, domain.ErrCredentialsMissing
	}

	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !uc.hasher.Verify(password, user.PasswordHash) {
		uc.logger.Debug("password mismatch", zap.String("user_id", user.ID))
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: user}, nil
}

// Refresh issues a new token for an authenticated caller. Previously issued
// tokens stay valid until they expire.
func (uc *UseCase) Refresh(identity domain.Identity) (string, error) {
	return uc.tokens.Refresh(identity)
}
