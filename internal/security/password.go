package security

import (
	"crypto/sha256"
	"encoding/base64"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskboard/domain"
)

const (
	MinPasswordLength = 8
	DefaultBcryptCost = 10

	// bcryptMaxInput is the longest input bcrypt accepts.
	bcryptMaxInput = 72
)

// PasswordHasher hashes and checks passwords with bcrypt.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// ValidatePassword enforces presence and minimum length.
func ValidatePassword(plaintext string) error {
	if plaintext == "" {
		return domain.ErrPasswordRequired
	}
	if utf8.RuneCountInString(plaintext) < MinPasswordLength {
		return domain.ErrPasswordTooShort
	}
	return nil
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if err := ValidatePassword(plaintext); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword(bcryptInput(plaintext), h.cost)
	if err != nil {
		return "", domain.WrapError(domain.ErrCodeInternal, "Error processing password", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. Malformed hashes count as a mismatch.
func (h *PasswordHasher) Verify(plaintext, hash string) bool {
	if plaintext == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), bcryptInput(plaintext)) == nil
}

// bcryptInput passes short passwords through unchanged and reduces longer
// ones to a base64 SHA-256 digest, so every byte still counts.
func bcryptInput(plaintext string) []byte {
	if len(plaintext) <= bcryptMaxInput {
		return []byte(plaintext)
	}
	sum := sha256.Sum256([]byte(plaintext))
	return []byte(base64.StdEncoding.EncodeToString(sum[:]))
}
