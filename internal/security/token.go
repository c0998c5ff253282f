package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fastygo/taskboard/domain"
)

// ErrTokenSigning is returned when a token cannot be issued.
var ErrTokenSigning = errors.New("failed to generate token")

// Claims is the JWT payload carried by bearer tokens.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() domain.Identity {
	return domain.Identity{UserID: c.UserID, Email: c.Email}
}

// VerifyStatus tags the outcome of Verify.
type VerifyStatus int

const (
	TokenValid VerifyStatus = iota
	TokenExpired
	TokenInvalid
	TokenFailed
)

func (s VerifyStatus) String() string {
	switch s {
	case TokenValid:
		return "valid"
	case TokenExpired:
		return "expired"
	case TokenInvalid:
		return "invalid"
	default:
		return "failed"
	}
}

// Verification is the result of checking a token. Claims is set only when
// Status is TokenValid; Err carries the underlying cause otherwise.
type Verification struct {
	Status VerifyStatus
	Claims *Claims
	Err    error
}

type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// TokenService issues and verifies HS256 tokens with a shared secret.
type TokenService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(cfg TokenConfig) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &TokenService{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(userID, email string) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: signing secret is not configured", ErrTokenSigning)
	}

	now := s.now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenSigning, err)
	}
	return signed, nil
}

// Refresh reissues a token for an identity that has already been verified.
func (s *TokenService) Refresh(identity domain.Identity) (string, error) {
	if identity.IsZero() {
		return "", domain.ErrUnauthorized
	}
	return s.Issue(identity.UserID, identity.Email)
}

func (s *TokenService) Verify(tokenString string) Verification {
	if len(s.secret) == 0 {
		return Verification{Status: TokenFailed, Err: fmt.Errorf("signing secret is not configured")}
	}

	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})

	switch {
	case err == nil && token.Valid:
	case isMalformed(err):
		return Verification{Status: TokenInvalid, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return Verification{Status: TokenExpired, Err: err}
	case err != nil:
		return Verification{Status: TokenFailed, Err: err}
	default:
		return Verification{Status: TokenInvalid, Err: errors.New("token is not valid")}
	}

	if s.issuer != "" && !claims.VerifyIssuer(s.issuer, true) {
		return Verification{Status: TokenInvalid, Err: errors.New("unexpected issuer")}
	}
	if claims.UserID == "" {
		return Verification{Status: TokenInvalid, Err: errors.New("missing userId claim")}
	}
	return Verification{Status: TokenValid, Claims: claims}
}

func isMalformed(err error) bool {
	var ve *jwt.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	const mask = jwt.ValidationErrorMalformed |
		jwt.ValidationErrorUnverifiable |
		jwt.ValidationErrorSignatureInvalid |
		jwt.ValidationErrorIssuedAt |
		jwt.ValidationErrorNotValidYet |
		jwt.ValidationErrorClaimsInvalid
	return ve.Errors&mask != 0
}
