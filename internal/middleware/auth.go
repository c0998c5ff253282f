package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/internal/security"
	"github.com/fastygo/taskboard/pkg/httpcontext"
)

// HeaderNewToken carries a reissued token back to the client.
const HeaderNewToken = "X-New-Token"

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

type TokenVerifier interface {
	Verify(token string) security.Verification
}

type TokenRefresher interface {
	Refresh(identity domain.Identity) (string, error)
}

// JWTAuth rejects requests without a valid bearer token and stores the
// caller's identity on the request for downstream handlers.
func JWTAuth(tokens TokenVerifier, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			header := ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)
			if len(header) == 0 {
				writeError(ctx, fasthttp.StatusUnauthorized, "No authorization header provided")
				return
			}

			tokenString := extractToken(string(header))
			if tokenString == "" {
				writeError(ctx, fasthttp.StatusUnauthorized, "No token provided")
				return
			}

			result := tokens.Verify(tokenString)
			switch result.Status {
			case security.TokenValid:
			case security.TokenExpired:
				writeError(ctx, fasthttp.StatusUnauthorized, "Token has expired")
				return
			case security.TokenInvalid:
				logger.Debug("invalid jwt token", zap.Error(result.Err))
				writeError(ctx, fasthttp.StatusUnauthorized, "Invalid token")
				return
			default:
				logger.Warn("jwt verification failed",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.Error(result.Err))
				writeError(ctx, fasthttp.StatusUnauthorized, "Token verification failed")
				return
			}

			httpcontext.SetIdentity(ctx, result.Claims.Identity())
			next(ctx)
		}
	}
}

// RefreshToken issues a fresh token for the authenticated caller and exposes
// it in the X-New-Token header. Must run after JWTAuth.
func RefreshToken(tokens TokenRefresher, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			identity, ok := httpcontext.IdentityFromRequest(ctx)
			if !ok {
				writeError(ctx, fasthttp.StatusUnauthorized, domain.ErrUnauthorized.Message)
				return
			}

			token, err := tokens.Refresh(identity)
			if err != nil {
				logger.Error("token refresh failed",
					zap.String("request_id", httpcontext.RequestID(ctx)),
					zap.String("user_id", identity.UserID),
					zap.Error(err))
				writeError(ctx, fasthttp.StatusInternalServerError, "Failed to refresh token")
				return
			}

			ctx.Response.Header.Set(HeaderNewToken, token)
			next(ctx)
		}
	}
}

// extractToken accepts "Bearer <token>" or a bare token. The scheme is
// case-sensitive: "bearer <token>" is treated as a bare token and fails
// verification.
func extractToken(header string) string {
	if strings.TrimSpace(header) == "Bearer" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return strings.TrimSpace(header)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(map[string]string{"error": message})
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
