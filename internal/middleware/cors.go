package middleware

import (
	"regexp"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/pkg/httpcontext"
)

var localhostOrigin = regexp.MustCompile(`^http://localhost(:\d+)?$`)

const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Authorization, Content-Type, X-Request-ID"
	corsExposeHeaders = HeaderNewToken + ", X-Request-ID"
)

// CORS allows requests without an Origin, from the configured frontend
// origin, and from http://localhost on any port. Everything else gets 403.
// It is the outermost handler, so it also stamps X-Request-ID on every response.
func CORS(frontendURL string, logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	allowed := strings.TrimRight(frontendURL, "/")

	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			httpcontext.RequestID(ctx)

			origin := string(ctx.Request.Header.Peek(fasthttp.HeaderOrigin))
			if origin == "" {
				next(ctx)
				return
			}

			if !OriginAllowed(origin, allowed) {
				logger.Debug("cors origin rejected", zap.String("origin", origin))
				writeError(ctx, fasthttp.StatusForbidden, "Not allowed by CORS")
				return
			}

			h := &ctx.Response.Header
			h.Set(fasthttp.HeaderAccessControlAllowOrigin, origin)
			h.Set(fasthttp.HeaderAccessControlAllowCredentials, "true")
			h.Set(fasthttp.HeaderAccessControlExposeHeaders, corsExposeHeaders)
			h.Add(fasthttp.HeaderVary, fasthttp.HeaderOrigin)

			if ctx.IsOptions() && len(ctx.Request.Header.Peek(fasthttp.HeaderAccessControlRequestMethod)) > 0 {
				h.Set(fasthttp.HeaderAccessControlAllowMethods, corsAllowMethods)
				h.Set(fasthttp.HeaderAccessControlAllowHeaders, corsAllowHeaders)
				ctx.SetStatusCode(fasthttp.StatusNoContent)
				return
			}

			next(ctx)
		}
	}
}

// OriginAllowed applies the origin policy; frontend must already be trimmed.
func OriginAllowed(origin, frontend string) bool {
	normalized := strings.TrimRight(origin, "/")
	if frontend != "" && normalized == frontend {
		return true
	}
	return localhostOrigin.MatchString(normalized)
}
