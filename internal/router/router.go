package router

import (
	"encoding/json"
	"net/http"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskboard/api/handler"
	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/internal/middleware"
)

type Handlers struct {
	Auth    *apiHandler.AuthHandler
	Profile *apiHandler.ProfileHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

// New registers every route. auth guards the protected routes; refresh runs
// after auth on /auth/refresh only.
func New(handlers Handlers, auth, refresh middleware.Middleware, logger *zap.Logger) *router.Router {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := router.New()
	r.PanicHandler = func(ctx *fasthttp.RequestCtx, recovered interface{}) {
		logger.Error("panic while handling request",
			zap.String("method", string(ctx.Method())),
			zap.String("path", string(ctx.Path())),
			zap.Any("panic", recovered))
		writeJSON(ctx, http.StatusInternalServerError, transport.ErrorResponse{Error: "Internal server error"})
	}
	r.NotFound = func(ctx *fasthttp.RequestCtx) {
		writeJSON(ctx, http.StatusNotFound, transport.ErrorResponse{Error: "Route not found"})
	}

	r.GET("/", handlers.Health.Root)
	r.GET("/health", handlers.Health.Check)

	// Auth routes
	r.POST("/auth/register", handlers.Auth.Register)
	r.POST("/auth/login", handlers.Auth.Login)
	r.POST("/auth/refresh", auth(refresh(handlers.Auth.Refresh)))
	r.POST("/auth/logout", auth(handlers.Auth.Logout))

	// Protected routes
	r.GET("/api/profile", auth(handlers.Profile.GetProfile))

	r.GET("/api/tasks", auth(handlers.Task.GetTasks))
	r.POST("/api/tasks", auth(handlers.Task.CreateTask))
	r.GET("/api/tasks/{id}", auth(handlers.Task.GetTask))
	r.PUT("/api/tasks/{id}", auth(handlers.Task.UpdateTask))
	r.DELETE("/api/tasks/{id}", auth(handlers.Task.DeleteTask))

	return r
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(payload)
	ctx.SetBody(body)
}
