package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/taskboard/api/transport"
	"github.com/fastygo/taskboard/internal/middleware"
	"github.com/fastygo/taskboard/pkg/httpcontext"
	authUC "github.com/fastygo/taskboard/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a user
// @Tags auth
// @Router /auth/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Register(stdCtx, authUC.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Registration failed")
		return
	}

	h.respondJSON(ctx, http.StatusCreated, transport.AuthResponse{
		Message: "Registration successful",
		Token:   result.Token,
		User:    transport.NewUserSummary(result.User),
	})
}

// @Summary Log in with email and password
// @Tags auth
// @Router /auth/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	var req transport.LoginRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	result, err := h.uc.Login(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(stdCtx, ctx, err, "Login failed")
		return
	}

	h.respondJSON(ctx, http.StatusOK, transport.AuthResponse{
		Message: "Login successful",
		Token:   result.Token,
		User:    transport.NewUserSummary(result.User),
	})
}

// Refresh echoes the token placed in X-New-Token by middleware.RefreshToken.
// @Summary Refresh the bearer token
// @Tags auth
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusOK, transport.TokenResponse{
		Message: "Token refreshed",
		Token:   string(ctx.Response.Header.Peek(middleware.HeaderNewToken)),
	})
}

// Logout is acknowledgement only: tokens are stateless and stay valid until expiry.
// @Summary Log out
// @Tags auth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(ctx *fasthttp.RequestCtx) {
	h.respondJSON(ctx, http.StatusOK, transport.MessageResponse{Message: "Logged out successfully"})
}
