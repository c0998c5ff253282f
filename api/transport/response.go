package transport

import (
	"time"

	"github.com/fastygo/taskboard/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type AuthResponse struct {
	Message string      `json:"message"`
	Token   string      `json:"token"`
	User    UserSummary `json:"user"`
}

type TokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

type ProfileUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type ProfileResponse struct {
	User ProfileUser `json:"user"`
}

type HealthResponse struct {
	Status    string          `json:"status"`
	Services  map[string]bool `json:"services"`
	LastCheck time.Time       `json:"lastCheck"`
}

func NewUserSummary(user *domain.User) UserSummary {
	return UserSummary{ID: user.ID, Username: user.Username, Email: user.Email}
}

func NewProfileResponse(user *domain.User) ProfileResponse {
	return ProfileResponse{User: ProfileUser{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}}
}
