package api

import (
	"fmt"

	"github.com/ImaanAdrees/smartscribe/internal/model"
)

// ErrorResponse is the backend's JSON error body.
type ErrorResponse struct {
	Message string `json:"message"`
}

// StatusError carries a non-2xx backend response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend error (%d): %s", e.StatusCode, e.Message)
}

// notificationListResponse is the body of GET /api/notifications/user/list.
type notificationListResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

// loginRequest is the body of POST /api/auth/login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult holds the fields the client keeps from a login response.
type LoginResult struct {
	Token  string `json:"token"`
	UserID string `json:"_id"`
	Name   string `json:"name"`
}
