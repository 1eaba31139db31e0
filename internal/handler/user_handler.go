package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// UserHandler handles ledger owner registration
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// EnsureUserRequest represents the ensure user request body
type EnsureUserRequest struct {
	Username *string `json:"username,omitempty"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID        int64   `json:"id"`
	Username  *string `json:"username,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

// EnsureUser creates the user with default categories on first contact and returns it
func (h *UserHandler) EnsureUser(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "ensure user")
	}

	var req EnsureUserRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return NewValidationError(c, "Invalid request body", nil)
		}
	}

	user, err := h.userService.EnsureUser(userID, req.Username)
	if err != nil {
		return handleServiceError(c, err, "ensure user")
	}

	return c.JSON(http.StatusOK, toUserResponse(user))
}

// GetUser returns a registered user
func (h *UserHandler) GetUser(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "get user")
	}

	user, err := h.userService.GetUser(userID)
	if err != nil {
		return handleServiceError(c, err, "get user")
	}
	return c.JSON(http.StatusOK, toUserResponse(user))
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
	}
}
