package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/jonathan/talent-engine/internal/config"
	"github.com/jonathan/talent-engine/internal/db"
	"go.uber.org/zap"
)

// UserStore looks up accounts for authentication
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*db.User, error)
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is the public view of an account
type UserResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Role    string    `json:"role"`
	Premium bool      `json:"premium"`
}

// LoginResponse carries the authenticated user and a bearer token
type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	users      UserStore
	passwords  *config.PasswordConfig
	jwtService *JWTService
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(users UserStore, passwords *config.PasswordConfig, jwtService *JWTService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{
		users:      users,
		passwords:  passwords,
		jwtService: jwtService,
		validator:  validator.New(),
		logger:     logger,
	}
}

// Login exchanges email and password for a token. Unknown emails and wrong
// passwords produce the same response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req, h.validator, false); err != nil {
		h.fail(w, err)
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("failed to look up user", zap.Error(err))
		h.fail(w, err)
		return
	}
	if user == nil || user.PasswordHash == "" || !h.passwords.VerifyPassword(req.Password, user.PasswordHash) {
		h.logger.Info("login rejected", zap.String("email", req.Email))
		h.fail(w, &ErrInvalidCredentials{})
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID, user.Role, user.Premium)
	if err != nil {
		h.logger.Error("failed to generate token", zap.Error(err))
		h.fail(w, err)
		return
	}

	var resp LoginResponse
	if err := copier.Copy(&resp.User, user); err != nil {
		h.fail(w, err)
		return
	}
	resp.Token = token
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

func (h *AuthHandler) fail(w http.ResponseWriter, err error) {
	_ = writeJSON(w, HTTPStatus(err), toErrorBody(err))
}

// decodeJSON decodes the request body into dst and validates it. An empty
// body is accepted when optional is set.
func decodeJSON(r *http.Request, dst any, v *validator.Validate, optional bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(optional && errors.Is(err, io.EOF)) {
			return &ErrValidation{Field: "body", Message: "invalid JSON"}
		}
	}
	if err := v.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

// validationError reports the first failing field.
func validationError(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return &ErrValidation{Field: ve.Field(), Message: ve.Tag()}
	}
	return &ErrValidation{Field: "body", Message: err.Error()}
}
