package handler

import (
	"log/slog"
	"net/http"

	"github.com/wtjandra96/modern-webapp-sub000/internal/apperror"
	"github.com/wtjandra96/modern-webapp-sub000/internal/auth"
	"github.com/wtjandra96/modern-webapp-sub000/internal/service"
	"github.com/wtjandra96/modern-webapp-sub000/internal/validate"
)

// AuthHandler exposes registration, login, and account endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	validator *validate.Validator
	logger    *slog.Logger
}

func NewAuthHandler(authService *service.AuthService, validator *validate.Validator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, validator: validator, logger: logger}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

// userResponse is the client-facing view of an account. The model already
// hides PasswordHash via json:"-"; this narrows the rest.
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// HandleRegister creates an account.
//
// POST /api/auth/register {"username": "...", "password": "..."}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "user registered",
	})
}

// HandleLogin verifies credentials and issues a token.
//
// POST /api/auth/login {"username": "...", "password": "..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// The cookie backs the browser flow; the token in the body backs the
	// Authorization header flow. Same token either way.
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    result.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "login successful",
		"token":   result.Token,
		"user":    userResponse{ID: result.User.ID, Username: result.User.Username},
	})
}

// HandleMe returns the account behind the presented token.
//
// GET /api/auth/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": userResponse{ID: user.ID, Username: user.Username},
	})
}

// HandleChangePassword rotates the caller's password.
//
// PUT /api/auth/password {"oldPassword": "...", "newPassword": "..."}
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("valid authentication required"))
		return
	}

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := h.validator.Validate(req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "password updated",
	})
}
