// Package handler contains the HTTP layer: request parsing, identity
// extraction, and response writing. No business rules live here — handlers
// delegate to services and translate their outcomes.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/gigflow/internal/auth"
	"github.com/sakif/gigflow/internal/model"
	"github.com/sakif/gigflow/internal/service"
)

// AuthHandler manages registration, login, logout, and the current-user
// endpoint. Tokens are issued here and stored in an HttpOnly cookie.
type AuthHandler struct {
	users  *service.UserService
	tokens *auth.TokenService
	logger *slog.Logger
}

func NewAuthHandler(users *service.UserService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tokens: tokens,
		logger: logger,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	User *model.User `json:"user"`
}

// HandleRegister creates an account and logs the new user straight in.
//
// HTTP: POST /api/auth/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid register JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	user, err := h.users.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueToken(w, user); err != nil {
		h.logger.Error("failed to issue token", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{User: user})
}

// HandleLogin verifies credentials and sets the session cookie.
//
// HTTP: POST /api/auth/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("invalid login JSON", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "invalid JSON body"})
		return
	}

	user, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.issueToken(w, user); err != nil {
		h.logger.Error("failed to issue token", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: user})
}

// HandleLogout clears the session cookie. Stateless tokens can't be
// revoked server-side; expiring the cookie is the whole operation.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/auth/me (requires auth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "not authenticated"})
		return
	}

	user, err := h.users.GetByID(r.Context(), id.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: user})
}

// issueToken signs a JWT for the user and stores it in the session cookie.
func (h *AuthHandler) issueToken(w http.ResponseWriter, user *model.User) error {
	token, err := h.tokens.Generate(auth.Identity{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	})
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60, // matches the token lifetime
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
