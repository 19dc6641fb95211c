package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hybrasil/storefront/internal/api/middleware"
	"github.com/hybrasil/storefront/internal/auth"
	"github.com/hybrasil/storefront/internal/domain/cart"
	"github.com/hybrasil/storefront/internal/domain/session"
)

// AuthHandlers handles login, logout and session introspection.
type AuthHandlers struct {
	sessions   *session.Manager
	carts      *cart.Manager
	jwtService *auth.JWTService
}

func NewAuthHandlers(sessions *session.Manager, carts *cart.Manager, jwtService *auth.JWTService) *AuthHandlers {
	return &AuthHandlers{
		sessions:   sessions,
		carts:      carts,
		jwtService: jwtService,
	}
}

// SessionResponse is the session as shown to its owner.
type SessionResponse struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	IsAdmin    bool   `json:"isAdmin"`
	Username   string `json:"username"`
	Email      string `json:"email"`
}

func sessionResponse(sess session.Session) SessionResponse {
	return SessionResponse{
		IsLoggedIn: sess.IsLoggedIn,
		IsAdmin:    sess.IsAdmin,
		Username:   sess.Username,
		Email:      sess.Email,
	}
}

// Login authenticates and opens a session. Failures carry the running
// attempt counter; there is no lockout.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sess, err := h.sessions.Login(r.Context(), creds)
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, auth.ErrWeakPassword) {
			status = http.StatusBadRequest
		}
		respondJSON(w, status, map[string]any{
			"error":    err.Error(),
			"attempts": h.sessions.Failures(),
		})
		return
	}

	h.setSessionCookie(w, r, sess)
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

// Register validates a new identity and directs the caller back to login;
// nothing is stored.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.sessions.Register(creds); err != nil {
		respondJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "registered, please log in"})
}

// Logout resets to the anonymous session and destroys the session's cart.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if sess, ok := middleware.GetSession(r.Context()); ok {
		if err := h.sessions.Logout(r.Context(), sess.ID); err != nil {
			respondJSONError(w, err.Error(), http.StatusInternalServerError)
			return
		}
		h.carts.Drop(sess.ID)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondJSON(w, http.StatusOK, sessionResponse(session.Anonymous()))
}

// GetSession returns the viewer's own session.
func (h *AuthHandlers) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, _ := middleware.GetSession(r.Context())
	respondJSON(w, http.StatusOK, sessionResponse(sess))
}

func (h *AuthHandlers) setSessionCookie(w http.ResponseWriter, r *http.Request, sess session.Session) {
	token, expiresAt, err := h.jwtService.GenerateSessionToken(sess.ID, sess.Username, sess.Email, sess.IsAdmin)
	if err != nil {
		respondJSONError(w, fmt.Sprintf("failed to create session token: %v", err), http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(time.Until(expiresAt).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
