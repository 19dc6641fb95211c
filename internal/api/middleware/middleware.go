package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hybrasil/storefront/internal/auth"
	"github.com/hybrasil/storefront/internal/domain/session"
	"github.com/hybrasil/storefront/internal/domain/siteconfig"
)

// SessionCookie is the cookie carrying the signed session token.
const SessionCookie = "hybrasil_session"

func respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// ExtractToken pulls the session token from the cookie or, for API
// clients, the Authorization header.
func ExtractToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

type contextKey string

const sessionContextKey contextKey = "session"

// RequireSession validates the token and resolves the live session from the
// manager. The manager is authoritative: a valid token whose session was
// logged out is rejected. Anonymous viewers get 401 and can reach only the
// auth surface.
func RequireSession(jwtService *auth.JWTService, sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := ExtractToken(r)
			if tokenString == "" {
				respondError(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateSessionToken(tokenString)
			if err != nil {
				respondError(w, "invalid session", http.StatusUnauthorized)
				return
			}

			sess, ok := sessions.Get(claims.SessionID)
			if !ok || !sess.IsLoggedIn {
				respondError(w, "session expired", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CountdownGate replaces every non-admin route with the countdown payload
// while the countdown flag is active, regardless of the requested path.
func CountdownGate(cfgService *siteconfig.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := GetSession(r.Context())
			if cfgService.CountdownForbids(sess.IsAdmin) {
				cfg := cfgService.Get()
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusServiceUnavailable)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"countdown": true,
					"date":      cfg.CountdownDate,
					"message":   cfg.CountdownMessage,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates the back-office. Non-admin sessions are turned away.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := GetSession(r.Context())
		if !ok || !sess.IsAdmin {
			respondError(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetSession retrieves the session from the request context.
func GetSession(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey).(session.Session)
	return sess, ok
}
