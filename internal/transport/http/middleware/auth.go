package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

// SessionUserContextKey holds the Slack user id of the authenticated session.
const SessionUserContextKey contextKey = "session_user"

// SessionVerifier validates a bearer token and returns its subject.
type SessionVerifier interface {
	VerifySession(token string) (string, error)
}

// RequireSession rejects requests without a valid bearer session token and
// stores the token subject in the request context.
func RequireSession(verifier SessionVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w, "Missing bearer token")
				return
			}

			subject, err := verifier.VerifySession(token)
			if err != nil {
				logger.WarnContext(r.Context(), "Rejected session token", "error", err)
				unauthorized(w, "Invalid session token")
				return
			}

			ctx := context.WithValue(r.Context(), SessionUserContextKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionUser extracts the authenticated Slack user id, if any.
func SessionUser(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(SessionUserContextKey).(string)
	return subject, ok && subject != ""
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
