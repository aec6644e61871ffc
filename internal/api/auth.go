package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/apt777/finance-app/internal/config"
)

// Authenticator resolves a bearer token to a user id.
type Authenticator interface {
	Authenticate(token string) (userID string, ok bool)
}

// TokenAuth authenticates the static tokens listed in the configuration.
type TokenAuth struct {
	tokens []config.Token
}

// NewTokenAuth creates a TokenAuth.
func NewTokenAuth(tokens []config.Token) *TokenAuth {
	return &TokenAuth{tokens: tokens}
}

// Authenticate implements Authenticator.
func (a *TokenAuth) Authenticate(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	for _, t := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(t.Token), []byte(token)) == 1 {
			return t.UserID, true
		}
	}
	return "", false
}

type ctxKey struct{}

// UserID returns the authenticated user of a request context.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithUserID returns a context carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// authenticate requires a valid "Authorization: Bearer" header. Browsers
// cannot set headers on websocket requests, so access_token is accepted as
// a query parameter too.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			token = r.URL.Query().Get("access_token")
		}
		userID, ok := s.auth.Authenticate(strings.TrimSpace(token))
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="finapp"`)
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized", Code: "unauthorized"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}
