package daemon

import (
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// tokenSet holds the bearer tokens issued to authenticated sessions.
// Tokens live until revoked or the daemon restarts.
type tokenSet struct {
	mu     sync.Mutex
	tokens map[string]struct{}
}

func newTokenSet() *tokenSet {
	return &tokenSet{tokens: make(map[string]struct{})}
}

func (t *tokenSet) issue() string {
	token := uuid.NewString()
	t.mu.Lock()
	t.tokens[token] = struct{}{}
	t.mu.Unlock()
	return token
}

func (t *tokenSet) valid(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.tokens[token]
	return ok
}

func (t *tokenSet) revoke(token string) {
	t.mu.Lock()
	delete(t.tokens, token)
	t.mu.Unlock()
}

// bearerToken extracts the token from an Authorization header, or "".
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(auth, "Bearer ")
}

// authMiddleware returns a middleware that validates issued bearer tokens.
func authMiddleware(tokens *tokenSet, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" || !tokens.valid(token) {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
