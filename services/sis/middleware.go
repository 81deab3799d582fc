package sis

import (
	"context"
	"net/http"
	"strings"

	"karesis-backend/lib/scrapers/karesis"
)

type sessionKey struct{}

func withSession(ctx context.Context, client *karesis.Client) context.Context {
	return context.WithValue(ctx, sessionKey{}, client)
}

func sessionFromContext(ctx context.Context) *karesis.Client {
	client, _ := ctx.Value(sessionKey{}).(*karesis.Client)
	return client
}

// requireSession resolves the bearer token to its portal client and
// injects it into the request context, or stops the chain with a 401.
func (s *Service) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		client, ok := s.store.Get(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), client)))
	}
}
