package identity

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const key = contextKey("identity")

// WithIdentity кладёт личность в контекст.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, key, id)
}

// FromContext извлекает личность из контекста.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(key).(Identity)
	return id, ok
}

// Middleware разбирает "Authorization: Bearer <token>".
// Запрос без токена проходит дальше анонимно (только чтение),
// запрос с битым токеном получает 401.
func Middleware(issuer *Issuer, onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearer(r)
			if tok == "" {
				next.ServeHTTP(w, r)
				return
			}
			id, err := issuer.Parse(tok)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		// браузерный WebSocket не умеет выставлять заголовки
		return r.URL.Query().Get("access_token")
	}
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}
