package authz

import (
	"context"
	"net/http"

	"github.com/outpasshq/notify/internal/models"
)

type contextKey string

const sessionKey contextKey = "session"

// WithSession stores the authenticated session on the context.
func WithSession(ctx context.Context, s models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

func SessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey).(models.Session)
	if !ok || s.UserID == "" {
		return models.Session{}, false
	}
	return s, true
}

func SessionFromRequest(r *http.Request) (models.Session, bool) {
	return SessionFromContext(r.Context())
}
