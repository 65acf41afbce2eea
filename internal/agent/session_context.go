package agent

import (
	"context"

	"github.com/corehive/agentcore/pkg/models"
)

type sessionKey struct{}

// WithSession stores a session in the context, grounded on
// internal/agent/runtime_context.go's context-key pattern.
func WithSession(ctx context.Context, session *models.Session) context.Context {
	if session == nil {
		return ctx
	}
	return context.WithValue(ctx, sessionKey{}, session)
}

// SessionFromContext retrieves the session stored by WithSession, or nil if
// none is present.
func SessionFromContext(ctx context.Context) *models.Session {
	session, ok := ctx.Value(sessionKey{}).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
