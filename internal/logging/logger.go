// Package logging provides context-scoped access to a *zap.Logger, the way
// a library embedded in a larger application should: callers that care
// attach their own logger to the context they pass to Highlighter.Highlight;
// callers that don't get zap's global no-op logger.
package logging

import (
	"context"

	"go.uber.org/zap"
)

type contextKey struct{}

// NewContext returns a copy of ctx carrying log, retrievable with From.
func NewContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// From returns the logger stored in ctx, falling back to zap.L() (the
// global logger, a no-op until a caller replaces it) when none was attached.
func From(ctx context.Context) *zap.Logger {
	if log, ok := ctx.Value(contextKey{}).(*zap.Logger); ok && log != nil {
		return log
	}
	return zap.L()
}
