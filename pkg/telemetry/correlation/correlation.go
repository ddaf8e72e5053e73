// Package correlation tags a unit of work with an id that follows it through
// spans, logs and audit entries.
package correlation

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Header carries the id between services.
const Header = "X-Correlation-ID"

const maxIDLength = 128

type ctxKey struct{}

// FromContext returns the id stored on ctx, or "".
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithID stores id on ctx. Blank or oversized ids are ignored.
func WithID(ctx context.Context, id string) context.Context {
	id = strings.TrimSpace(id)
	if id == "" || len(id) > maxIDLength {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// Ensure keeps an existing id, or else adopts candidate, or else mints a ULID.
func Ensure(ctx context.Context, candidate string) (context.Context, string) {
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	ctx = WithID(ctx, candidate)
	if id := FromContext(ctx); id != "" {
		return ctx, id
	}
	id := ulid.Make().String()
	return context.WithValue(ctx, ctxKey{}, id), id
}
