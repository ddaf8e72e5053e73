package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestIDFromContext(ctx))

	typ, id := ActorFromContext(ctx)
	assert.Empty(t, typ)
	assert.Empty(t, id)

	ctx = WithRequestID(ctx, " req-1 ")
	ctx = WithOrgID(ctx, "42")
	ctx = WithActor(ctx, "user", "7")
	ctx = WithIPAddress(ctx, "10.0.0.1")
	ctx = WithUserAgent(ctx, "curl/8")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "42", OrgIDFromContext(ctx))
	typ, id = ActorFromContext(ctx)
	assert.Equal(t, "user", typ)
	assert.Equal(t, "7", id)
	assert.Equal(t, "10.0.0.1", IPAddressFromContext(ctx))
	assert.Equal(t, "curl/8", UserAgentFromContext(ctx))
}
