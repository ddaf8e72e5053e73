package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/pathway/internal/observability/context"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderActorType = "X-Actor-Type"

	contextActorKey = "actor"
)

// ActorContext resolves the caller from headers set by the trusted gateway.
// Requests without identity run as the anonymous actor.
func ActorContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := actorFromHeaders(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextActorKey, actor)
		ctx := obscontext.WithActor(c.Request.Context(), string(actor.Type), actor.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireUser rejects requests that are not made on behalf of a user.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFromContext(c)
		if actor.Type != ActorUser {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func actorFromHeaders(c *gin.Context) (Actor, error) {
	actorType := strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderActorType)))
	rawUserID := strings.TrimSpace(c.GetHeader(HeaderUserID))

	switch ActorType(actorType) {
	case ActorSystem:
		return Actor{Type: ActorSystem, ID: string(ActorSystem)}, nil
	case ActorAnonymous:
		return Actor{Type: ActorAnonymous}, nil
	case ActorUser, "":
		if rawUserID == "" {
			if actorType == "" {
				return Actor{Type: ActorAnonymous}, nil
			}
			return Actor{}, ErrUnauthorized
		}
		userID, err := snowflake.ParseString(rawUserID)
		if err != nil || userID <= 0 {
			return Actor{}, ErrUnauthorized
		}
		return Actor{Type: ActorUser, ID: userID.String(), UserID: userID}, nil
	default:
		return Actor{}, ErrUnauthorized
	}
}

func actorFromContext(c *gin.Context) Actor {
	if c == nil {
		return Actor{Type: ActorAnonymous}
	}
	value, ok := c.Get(contextActorKey)
	if !ok {
		return Actor{Type: ActorAnonymous}
	}
	actor, ok := value.(Actor)
	if !ok {
		return Actor{Type: ActorAnonymous}
	}
	return actor
}
