package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pathway/internal/authorization"
	obscontext "github.com/smallbiznis/pathway/internal/observability/context"
)

type ActorType string

const (
	ActorUser      ActorType = "user"
	ActorSystem    ActorType = "system"
	ActorAnonymous ActorType = "anonymous"
)

type Actor struct {
	Type   ActorType
	ID     string
	UserID snowflake.ID
}

// subject is the authorization subject for the actor.
func (a Actor) subject() string {
	switch a.Type {
	case ActorUser:
		return authorization.UserActor(a.ID)
	case ActorSystem:
		return authorization.ActorSystem
	default:
		return authorization.ActorAnonymous
	}
}

// authorizeOrgAction checks object/action for the organization named by the
// :org_id route parameter.
func (s *Server) authorizeOrgAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authorizeOrgActionWithContext(c, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeOrgActionWithContext(c *gin.Context, object string, action string) error {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		return err
	}
	return s.authorizeForOrg(c, orgID, object, action)
}

func (s *Server) authorizeForOrg(c *gin.Context, orgID snowflake.ID, object string, action string) error {
	if s.authzSvc == nil {
		return ErrForbidden
	}

	org, err := s.organizationSvc.GetByID(c.Request.Context(), orgID.String())
	if err != nil {
		return err
	}

	ctx := obscontext.WithOrgID(c.Request.Context(), org.ID)
	c.Request = c.Request.WithContext(ctx)

	actor := actorFromContext(c)
	return s.authzSvc.Authorize(ctx, actor.subject(), org.OrgUUID, strings.TrimSpace(object), strings.TrimSpace(action))
}
