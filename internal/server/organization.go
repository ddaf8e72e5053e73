package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
)

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

func (s *Server) CreateOrganization(c *gin.Context) {
	actor := actorFromContext(c)

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.organizationSvc.Create(c.Request.Context(), actor.UserID, organizationdomain.CreateOrganizationRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (s *Server) GetOrganization(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.organizationSvc.GetByID(c.Request.Context(), orgID.String())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) AddOrganizationMember(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	userID, err := parseOptionalSnowflakeID(req.UserID)
	if err != nil || userID == nil {
		AbortWithError(c, newValidationError("user_id", "invalid_user_id", "invalid user_id"))
		return
	}

	resp, err := s.organizationSvc.AddMember(c.Request.Context(), orgID, organizationdomain.AddMemberRequest{
		UserID: *userID,
		Role:   strings.TrimSpace(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}
