package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentsconfigdomain "github.com/smallbiznis/pathway/internal/paymentsconfig/domain"
)

func (s *Server) InitPaymentsConfig(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	provider := strings.TrimSpace(c.Query("provider"))
	actor := actorFromContext(c)
	cfg, err := s.paymentsConfigSvc.Init(c.Request.Context(), actor.subject(), orgID, provider)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

func (s *Server) GetPaymentsConfig(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor := actorFromContext(c)
	items, err := s.paymentsConfigSvc.Get(c.Request.Context(), actor.subject(), orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

func (s *Server) UpdatePaymentsConfig(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req paymentsconfigdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor := actorFromContext(c)
	cfg, err := s.paymentsConfigSvc.Update(c.Request.Context(), actor.subject(), orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, cfg)
}

func (s *Server) DeletePaymentsConfig(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor := actorFromContext(c)
	if err := s.paymentsConfigSvc.Delete(c.Request.Context(), actor.subject(), orgID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "payments config deleted"})
}
