package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	collectiondomain "github.com/smallbiznis/pathway/internal/collection/domain"
	"github.com/smallbiznis/pathway/pkg/db/pagination"
)

type listCollectionsQuery struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

func (s *Server) CreateCollection(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req collectiondomain.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor := actorFromContext(c)
	collection, err := s.collectionSvc.Create(c.Request.Context(), actor.subject(), orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, collection)
}

func (s *Server) ListCollections(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var query listCollectionsQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.PageSize < 0 {
		AbortWithError(c, invalidRequestError())
		return
	}

	actor := actorFromContext(c)
	resp, err := s.collectionSvc.ListByOrg(c.Request.Context(), actor.subject(), orgID, collectiondomain.ListCollectionsRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetCollection(c *gin.Context) {
	actor := actorFromContext(c)
	collection, err := s.collectionSvc.Get(c.Request.Context(), actor.subject(), c.Param("collection_uuid"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection)
}

func (s *Server) DeleteCollection(c *gin.Context) {
	actor := actorFromContext(c)
	if err := s.collectionSvc.Delete(c.Request.Context(), actor.subject(), c.Param("collection_uuid")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"detail": "collection deleted"})
}
