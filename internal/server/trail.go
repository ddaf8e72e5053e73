package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) CreateTrail(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor := actorFromContext(c)
	trail, err := s.trailSvc.CreateTrail(c.Request.Context(), actor.UserID, orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, trail)
}

func (s *Server) GetTrail(c *gin.Context) {
	actor := actorFromContext(c)
	resp, err := s.trailSvc.GetTrail(c.Request.Context(), actor.UserID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetTrailByOrg(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor := actorFromContext(c)
	resp, err := s.trailSvc.GetTrailByOrg(c.Request.Context(), actor.UserID, orgID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) AddCourseToTrail(c *gin.Context) {
	courseID, err := parseIDParam(c, "course_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor := actorFromContext(c)
	resp, err := s.trailSvc.AddCourseToTrail(c.Request.Context(), actor.UserID, courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) RemoveCourseFromTrail(c *gin.Context) {
	courseID, err := parseIDParam(c, "course_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor := actorFromContext(c)
	resp, err := s.trailSvc.RemoveCourseFromTrail(c.Request.Context(), actor.UserID, courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) AddActivityToTrail(c *gin.Context) {
	courseID, err := parseIDParam(c, "course_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	activityID, err := parseIDParam(c, "activity_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	actor := actorFromContext(c)
	resp, err := s.trailSvc.AddActivityToTrail(c.Request.Context(), actor.UserID, courseID, activityID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
