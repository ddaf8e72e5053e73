package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pathway/internal/authorization"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
)

func (s *Server) CreateCourse(c *gin.Context) {
	orgID, err := parseIDParam(c, "org_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req coursedomain.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	course, err := s.courseSvc.Create(c.Request.Context(), orgID, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse returns public courses to anyone; private courses need read
// access in the owning organization.
func (s *Server) GetCourse(c *gin.Context) {
	courseID, err := parseIDParam(c, "course_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	course, err := s.courseSvc.Get(c.Request.Context(), courseID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if !course.Public {
		if err := s.authorizeForOrg(c, course.OrgID, authorization.ObjectCourse, authorization.ActionRead); err != nil {
			AbortWithError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, course)
}
