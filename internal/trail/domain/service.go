package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	CreateTrail(ctx context.Context, userID, orgID snowflake.ID) (*Trail, error)
	// GetTrail returns the user's trail. A user with trails in several
	// organizations gets the oldest one.
	GetTrail(ctx context.Context, userID snowflake.ID) (*TrailResponse, error)
	GetTrailByOrg(ctx context.Context, userID, orgID snowflake.ID) (*TrailResponse, error)
	AddActivityToTrail(ctx context.Context, userID, courseID, activityID snowflake.ID) (*TrailResponse, error)
	AddCourseToTrail(ctx context.Context, userID, courseID snowflake.ID) (*TrailResponse, error)
	RemoveCourseFromTrail(ctx context.Context, userID, courseID snowflake.ID) (*TrailResponse, error)
}

var (
	ErrOrganizationNotFound = errors.New("organization_not_found")
	ErrCourseNotFound       = errors.New("course_not_found")
	ErrTrailNotFound        = errors.New("trail_not_found")
	ErrTrailExists          = errors.New("trail_exists")
	ErrTrailRunExists       = errors.New("trail_run_exists")
	ErrTrailStepExists      = errors.New("trail_step_exists")
	ErrInvalidUser          = errors.New("invalid_user")
)
