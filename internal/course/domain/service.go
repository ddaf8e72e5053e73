package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type Service interface {
	Create(ctx context.Context, orgID snowflake.ID, req CreateCourseRequest) (*Course, error)
	Get(ctx context.Context, id snowflake.ID) (*Course, error)
}

type CreateCourseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Public      bool   `json:"public"`
}

var (
	ErrNotFound            = errors.New("course_not_found")
	ErrInvalidName         = errors.New("invalid_name")
	ErrOrganizationMissing = errors.New("organization_not_found")
)
