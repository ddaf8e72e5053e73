package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/pkg/db/pagination"
)

// Service manages course collections. actor is an authorization subject
// such as "user:42", "system" or "anonymous".
type Service interface {
	Create(ctx context.Context, actor string, orgID snowflake.ID, req CreateCollectionRequest) (*CollectionResponse, error)
	// Get returns public collections to any actor; private ones need read
	// access in the owning organization.
	Get(ctx context.Context, actor string, collectionUUID string) (*CollectionResponse, error)
	// ListByOrg returns every collection of the organization to actors with
	// read access and only the public ones to everybody else.
	ListByOrg(ctx context.Context, actor string, orgID snowflake.ID, req ListCollectionsRequest) (ListCollectionsResponse, error)
	Delete(ctx context.Context, actor string, collectionUUID string) error
}

type CreateCollectionRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Public      bool           `json:"public"`
	CourseIDs   []snowflake.ID `json:"courses"`
}

type ListCollectionsRequest struct {
	pagination.Pagination
}

type ListCollectionsResponse struct {
	pagination.PageInfo
	Collections []CollectionResponse `json:"collections"`
}

var (
	ErrOrganizationNotFound = errors.New("organization_not_found")
	ErrNotFound             = errors.New("collection_not_found")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidCourse        = errors.New("invalid_course")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
)
