package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// NormalizeRole upper-cases role and reports whether it is known.
func NormalizeRole(role string) (string, bool) {
	role = strings.ToUpper(strings.TrimSpace(role))
	switch role {
	case RoleOwner, RoleAdmin, RoleMember:
		return role, true
	default:
		return "", false
	}
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)
	GetByID(ctx context.Context, id string) (*OrganizationResponse, error)
	AddMember(ctx context.Context, orgID snowflake.ID, req AddMemberRequest) (*MemberResponse, error)
}

type CreateOrganizationRequest struct {
	Name string `json:"name"`
}

type AddMemberRequest struct {
	UserID snowflake.ID `json:"user_id"`
	Role   string       `json:"role"`
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	OrgUUID   string    `json:"org_uuid"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberResponse struct {
	ID     string `json:"id"`
	OrgID  string `json:"org_id"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrNotFound            = errors.New("organization_not_found")
	ErrMemberExists        = errors.New("member_exists")
)
