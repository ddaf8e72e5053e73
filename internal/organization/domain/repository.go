package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrganization(ctx context.Context, org Organization) error
	AddMember(ctx context.Context, member OrganizationMember) error
	FindByID(ctx context.Context, id snowflake.ID) (*Organization, error)
	FindByUUID(ctx context.Context, orgUUID string) (*Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	// RoleForUser returns the member role of userID within the organization
	// identified by orgUUID, or "" when the user is not a member.
	RoleForUser(ctx context.Context, orgUUID string, userID snowflake.ID) (string, error)
}
