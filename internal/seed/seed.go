package seed

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/pathway/internal/clock"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"gorm.io/gorm"
)

const (
	defaultOrgName = "Main"
	defaultOrgSlug = "main"
)

// EnsureMainOrg seeds the default organization for startup bootstrap. It is
// a no-op when an organization with the default slug already exists.
func EnsureMainOrg(ctx context.Context, db *gorm.DB, node *snowflake.Node, clk clock.Clock) (organizationdomain.Organization, error) {
	var org organizationdomain.Organization
	if db == nil {
		return org, errors.New("seed database handle is required")
	}
	if node == nil {
		return org, errors.New("seed id generator is required")
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("slug = ?", defaultOrgSlug).First(&org).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		now := clk.Now()
		org = organizationdomain.Organization{
			ID:        node.Generate(),
			OrgUUID:   uuid.NewString(),
			Name:      defaultOrgName,
			Slug:      defaultOrgSlug,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.Create(&org).Error
	})
	return org, err
}
