package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*PaymentsConfig, error)
	ListByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]PaymentsConfig, error)
	Insert(ctx context.Context, db *gorm.DB, cfg *PaymentsConfig) error
	Update(ctx context.Context, db *gorm.DB, cfg *PaymentsConfig) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
