package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Course, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Course, error)
	Insert(ctx context.Context, db *gorm.DB, course *Course) error
}
