package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	OrgID      snowflake.ID
	PublicOnly bool
	Cursor     *Cursor
	Limit      int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, collection *Collection) error
	InsertCourses(ctx context.Context, db *gorm.DB, links []CollectionCourse) error
	FindByUUID(ctx context.Context, db *gorm.DB, collectionUUID string) (*Collection, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Collection, error)
	ListCourseLinks(ctx context.Context, db *gorm.DB, collectionIDs []snowflake.ID) ([]CollectionCourse, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	DeleteCourseLinks(ctx context.Context, db *gorm.DB, collectionID snowflake.ID) error
}
