package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/collection/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, collection *domain.Collection) error {
	return db.WithContext(ctx).Create(collection).Error
}

func (r *repo) InsertCourses(ctx context.Context, db *gorm.DB, links []domain.CollectionCourse) error {
	if len(links) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&links).Error
}

func (r *repo) FindByUUID(ctx context.Context, db *gorm.DB, collectionUUID string) (*domain.Collection, error) {
	var collection domain.Collection
	err := db.WithContext(ctx).Where("collection_uuid = ?", collectionUUID).First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &collection, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Collection, error) {
	stmt := db.WithContext(ctx).Model(&domain.Collection{}).Where("org_id = ?", filter.OrgID)
	if filter.PublicOnly {
		stmt = stmt.Where("public = ?", true)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}
	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	var collections []*domain.Collection
	if err := stmt.Find(&collections).Error; err != nil {
		return nil, err
	}
	return collections, nil
}

func (r *repo) ListCourseLinks(ctx context.Context, db *gorm.DB, collectionIDs []snowflake.ID) ([]domain.CollectionCourse, error) {
	if len(collectionIDs) == 0 {
		return nil, nil
	}
	var links []domain.CollectionCourse
	err := db.WithContext(ctx).
		Where("collection_id IN ?", collectionIDs).
		Order("created_at asc, id asc").
		Find(&links).Error
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Collection{}).Error
}

func (r *repo) DeleteCourseLinks(ctx context.Context, db *gorm.DB, collectionID snowflake.ID) error {
	return db.WithContext(ctx).Where("collection_id = ?", collectionID).Delete(&domain.CollectionCourse{}).Error
}
