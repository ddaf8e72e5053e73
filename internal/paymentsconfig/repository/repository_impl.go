package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/paymentsconfig/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*domain.PaymentsConfig, error) {
	var item domain.PaymentsConfig
	err := db.WithContext(ctx).Where("org_id = ?", orgID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *repo) ListByOrgID(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.PaymentsConfig, error) {
	var items []domain.PaymentsConfig
	err := db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, cfg *domain.PaymentsConfig) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments_configs (
			id, org_id, provider, provider_config, provider_specific_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		cfg.ID,
		cfg.OrgID,
		cfg.Provider,
		cfg.ProviderConfig,
		cfg.ProviderSpecificID,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, cfg *domain.PaymentsConfig) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments_configs
		 SET provider = ?, provider_config = ?, provider_specific_id = ?, updated_at = ?
		 WHERE id = ?`,
		cfg.Provider,
		cfg.ProviderConfig,
		cfg.ProviderSpecificID,
		cfg.UpdatedAt,
		cfg.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM payments_configs WHERE id = ?`, id).Error
}
