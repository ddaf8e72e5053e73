package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// PaymentsConfig is the single payment-provider configuration of an
// organization. ProviderConfig is opaque to this service.
type PaymentsConfig struct {
	ID                 snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrgID              snowflake.ID      `json:"org_id" gorm:"column:org_id;not null;uniqueIndex:ux_payments_configs_org_id"`
	Provider           string            `json:"provider" gorm:"type:text;not null"`
	ProviderConfig     datatypes.JSONMap `json:"provider_config" gorm:"type:jsonb;not null;default:'{}'"`
	ProviderSpecificID *string           `json:"provider_specific_id" gorm:"type:text"`
	CreatedAt          time.Time         `json:"creation_date" gorm:"not null"`
	UpdatedAt          time.Time         `json:"update_date" gorm:"not null"`
}

func (PaymentsConfig) TableName() string { return "payments_configs" }
