package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

// Service manages payments configuration. actor is an authorization subject
// such as "user:42", "system" or "anonymous".
type Service interface {
	Init(ctx context.Context, actor string, orgID snowflake.ID, provider string) (*PaymentsConfig, error)
	Get(ctx context.Context, actor string, orgID snowflake.ID) ([]PaymentsConfig, error)
	Update(ctx context.Context, actor string, orgID snowflake.ID, req UpdateRequest) (*PaymentsConfig, error)
	Delete(ctx context.Context, actor string, orgID snowflake.ID) error
}

// UpdateRequest replaces every field of the stored config. A nil
// ProviderConfig clears it to an empty object; a nil ProviderSpecificID
// clears it.
type UpdateRequest struct {
	Provider           string         `json:"provider"`
	ProviderConfig     map[string]any `json:"provider_config"`
	ProviderSpecificID *string        `json:"provider_specific_id"`
}

var (
	ErrOrganizationNotFound = errors.New("organization_not_found")
	ErrNotFound             = errors.New("payments_config_not_found")
	ErrAlreadyExists        = errors.New("payments_config_exists")
	ErrInvalidProvider      = errors.New("invalid_provider")
)
