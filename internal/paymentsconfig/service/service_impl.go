package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	auditmasking "github.com/smallbiznis/pathway/internal/audit/masking"
	"github.com/smallbiznis/pathway/internal/authorization"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/config"
	"github.com/smallbiznis/pathway/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/internal/paymentsconfig/domain"
	"github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	OrgRepo  orgdomain.Repository
	Authz    authorization.Service
	Settings *config.PaymentsSettingsHolder
	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	orgRepo  orgdomain.Repository
	authz    authorization.Service
	settings *config.PaymentsSettingsHolder
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

func New(p Params) domain.Service {
	settings := p.Settings
	if settings == nil {
		settings = config.NewStaticPaymentsSettingsHolder(config.DefaultPaymentsSettings())
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("paymentsconfig.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		orgRepo:  p.OrgRepo,
		authz:    p.Authz,
		settings: settings,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

func (s *Service) Init(ctx context.Context, actor string, orgID snowflake.ID, provider string) (cfg *domain.PaymentsConfig, err error) {
	defer func() { s.record(ctx, "init", provider, err) }()

	org, err := s.requireOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, org.OrgUUID, authorization.ObjectPaymentsConfig, authorization.ActionCreate); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByOrgID(ctx, s.db, org.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrAlreadyExists
	}

	settings := s.settings.Get()
	provider = normalizeProvider(provider)
	if !settings.IsEnabled(provider) {
		return nil, domain.ErrInvalidProvider
	}

	now := s.clock.Now()
	item := domain.PaymentsConfig{
		ID:                 s.genID.Generate(),
		OrgID:              org.ID,
		Provider:           provider,
		ProviderConfig:     datatypes.JSONMap(settings.DefaultConfig()),
		ProviderSpecificID: nil,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, err
	}

	s.log.Info("payments config initialized",
		zap.String("org_id", org.ID.String()),
		zap.String("provider", provider),
	)
	s.audit(ctx, actor, org.ID, "payments_config.init", item)
	return &item, nil
}

func (s *Service) Get(ctx context.Context, actor string, orgID snowflake.ID) (items []domain.PaymentsConfig, err error) {
	defer func() { s.record(ctx, "get", "", err) }()

	org, err := s.requireOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, org.OrgUUID, authorization.ObjectPaymentsConfig, authorization.ActionRead); err != nil {
		return nil, err
	}

	items, err = s.repo.ListByOrgID(ctx, s.db, org.ID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.PaymentsConfig{}
	}
	return items, nil
}

func (s *Service) Update(ctx context.Context, actor string, orgID snowflake.ID, req domain.UpdateRequest) (cfg *domain.PaymentsConfig, err error) {
	defer func() { s.record(ctx, "update", req.Provider, err) }()

	org, err := s.requireOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, org.OrgUUID, authorization.ObjectPaymentsConfig, authorization.ActionUpdate); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByOrgID(ctx, s.db, org.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	provider := normalizeProvider(req.Provider)
	if !s.settings.Get().IsEnabled(provider) {
		return nil, domain.ErrInvalidProvider
	}

	providerConfig := datatypes.JSONMap{}
	for k, v := range req.ProviderConfig {
		providerConfig[k] = v
	}

	existing.Provider = provider
	existing.ProviderConfig = providerConfig
	existing.ProviderSpecificID = req.ProviderSpecificID
	existing.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return nil, err
	}

	s.audit(ctx, actor, org.ID, "payments_config.update", *existing)
	return existing, nil
}

func (s *Service) Delete(ctx context.Context, actor string, orgID snowflake.ID) (err error) {
	defer func() { s.record(ctx, "delete", "", err) }()

	org, err := s.requireOrg(ctx, orgID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, org.OrgUUID, authorization.ObjectPaymentsConfig, authorization.ActionDelete); err != nil {
		return err
	}

	existing, err := s.repo.FindByOrgID(ctx, s.db, org.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}

	if err := s.repo.Delete(ctx, s.db, existing.ID); err != nil {
		return err
	}

	s.audit(ctx, actor, org.ID, "payments_config.delete", *existing)
	return nil
}

func (s *Service) requireOrg(ctx context.Context, orgID snowflake.ID) (*orgdomain.Organization, error) {
	if orgID == 0 {
		return nil, domain.ErrOrganizationNotFound
	}
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrOrganizationNotFound
	}
	return org, nil
}

func (s *Service) audit(ctx context.Context, actor string, orgID snowflake.ID, action string, cfg domain.PaymentsConfig) {
	if s.auditSvc == nil {
		return
	}
	actorType, actorID := splitActor(actor)
	targetID := cfg.ID.String()
	metadata := map[string]any{
		"provider": cfg.Provider,
	}
	if masked := auditmasking.MaskJSON(cfg.ProviderConfig); masked != nil {
		metadata["provider_config"] = masked
	}
	if cfg.ProviderSpecificID != nil {
		metadata["provider_specific_id"] = auditmasking.MaskSecret(*cfg.ProviderSpecificID)
	}
	if err := s.auditSvc.AuditLog(ctx, &orgID, actorType, actorID, action, "payments_config", &targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, operation, provider string, err error) {
	s.metrics.RecordPaymentsConfigOperation(ctx, operation, normalizeProvider(provider), metrics.Outcome(err))
}

// normalizeProvider defaults an empty provider to stripe.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return config.ProviderStripe
	}
	return provider
}

func splitActor(actor string) (string, *string) {
	actor = strings.TrimSpace(actor)
	kind, id, found := strings.Cut(actor, ":")
	if !found {
		return actor, nil
	}
	return kind, &id
}
