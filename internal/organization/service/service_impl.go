package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxSlugAttempts = 5

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	GenID    *snowflake.Node
	Clock    clock.Clock
	AuditSvc auditdomain.Service `optional:"true"`
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	genID    *snowflake.Node
	clock    clock.Clock
	auditSvc auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("organization.service"),
		repo:     p.Repo,
		genID:    p.GenID,
		clock:    p.Clock,
		auditSvc: p.AuditSvc,
	}
}

func (s *service) Create(ctx context.Context, userID snowflake.ID, req domain.CreateOrganizationRequest) (*domain.OrganizationResponse, error) {
	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	orgSlug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		OrgUUID:   uuid.NewString(),
		Name:      name,
		Slug:      orgSlug,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateOrganization(ctx, org); err != nil {
			return err
		}

		return repo.AddMember(ctx, domain.OrganizationMember{
			ID:        s.genID.Generate(),
			OrgID:     org.ID,
			UserID:    userID,
			Role:      domain.RoleOwner,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("organization created",
		zap.String("org_id", org.ID.String()),
		zap.String("slug", org.Slug),
	)
	s.audit(ctx, org.ID, "organization.create", "organization", org.ID.String(), map[string]any{
		"slug": org.Slug,
	})

	return toResponse(org), nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.OrganizationResponse, error) {
	raw := strings.TrimSpace(id)
	if raw == "" {
		return nil, domain.ErrInvalidOrganization
	}
	orgID, err := snowflake.ParseString(raw)
	if err != nil {
		return nil, domain.ErrInvalidOrganization
	}

	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}

	return toResponse(*org), nil
}

func (s *service) AddMember(ctx context.Context, orgID snowflake.ID, req domain.AddMemberRequest) (*domain.MemberResponse, error) {
	if orgID == 0 {
		return nil, domain.ErrInvalidOrganization
	}
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	role, ok := domain.NormalizeRole(req.Role)
	if !ok {
		return nil, domain.ErrInvalidRole
	}

	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}

	member := domain.OrganizationMember{
		ID:        s.genID.Generate(),
		OrgID:     org.ID,
		UserID:    req.UserID,
		Role:      role,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.AddMember(ctx, member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrMemberExists
		}
		return nil, err
	}

	s.audit(ctx, org.ID, "organization.member_add", "organization_member", member.UserID.String(), map[string]any{
		"role": role,
	})

	return &domain.MemberResponse{
		ID:     member.ID.String(),
		OrgID:  member.OrgID.String(),
		UserID: member.UserID.String(),
		Role:   member.Role,
	}, nil
}

func (s *service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		return "", domain.ErrInvalidName
	}

	candidate := base
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		exists, err := s.repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%s", base, strings.ToLower(s.genID.Generate().Base36()))
	}
	return "", fmt.Errorf("could not allocate slug for %q", name)
}

func (s *service) audit(ctx context.Context, orgID snowflake.ID, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	if err := s.auditSvc.AuditLog(ctx, &orgID, "", nil, action, targetType, &targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func toResponse(org domain.Organization) *domain.OrganizationResponse {
	return &domain.OrganizationResponse{
		ID:        org.ID.String(),
		OrgUUID:   org.OrgUUID,
		Name:      org.Name,
		Slug:      org.Slug,
		CreatedAt: org.CreatedAt,
	}
}
