package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/course/domain"
	orgdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
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
	AuditSvc auditdomain.Service `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	orgRepo  orgdomain.Repository
	auditSvc auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("course.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		orgRepo:  p.OrgRepo,
		auditSvc: p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, orgID snowflake.ID, req domain.CreateCourseRequest) (*domain.Course, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrOrganizationMissing
	}

	now := s.clock.Now()
	course := domain.Course{
		ID:          s.genID.Generate(),
		CourseUUID:  "course_" + uuid.NewString(),
		OrgID:       org.ID,
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Public:      req.Public,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &course); err != nil {
		return nil, err
	}

	if s.auditSvc != nil {
		targetID := course.ID.String()
		if err := s.auditSvc.AuditLog(ctx, &org.ID, "", nil, "course.create", "course", &targetID, map[string]any{
			"name": course.Name,
		}); err != nil {
			s.log.Warn("audit log failed", zap.Error(err))
		}
	}

	return &course, nil
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.Course, error) {
	course, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, domain.ErrNotFound
	}
	return course, nil
}
