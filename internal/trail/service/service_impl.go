package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/clock"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
	"github.com/smallbiznis/pathway/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/internal/trail/domain"
	"github.com/smallbiznis/pathway/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	CourseRepo coursedomain.Repository
	OrgRepo    orgdomain.Repository
	AuditSvc   auditdomain.Service `optional:"true"`
	Metrics    *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	courseRepo coursedomain.Repository
	orgRepo    orgdomain.Repository
	auditSvc   auditdomain.Service
	metrics    *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("trail.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		courseRepo: p.CourseRepo,
		orgRepo:    p.OrgRepo,
		auditSvc:   p.AuditSvc,
		metrics:    p.Metrics,
	}
}

func (s *Service) CreateTrail(ctx context.Context, userID, orgID snowflake.ID) (trail *domain.Trail, err error) {
	defer func() { s.record(ctx, "create", err) }()

	if userID == 0 {
		return nil, domain.ErrInvalidUser
	}
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrOrganizationNotFound
	}

	existing, err := s.repo.FindTrail(ctx, s.db, org.ID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrTrailExists
	}

	now := s.clock.Now()
	item := domain.Trail{
		ID:        s.genID.Generate(),
		TrailUUID: "trail_" + uuid.NewString(),
		OrgID:     org.ID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertTrail(ctx, s.db, &item); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrTrailExists
		}
		return nil, err
	}

	s.log.Info("trail created",
		zap.String("trail_id", item.ID.String()),
		zap.String("org_id", org.ID.String()),
		zap.String("user_id", userID.String()),
	)
	s.audit(ctx, userID, org.ID, "trail.create", item.ID, nil)
	return &item, nil
}

func (s *Service) GetTrail(ctx context.Context, userID snowflake.ID) (resp *domain.TrailResponse, err error) {
	defer func() { s.record(ctx, "get", err) }()

	trail, err := s.repo.FindFirstTrailByUser(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if trail == nil {
		return nil, domain.ErrTrailNotFound
	}
	return s.buildResponse(ctx, s.db, trail)
}

func (s *Service) GetTrailByOrg(ctx context.Context, userID, orgID snowflake.ID) (resp *domain.TrailResponse, err error) {
	defer func() { s.record(ctx, "get_by_org", err) }()

	trail, err := s.repo.FindTrail(ctx, s.db, orgID, userID)
	if err != nil {
		return nil, err
	}
	if trail == nil {
		return nil, domain.ErrTrailNotFound
	}
	return s.buildResponse(ctx, s.db, trail)
}

func (s *Service) AddActivityToTrail(ctx context.Context, userID, courseID, activityID snowflake.ID) (resp *domain.TrailResponse, err error) {
	defer func() { s.record(ctx, "add_activity", err) }()

	course, trail, err := s.resolveCourseTrail(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	created := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := s.findOrCreateRun(ctx, tx, trail, course)
		if err != nil {
			return err
		}

		step, err := s.repo.FindStep(ctx, tx, run.ID, activityID)
		if err != nil {
			return err
		}
		if step != nil {
			return nil
		}

		now := s.clock.Now()
		step = &domain.TrailStep{
			ID:              s.genID.Generate(),
			TrailRunID:      run.ID,
			ActivityID:      activityID,
			CourseID:        course.ID,
			OrgID:           course.OrgID,
			UserID:          userID,
			Complete:        false,
			TeacherVerified: false,
			Grade:           "",
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.InsertStep(ctx, tx, step); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrTrailStepExists
			}
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		s.audit(ctx, userID, course.OrgID, "trail.activity_add", trail.ID, map[string]any{
			"course_id":   course.ID.String(),
			"activity_id": activityID.String(),
		})
	}
	return s.buildResponse(ctx, s.db, trail)
}

func (s *Service) AddCourseToTrail(ctx context.Context, userID, courseID snowflake.ID) (resp *domain.TrailResponse, err error) {
	defer func() { s.record(ctx, "add_course", err) }()

	course, trail, err := s.resolveCourseTrail(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindRun(ctx, s.db, trail.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrTrailRunExists
	}
	if _, err := s.createRun(ctx, s.db, trail, course); err != nil {
		return nil, err
	}

	s.audit(ctx, userID, course.OrgID, "trail.course_add", trail.ID, map[string]any{
		"course_id": course.ID.String(),
	})
	return s.buildResponse(ctx, s.db, trail)
}

func (s *Service) RemoveCourseFromTrail(ctx context.Context, userID, courseID snowflake.ID) (resp *domain.TrailResponse, err error) {
	defer func() { s.record(ctx, "remove_course", err) }()

	course, trail, err := s.resolveCourseTrail(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	removed := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		run, err := s.repo.FindRun(ctx, tx, trail.ID, course.ID)
		if err != nil || run == nil {
			return err
		}
		if err := s.repo.DeleteStepsByRun(ctx, tx, run.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteRun(ctx, tx, run.ID); err != nil {
			return err
		}
		removed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if removed {
		s.audit(ctx, userID, course.OrgID, "trail.course_remove", trail.ID, map[string]any{
			"course_id": course.ID.String(),
		})
	}
	return s.buildResponse(ctx, s.db, trail)
}

// resolveCourseTrail loads the course and the user's trail in the course's
// organization.
func (s *Service) resolveCourseTrail(ctx context.Context, userID, courseID snowflake.ID) (*coursedomain.Course, *domain.Trail, error) {
	course, err := s.courseRepo.FindByID(ctx, s.db, courseID)
	if err != nil {
		return nil, nil, err
	}
	if course == nil {
		return nil, nil, domain.ErrCourseNotFound
	}

	trail, err := s.repo.FindTrail(ctx, s.db, course.OrgID, userID)
	if err != nil {
		return nil, nil, err
	}
	if trail == nil {
		return nil, nil, domain.ErrTrailNotFound
	}
	return course, trail, nil
}

func (s *Service) findOrCreateRun(ctx context.Context, tx *gorm.DB, trail *domain.Trail, course *coursedomain.Course) (*domain.TrailRun, error) {
	run, err := s.repo.FindRun(ctx, tx, trail.ID, course.ID)
	if err != nil {
		return nil, err
	}
	if run != nil {
		return run, nil
	}
	return s.createRun(ctx, tx, trail, course)
}

func (s *Service) createRun(ctx context.Context, tx *gorm.DB, trail *domain.Trail, course *coursedomain.Course) (*domain.TrailRun, error) {
	now := s.clock.Now()
	run := domain.TrailRun{
		ID:        s.genID.Generate(),
		TrailID:   trail.ID,
		CourseID:  course.ID,
		OrgID:     course.OrgID,
		UserID:    trail.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertRun(ctx, tx, &run); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrTrailRunExists
		}
		return nil, err
	}
	return &run, nil
}

// buildResponse assembles the nested read model with one query per level.
func (s *Service) buildResponse(ctx context.Context, tx *gorm.DB, trail *domain.Trail) (*domain.TrailResponse, error) {
	runs, err := s.repo.ListRunsByTrail(ctx, tx, trail.ID)
	if err != nil {
		return nil, err
	}

	runIDs := make([]snowflake.ID, 0, len(runs))
	for _, run := range runs {
		runIDs = append(runIDs, run.ID)
	}
	steps, err := s.repo.ListStepsByRuns(ctx, tx, runIDs)
	if err != nil {
		return nil, err
	}

	courseIDs := make([]snowflake.ID, 0, len(steps))
	seen := make(map[snowflake.ID]struct{}, len(steps))
	for _, step := range steps {
		if _, ok := seen[step.CourseID]; ok {
			continue
		}
		seen[step.CourseID] = struct{}{}
		courseIDs = append(courseIDs, step.CourseID)
	}
	courses, err := s.courseRepo.FindByIDs(ctx, tx, courseIDs)
	if err != nil {
		return nil, err
	}
	courseByID := make(map[snowflake.ID]*coursedomain.Course, len(courses))
	for i := range courses {
		courseByID[courses[i].ID] = &courses[i]
	}

	stepsByRun := make(map[snowflake.ID][]domain.TrailStepResponse, len(runs))
	for _, step := range steps {
		stepsByRun[step.TrailRunID] = append(stepsByRun[step.TrailRunID], domain.TrailStepResponse{
			TrailStep: step,
			Data:      domain.TrailStepData{Course: courseByID[step.CourseID]},
		})
	}

	resp := &domain.TrailResponse{
		Trail: *trail,
		Runs:  make([]domain.TrailRunResponse, 0, len(runs)),
	}
	for _, run := range runs {
		runSteps := stepsByRun[run.ID]
		if runSteps == nil {
			runSteps = []domain.TrailStepResponse{}
		}
		resp.Runs = append(resp.Runs, domain.TrailRunResponse{TrailRun: run, Steps: runSteps})
	}
	return resp, nil
}

func (s *Service) audit(ctx context.Context, userID, orgID snowflake.ID, action string, trailID snowflake.ID, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	actorID := userID.String()
	targetID := trailID.String()
	if err := s.auditSvc.AuditLog(ctx, &orgID, string(auditdomain.ActorTypeUser), &actorID, action, "trail", &targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func (s *Service) record(ctx context.Context, operation string, err error) {
	s.metrics.RecordTrailOperation(ctx, operation, metrics.Outcome(err))
}
