package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/authorization"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/collection/domain"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
	orgdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
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
	Authz      authorization.Service
	AuditSvc   auditdomain.Service `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	courseRepo coursedomain.Repository
	orgRepo    orgdomain.Repository
	authz      authorization.Service
	auditSvc   auditdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("collection.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		courseRepo: p.CourseRepo,
		orgRepo:    p.OrgRepo,
		authz:      p.Authz,
		auditSvc:   p.AuditSvc,
	}
}

func (s *Service) Create(ctx context.Context, actor string, orgID snowflake.ID, req domain.CreateCollectionRequest) (*domain.CollectionResponse, error) {
	org, err := s.requireOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actor, org.OrgUUID, authorization.ObjectCollection, authorization.ActionCreate); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	courseIDs := dedupe(req.CourseIDs)
	courses, err := s.courseRepo.FindByIDs(ctx, s.db, courseIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]coursedomain.Course, len(courses))
	for _, course := range courses {
		if course.OrgID == org.ID {
			byID[course.ID] = course
		}
	}
	ordered := make([]coursedomain.Course, 0, len(courseIDs))
	for _, id := range courseIDs {
		course, ok := byID[id]
		if !ok {
			return nil, domain.ErrInvalidCourse
		}
		ordered = append(ordered, course)
	}

	now := s.clock.Now()
	collection := domain.Collection{
		ID:             s.genID.Generate(),
		CollectionUUID: domain.NewUUID(uuid.NewString()),
		OrgID:          org.ID,
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		Public:         req.Public,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	links := make([]domain.CollectionCourse, 0, len(ordered))
	for _, course := range ordered {
		links = append(links, domain.CollectionCourse{
			ID:           s.genID.Generate(),
			CollectionID: collection.ID,
			CourseID:     course.ID,
			OrgID:        org.ID,
			CreatedAt:    now,
		})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &collection); err != nil {
			return err
		}
		return s.repo.InsertCourses(ctx, tx, links)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, org.ID, "collection.create", collection, len(links))
	return &domain.CollectionResponse{Collection: collection, Courses: ordered}, nil
}

func (s *Service) Get(ctx context.Context, actor string, collectionUUID string) (*domain.CollectionResponse, error) {
	collection, org, err := s.lookup(ctx, collectionUUID)
	if err != nil {
		return nil, err
	}
	if !collection.Public {
		if err := s.authz.Authorize(ctx, actor, org.OrgUUID, authorization.ObjectCollection, authorization.ActionRead); err != nil {
			return nil, err
		}
	}

	items, err := s.withCourses(ctx, []*domain.Collection{collection})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *Service) ListByOrg(ctx context.Context, actor string, orgID snowflake.ID, req domain.ListCollectionsRequest) (domain.ListCollectionsResponse, error) {
	org, err := s.requireOrg(ctx, orgID)
	if err != nil {
		return domain.ListCollectionsResponse{}, err
	}

	publicOnly := false
	if err := s.authz.Authorize(ctx, actor, org.OrgUUID, authorization.ObjectCollection, authorization.ActionRead); err != nil {
		if !errors.Is(err, authorization.ErrForbidden) {
			return domain.ListCollectionsResponse{}, err
		}
		publicOnly = true
	}

	cursor, err := decodeCursor(req.PageToken)
	if err != nil {
		return domain.ListCollectionsResponse{}, err
	}

	pageSize := int(req.PageSize)
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, err := s.repo.List(ctx, s.db, domain.ListFilter{
		OrgID:      org.ID,
		PublicOnly: publicOnly,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return domain.ListCollectionsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(item *domain.Collection) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	collections, err := s.withCourses(ctx, items)
	if err != nil {
		return domain.ListCollectionsResponse{}, err
	}

	resp := domain.ListCollectionsResponse{Collections: collections}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) Delete(ctx context.Context, actor string, collectionUUID string) error {
	collection, org, err := s.lookup(ctx, collectionUUID)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actor, org.OrgUUID, authorization.ObjectCollection, authorization.ActionDelete); err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteCourseLinks(ctx, tx, collection.ID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, collection.ID)
	})
	if err != nil {
		return err
	}

	s.audit(ctx, actor, org.ID, "collection.delete", *collection, 0)
	return nil
}

func (s *Service) lookup(ctx context.Context, collectionUUID string) (*domain.Collection, *orgdomain.Organization, error) {
	key := domain.NormalizeUUID(strings.TrimSpace(collectionUUID))
	if key == "" {
		return nil, nil, domain.ErrNotFound
	}
	collection, err := s.repo.FindByUUID(ctx, s.db, key)
	if err != nil {
		return nil, nil, err
	}
	if collection == nil {
		return nil, nil, domain.ErrNotFound
	}
	org, err := s.requireOrg(ctx, collection.OrgID)
	if err != nil {
		return nil, nil, err
	}
	return collection, org, nil
}

// withCourses attaches the linked courses to each collection in link order.
func (s *Service) withCourses(ctx context.Context, collections []*domain.Collection) ([]domain.CollectionResponse, error) {
	ids := make([]snowflake.ID, 0, len(collections))
	for _, c := range collections {
		ids = append(ids, c.ID)
	}
	links, err := s.repo.ListCourseLinks(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	courseIDs := make([]snowflake.ID, 0, len(links))
	for _, link := range links {
		courseIDs = append(courseIDs, link.CourseID)
	}
	courses, err := s.courseRepo.FindByIDs(ctx, s.db, dedupe(courseIDs))
	if err != nil {
		return nil, err
	}
	courseByID := make(map[snowflake.ID]coursedomain.Course, len(courses))
	for _, course := range courses {
		courseByID[course.ID] = course
	}

	linked := make(map[snowflake.ID][]coursedomain.Course, len(collections))
	for _, link := range links {
		if course, ok := courseByID[link.CourseID]; ok {
			linked[link.CollectionID] = append(linked[link.CollectionID], course)
		}
	}

	out := make([]domain.CollectionResponse, 0, len(collections))
	for _, c := range collections {
		courses := linked[c.ID]
		if courses == nil {
			courses = []coursedomain.Course{}
		}
		out = append(out, domain.CollectionResponse{Collection: *c, Courses: courses})
	}
	return out, nil
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

func (s *Service) audit(ctx context.Context, actor string, orgID snowflake.ID, action string, collection domain.Collection, courseCount int) {
	if s.auditSvc == nil {
		return
	}
	actorType, actorID := splitActor(actor)
	targetID := collection.ID.String()
	metadata := map[string]any{
		"collection_uuid": collection.CollectionUUID,
		"name":            collection.Name,
	}
	if courseCount > 0 {
		metadata["courses"] = courseCount
	}
	if err := s.auditSvc.AuditLog(ctx, &orgID, actorType, actorID, action, "collection", &targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.Error(err))
	}
}

func decodeCursor(token string) (*domain.Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return nil, domain.ErrInvalidPageToken
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidPageToken
	}
	return &domain.Cursor{ID: id, CreatedAt: createdAt}, nil
}

func dedupe(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func splitActor(actor string) (string, *string) {
	actor = strings.TrimSpace(actor)
	kind, id, found := strings.Cut(actor, ":")
	if !found {
		return actor, nil
	}
	return kind, &id
}
