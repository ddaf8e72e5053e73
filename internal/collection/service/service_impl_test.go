package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/golang/mock/gomock"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/authorization"
	mock_authorization "github.com/smallbiznis/pathway/internal/authorization/mock"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/collection/domain"
	"github.com/smallbiznis/pathway/internal/collection/repository"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
	courserepository "github.com/smallbiznis/pathway/internal/course/repository"
	orgdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	orgrepository "github.com/smallbiznis/pathway/internal/organization/repository"
	"github.com/smallbiznis/pathway/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const (
	testOrgID   = snowflake.ID(5)
	testOrgUUID = "org-uuid-5"
	testActor   = "user:7"
)

type recordingAudit struct {
	actions []string
}

func (r *recordingAudit) AuditLog(ctx context.Context, orgID *snowflake.ID, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	r.actions = append(r.actions, action)
	return nil
}

func (r *recordingAudit) List(ctx context.Context, orgID snowflake.ID, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{}, nil
}

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	authz *mock_authorization.MockService
	audit *recordingAudit
	clock *clock.FakeClock
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&orgdomain.Organization{},
		&coursedomain.Course{},
		&domain.Collection{},
		&domain.CollectionCourse{},
	))

	now := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	for _, org := range []orgdomain.Organization{
		{ID: testOrgID, OrgUUID: testOrgUUID, Name: "Acme", Slug: "acme", CreatedAt: now, UpdatedAt: now},
		{ID: 6, OrgUUID: "org-uuid-6", Name: "Beta", Slug: "beta", CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, db.Create(&org).Error)
	}

	node, err := snowflake.NewNode(6)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	authz := mock_authorization.NewMockService(ctrl)
	rec := &recordingAudit{}
	clk := clock.NewFakeClock(now)

	svc := New(Params{
		DB:         db,
		Log:        zaptest.NewLogger(t),
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		CourseRepo: courserepository.Provide(),
		OrgRepo:    orgrepository.NewRepository(db),
		Authz:      authz,
		AuditSvc:   rec,
	})
	return &fixture{svc: svc, db: db, authz: authz, audit: rec, clock: clk}
}

func (f *fixture) allow(actor, action string) {
	f.authz.EXPECT().
		Authorize(gomock.Any(), actor, testOrgUUID, authorization.ObjectCollection, action).
		Return(nil)
}

func (f *fixture) course(t *testing.T, id, orgID snowflake.ID) {
	t.Helper()
	now := f.clock.Now()
	require.NoError(t, f.db.Create(&coursedomain.Course{
		ID:         id,
		CourseUUID: fmt.Sprintf("course_%d", id),
		OrgID:      orgID,
		Name:       fmt.Sprintf("Course %d", id),
		CreatedAt:  now,
		UpdatedAt:  now,
	}).Error)
}

func (f *fixture) create(t *testing.T, name string, public bool, courses ...snowflake.ID) *domain.CollectionResponse {
	t.Helper()
	f.allow(testActor, authorization.ActionCreate)
	created, err := f.svc.Create(context.Background(), testActor, testOrgID, domain.CreateCollectionRequest{
		Name:      name,
		Public:    public,
		CourseIDs: courses,
	})
	require.NoError(t, err)
	return created
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func courseIDs(courses []coursedomain.Course) []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestCreateCollection(t *testing.T) {
	f := setup(t)
	f.course(t, 11, testOrgID)
	f.course(t, 12, testOrgID)

	created := f.create(t, "  Backend  ", true, 12, 11, 12)
	assert.Equal(t, "Backend", created.Name)
	assert.Equal(t, testOrgID, created.OrgID)
	assert.Regexp(t, `^collection_[0-9a-f-]{36}$`, created.CollectionUUID)
	assert.True(t, created.CreatedAt.Equal(f.clock.Now()))
	assert.Equal(t, []snowflake.ID{12, 11}, courseIDs(created.Courses))

	assert.Equal(t, int64(1), f.count(t, &domain.Collection{}))
	assert.Equal(t, int64(2), f.count(t, &domain.CollectionCourse{}))
	assert.Equal(t, []string{"collection.create"}, f.audit.actions)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.course(t, 21, 6)

	f.allow(testActor, authorization.ActionCreate)
	_, err := f.svc.Create(ctx, testActor, testOrgID, domain.CreateCollectionRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	f.allow(testActor, authorization.ActionCreate)
	_, err = f.svc.Create(ctx, testActor, testOrgID, domain.CreateCollectionRequest{Name: "Mixed", CourseIDs: []snowflake.ID{21}})
	assert.ErrorIs(t, err, domain.ErrInvalidCourse)

	f.allow(testActor, authorization.ActionCreate)
	_, err = f.svc.Create(ctx, testActor, testOrgID, domain.CreateCollectionRequest{Name: "Ghost", CourseIDs: []snowflake.ID{404}})
	assert.ErrorIs(t, err, domain.ErrInvalidCourse)

	// No EXPECT registered: the organization check runs first.
	_, err = f.svc.Create(ctx, testActor, 404, domain.CreateCollectionRequest{Name: "Nowhere"})
	assert.ErrorIs(t, err, domain.ErrOrganizationNotFound)

	assert.Equal(t, int64(0), f.count(t, &domain.Collection{}))
	assert.Empty(t, f.audit.actions)
}

func TestCreateForbiddenWritesNothing(t *testing.T) {
	f := setup(t)
	f.authz.EXPECT().
		Authorize(gomock.Any(), "user:9", testOrgUUID, authorization.ObjectCollection, authorization.ActionCreate).
		Return(authorization.ErrForbidden)

	_, err := f.svc.Create(context.Background(), "user:9", testOrgID, domain.CreateCollectionRequest{Name: "Nope"})
	assert.Equal(t, authorization.ErrForbidden, err)
	assert.Equal(t, int64(0), f.count(t, &domain.Collection{}))
}

func TestGetPublicCollectionSkipsAuthorization(t *testing.T) {
	f := setup(t)
	f.course(t, 11, testOrgID)
	created := f.create(t, "Open", true, 11)

	got, err := f.svc.Get(context.Background(), authorization.ActorAnonymous, created.CollectionUUID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, []snowflake.ID{11}, courseIDs(got.Courses))

	bare := strings.TrimPrefix(created.CollectionUUID, "collection_")
	got, err = f.svc.Get(context.Background(), authorization.ActorAnonymous, bare)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestGetPrivateCollectionRequiresRead(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	created := f.create(t, "Internal", false)

	f.authz.EXPECT().
		Authorize(gomock.Any(), authorization.ActorAnonymous, testOrgUUID, authorization.ObjectCollection, authorization.ActionRead).
		Return(authorization.ErrForbidden)
	_, err := f.svc.Get(ctx, authorization.ActorAnonymous, created.CollectionUUID)
	assert.ErrorIs(t, err, authorization.ErrForbidden)

	f.allow(testActor, authorization.ActionRead)
	got, err := f.svc.Get(ctx, testActor, created.CollectionUUID)
	require.NoError(t, err)
	assert.NotNil(t, got.Courses)
	assert.Empty(t, got.Courses)
}

func TestGetUnknownCollection(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Get(context.Background(), testActor, "collection_missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.Get(context.Background(), testActor, " ")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.Delete(context.Background(), testActor, "collection_missing"), domain.ErrNotFound)
}

func TestListByOrgPaginates(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.create(t, "First", true)
	f.clock.Advance(time.Minute)
	second := f.create(t, "Second", false)
	f.clock.Advance(time.Minute)
	third := f.create(t, "Third", true)

	f.allow(testActor, authorization.ActionRead)
	page, err := f.svc.ListByOrg(ctx, testActor, testOrgID, domain.ListCollectionsRequest{
		Pagination: pagination.Pagination{PageSize: 2},
	})
	require.NoError(t, err)
	require.Len(t, page.Collections, 2)
	assert.Equal(t, third.ID, page.Collections[0].ID)
	assert.Equal(t, second.ID, page.Collections[1].ID)
	assert.True(t, page.HasMore)
	require.NotEmpty(t, page.NextPageToken)

	f.allow(testActor, authorization.ActionRead)
	page, err = f.svc.ListByOrg(ctx, testActor, testOrgID, domain.ListCollectionsRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: page.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, page.Collections, 1)
	assert.Equal(t, first.ID, page.Collections[0].ID)
	assert.False(t, page.HasMore)
}

func TestListByOrgShowsOnlyPublicWithoutRead(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	f.create(t, "Public", true)
	f.clock.Advance(time.Minute)
	f.create(t, "Private", false)

	f.authz.EXPECT().
		Authorize(gomock.Any(), authorization.ActorAnonymous, testOrgUUID, authorization.ObjectCollection, authorization.ActionRead).
		Return(authorization.ErrForbidden)
	page, err := f.svc.ListByOrg(ctx, authorization.ActorAnonymous, testOrgID, domain.ListCollectionsRequest{})
	require.NoError(t, err)
	require.Len(t, page.Collections, 1)
	assert.Equal(t, "Public", page.Collections[0].Name)

	f.authz.EXPECT().
		Authorize(gomock.Any(), "robot:1", testOrgUUID, authorization.ObjectCollection, authorization.ActionRead).
		Return(authorization.ErrInvalidActor)
	_, err = f.svc.ListByOrg(ctx, "robot:1", testOrgID, domain.ListCollectionsRequest{})
	assert.ErrorIs(t, err, authorization.ErrInvalidActor)
}

func TestListByOrgRejectsBadPageToken(t *testing.T) {
	f := setup(t)

	f.allow(testActor, authorization.ActionRead)
	_, err := f.svc.ListByOrg(context.Background(), testActor, testOrgID, domain.ListCollectionsRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-token"},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPageToken)
}

func TestDeleteRemovesCourseLinks(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.course(t, 11, testOrgID)
	f.course(t, 12, testOrgID)
	created := f.create(t, "Doomed", false, 11, 12)

	f.authz.EXPECT().
		Authorize(gomock.Any(), "user:9", testOrgUUID, authorization.ObjectCollection, authorization.ActionDelete).
		Return(authorization.ErrForbidden)
	assert.ErrorIs(t, f.svc.Delete(ctx, "user:9", created.CollectionUUID), authorization.ErrForbidden)
	assert.Equal(t, int64(1), f.count(t, &domain.Collection{}))

	f.allow(testActor, authorization.ActionDelete)
	require.NoError(t, f.svc.Delete(ctx, testActor, created.CollectionUUID))

	assert.Equal(t, int64(0), f.count(t, &domain.Collection{}))
	assert.Equal(t, int64(0), f.count(t, &domain.CollectionCourse{}))
	assert.Equal(t, int64(2), f.count(t, &coursedomain.Course{}))
	assert.Equal(t, []string{"collection.create", "collection.delete"}, f.audit.actions)
}

func TestDeleteRestoresLinksWhenCollectionDeleteFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.course(t, 11, testOrgID)
	created := f.create(t, "Sticky", false, 11)

	require.NoError(t, f.db.Exec(`CREATE TRIGGER block_collection_delete BEFORE DELETE ON collections
		BEGIN SELECT RAISE(ABORT, 'collection delete blocked'); END`).Error)

	f.allow(testActor, authorization.ActionDelete)
	assert.Error(t, f.svc.Delete(ctx, testActor, created.CollectionUUID))
	assert.Equal(t, int64(1), f.count(t, &domain.Collection{}))
	assert.Equal(t, int64(1), f.count(t, &domain.CollectionCourse{}))
	assert.Equal(t, []string{"collection.create"}, f.audit.actions)
}
