package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/internal/organization/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupOrgService(t *testing.T) (domain.Service, domain.Repository) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}, &domain.OrganizationMember{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	repo := repository.NewRepository(db)
	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		Repo:  repo,
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)),
	})
	return svc, repo
}

func TestCreateOrganization(t *testing.T) {
	svc, repo := setupOrgService(t)
	ctx := context.Background()

	t.Run("creator becomes owner", func(t *testing.T) {
		resp, err := svc.Create(ctx, 7, domain.CreateOrganizationRequest{Name: "Acme Academy"})
		require.NoError(t, err)
		assert.Equal(t, "acme-academy", resp.Slug)
		assert.NotEmpty(t, resp.OrgUUID)

		role, err := repo.RoleForUser(ctx, resp.OrgUUID, 7)
		require.NoError(t, err)
		assert.Equal(t, domain.RoleOwner, role)

		role, err = repo.RoleForUser(ctx, resp.OrgUUID, 8)
		require.NoError(t, err)
		assert.Empty(t, role)
	})

	t.Run("duplicate name gets distinct slug", func(t *testing.T) {
		resp, err := svc.Create(ctx, 9, domain.CreateOrganizationRequest{Name: "Acme Academy"})
		require.NoError(t, err)
		assert.NotEqual(t, "acme-academy", resp.Slug)
		assert.Contains(t, resp.Slug, "acme-academy-")
	})

	t.Run("validation", func(t *testing.T) {
		_, err := svc.Create(ctx, 0, domain.CreateOrganizationRequest{Name: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidUser)
		_, err = svc.Create(ctx, 1, domain.CreateOrganizationRequest{Name: "  "})
		assert.ErrorIs(t, err, domain.ErrInvalidName)
	})
}

func TestGetByID(t *testing.T) {
	svc, _ := setupOrgService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, domain.CreateOrganizationRequest{Name: "Beta"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.OrgUUID, got.OrgUUID)

	_, err = svc.GetByID(ctx, "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidOrganization)
}

func TestAddMember(t *testing.T) {
	svc, repo := setupOrgService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, 1, domain.CreateOrganizationRequest{Name: "Gamma"})
	require.NoError(t, err)
	orgID, err := snowflake.ParseString(org.ID)
	require.NoError(t, err)

	member, err := svc.AddMember(ctx, orgID, domain.AddMemberRequest{UserID: 2, Role: "member"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, member.Role)

	role, err := repo.RoleForUser(ctx, org.OrgUUID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleMember, role)

	_, err = svc.AddMember(ctx, orgID, domain.AddMemberRequest{UserID: 2, Role: "admin"})
	assert.ErrorIs(t, err, domain.ErrMemberExists)

	_, err = svc.AddMember(ctx, orgID, domain.AddMemberRequest{UserID: 3, Role: "janitor"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.AddMember(ctx, 999, domain.AddMemberRequest{UserID: 3, Role: "admin"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
