package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/observability/metrics"
	orgdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	OrgRepo  orgdomain.Repository
	AuditSvc auditdomain.Service `optional:"true"`
	Metrics  *metrics.Metrics    `optional:"true"`
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	orgRepo  orgdomain.Repository
	auditSvc auditdomain.Service
	metrics  *metrics.Metrics
}

// NewEnforcer builds a policy enforcer persisted through the gorm adapter.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	return buildEnforcer(adapter)
}

// buildEnforcer seeds role policies; a nil adapter keeps policies in memory.
func buildEnforcer(adapter persist.Adapter) (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	var enforcer *casbin.SyncedEnforcer
	if adapter != nil {
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
	}
	if err != nil {
		return nil, err
	}

	enforcer.EnableAutoSave(adapter != nil)
	enforcer.EnableAutoBuildRoleLinks(true)
	if adapter != nil {
		if err := enforcer.LoadPolicy(); err != nil {
			return nil, err
		}
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		orgRepo:  p.OrgRepo,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, orgUUID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	orgUUID = strings.TrimSpace(orgUUID)
	if orgUUID == "" {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, actorType, actorID, err := s.resolveActor(ctx, actor, orgUUID)
	if err != nil {
		s.metrics.RecordAuthorizationDecision(ctx, object, action, false)
		s.auditDecision(ctx, "authorization.denied", actorType, actorID, orgUUID, object, action)
		return err
	}

	domain := fmt.Sprintf("org:%s", orgUUID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	s.metrics.RecordAuthorizationDecision(ctx, object, action, allowed)
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("domain", domain),
			zap.String("object", object),
			zap.String("action", action),
		)
		s.auditDecision(ctx, "authorization.denied", actorType, actorID, orgUUID, object, action)
		return ErrForbidden
	}

	if shouldAuditGrant(action) {
		s.auditDecision(ctx, "authorization.granted", actorType, actorID, orgUUID, object, action)
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, orgUUID string) (string, string, string, *string, error) {
	switch {
	case actor == ActorSystem:
		return actor, "role:system", string(auditdomain.ActorTypeSystem), nil, nil
	case actor == ActorAnonymous:
		return actor, "", string(auditdomain.ActorTypeAnonymous), nil, ErrForbidden
	case strings.HasPrefix(actor, userPrefix):
		userID, err := snowflake.ParseString(strings.TrimPrefix(actor, userPrefix))
		if err != nil || userID == 0 {
			return "", "", "", nil, ErrInvalidActor
		}
		userIDStr := userID.String()
		role, err := s.orgRepo.RoleForUser(ctx, orgUUID, userID)
		if err != nil {
			return actor, "", string(auditdomain.ActorTypeUser), &userIDStr, err
		}
		role = strings.TrimSpace(role)
		if role == "" {
			return actor, "", string(auditdomain.ActorTypeUser), &userIDStr, ErrForbidden
		}
		return actor, fmt.Sprintf("role:%s", strings.ToLower(role)), string(auditdomain.ActorTypeUser), &userIDStr, nil
	default:
		return "", "", "", nil, ErrInvalidActor
	}
}

// ensureGrouping keeps exactly one role binding per subject and domain so
// role changes in organization_members take effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDecision(ctx context.Context, auditAction string, actorType string, actorID *string, orgUUID string, object string, action string) {
	if s.auditSvc == nil || actorType == "" {
		return
	}
	org, err := s.orgRepo.FindByUUID(ctx, orgUUID)
	if err != nil || org == nil {
		return
	}
	targetID := fmt.Sprintf("%s.%s", object, action)
	if err := s.auditSvc.AuditLog(ctx, &org.ID, actorType, actorID, auditAction, "authorization", &targetID, map[string]any{
		"object":  object,
		"action":  action,
		"subject": actorSubject(actorType, actorID),
	}); err != nil {
		s.log.Warn("audit log failed", zap.String("action", auditAction), zap.Error(err))
	}
}

func actorSubject(actorType string, actorID *string) string {
	switch actorType {
	case string(auditdomain.ActorTypeSystem):
		return ActorSystem
	case string(auditdomain.ActorTypeAnonymous):
		return ActorAnonymous
	case string(auditdomain.ActorTypeUser):
		if actorID != nil && strings.TrimSpace(*actorID) != "" {
			return UserActor(strings.TrimSpace(*actorID))
		}
	}
	return ""
}

func shouldAuditGrant(action string) bool {
	return action == ActionDelete
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	crud := []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete}

	policies := [][]string{
		// Member permissions (read-only)
		{"role:member", ObjectPaymentsConfig, ActionRead},
		{"role:member", ObjectCourse, ActionRead},
		{"role:member", ObjectCollection, ActionRead},

		{"role:admin", ObjectOrganizationMember, ActionCreate},
		{"role:admin", ObjectOrganizationMember, ActionRead},
		{"role:admin", ObjectAuditLog, ActionRead},

		{"role:owner", ObjectOrganizationMember, ActionCreate},
		{"role:owner", ObjectOrganizationMember, ActionRead},
		{"role:owner", ObjectAuditLog, ActionRead},

		{"role:system", ObjectOrganizationMember, ActionCreate},
		{"role:system", ObjectOrganizationMember, ActionRead},
		{"role:system", ObjectAuditLog, ActionRead},
	}
	for _, role := range []string{"role:owner", "role:admin", "role:system"} {
		for _, object := range []string{ObjectPaymentsConfig, ObjectCourse, ObjectCollection} {
			for _, action := range crud {
				policies = append(policies, []string{role, object, action})
			}
		}
	}

	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
