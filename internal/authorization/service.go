//go:generate mockgen -source=service.go -destination=mock/mock_service.go -package=mock_authorization

package authorization

import (
	"context"
	"errors"
)

const (
	ObjectPaymentsConfig     = "payments_config"
	ObjectCourse             = "course"
	ObjectOrganizationMember = "organization_member"
	ObjectAuditLog           = "audit_log"
	ObjectCollection         = "collection"
)

const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

const (
	ActorSystem    = "system"
	ActorAnonymous = "anonymous"
	userPrefix     = "user:"
)

// Service decides whether an actor may perform action on object inside an
// organization. orgUUID is the organization's external identifier.
type Service interface {
	Authorize(ctx context.Context, actor string, orgUUID string, object string, action string) error
}

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
)

// UserActor formats the actor string for a user id.
func UserActor(userID string) string {
	return userPrefix + userID
}
