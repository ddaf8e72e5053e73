package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
)

const uuidPrefix = "collection_"

// Collection groups courses of one organization.
type Collection struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	CollectionUUID string       `gorm:"column:collection_uuid;type:text;not null;uniqueIndex:ux_collections_collection_uuid" json:"collection_uuid"`
	OrgID          snowflake.ID `gorm:"column:org_id;not null;index" json:"org_id"`
	Name           string       `gorm:"type:text;not null" json:"name"`
	Description    string       `gorm:"type:text;not null;default:''" json:"description"`
	Public         bool         `gorm:"not null;default:false" json:"public"`
	CreatedAt      time.Time    `gorm:"not null" json:"creation_date"`
	UpdatedAt      time.Time    `gorm:"not null" json:"update_date"`
}

func (Collection) TableName() string { return "collections" }

type CollectionCourse struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CollectionID snowflake.ID `gorm:"column:collection_id;not null;uniqueIndex:ux_collection_courses_collection_course,priority:1" json:"collection_id"`
	CourseID     snowflake.ID `gorm:"column:course_id;not null;uniqueIndex:ux_collection_courses_collection_course,priority:2" json:"course_id"`
	OrgID        snowflake.ID `gorm:"column:org_id;not null" json:"org_id"`
	CreatedAt    time.Time    `gorm:"not null" json:"creation_date"`
}

func (CollectionCourse) TableName() string { return "collection_courses" }

type CollectionResponse struct {
	Collection
	Courses []coursedomain.Course `json:"courses"`
}

// NormalizeUUID accepts both "collection_<uuid>" and the bare uuid.
func NormalizeUUID(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, uuidPrefix) {
		return raw
	}
	return uuidPrefix + raw
}

func NewUUID(id string) string {
	return uuidPrefix + id
}
