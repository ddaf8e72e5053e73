package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Course struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	CourseUUID  string       `gorm:"column:course_uuid;type:text;not null;uniqueIndex:ux_courses_course_uuid" json:"course_uuid"`
	OrgID       snowflake.ID `gorm:"column:org_id;not null;index" json:"org_id"`
	Name        string       `gorm:"type:text;not null" json:"name"`
	Description string       `gorm:"type:text;not null;default:''" json:"description"`
	Public      bool         `gorm:"not null;default:false" json:"public"`
	CreatedAt   time.Time    `gorm:"not null" json:"creation_date"`
	UpdatedAt   time.Time    `gorm:"not null" json:"update_date"`
}

func (Course) TableName() string { return "courses" }
