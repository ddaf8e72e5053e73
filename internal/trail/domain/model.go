package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
)

// Trail is a user's learning path within one organization.
type Trail struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	TrailUUID string       `json:"trail_uuid" gorm:"column:trail_uuid;type:text;not null;uniqueIndex:ux_trails_trail_uuid"`
	OrgID     snowflake.ID `json:"org_id" gorm:"column:org_id;not null;uniqueIndex:ux_trails_org_user,priority:1"`
	UserID    snowflake.ID `json:"user_id" gorm:"column:user_id;not null;index;uniqueIndex:ux_trails_org_user,priority:2"`
	CreatedAt time.Time    `json:"creation_date" gorm:"not null"`
	UpdatedAt time.Time    `json:"update_date" gorm:"not null"`
}

func (Trail) TableName() string { return "trails" }

// TrailRun links a trail to one course.
type TrailRun struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	TrailID   snowflake.ID `json:"trail_id" gorm:"column:trail_id;not null;uniqueIndex:ux_trail_runs_trail_course,priority:1"`
	CourseID  snowflake.ID `json:"course_id" gorm:"column:course_id;not null;uniqueIndex:ux_trail_runs_trail_course,priority:2"`
	OrgID     snowflake.ID `json:"org_id" gorm:"column:org_id;not null"`
	UserID    snowflake.ID `json:"user_id" gorm:"column:user_id;not null"`
	CreatedAt time.Time    `json:"creation_date" gorm:"not null"`
	UpdatedAt time.Time    `json:"update_date" gorm:"not null"`
}

func (TrailRun) TableName() string { return "trail_runs" }

// TrailStep links a run to one activity and carries its completion state.
type TrailStep struct {
	ID              snowflake.ID `json:"id" gorm:"primaryKey"`
	TrailRunID      snowflake.ID `json:"trailrun_id" gorm:"column:trailrun_id;not null;uniqueIndex:ux_trail_steps_run_activity,priority:1"`
	ActivityID      snowflake.ID `json:"activity_id" gorm:"column:activity_id;not null;uniqueIndex:ux_trail_steps_run_activity,priority:2"`
	CourseID        snowflake.ID `json:"course_id" gorm:"column:course_id;not null"`
	OrgID           snowflake.ID `json:"org_id" gorm:"column:org_id;not null"`
	UserID          snowflake.ID `json:"user_id" gorm:"column:user_id;not null"`
	Complete        bool         `json:"complete" gorm:"not null;default:false"`
	TeacherVerified bool         `json:"teacher_verified" gorm:"not null;default:false"`
	Grade           string       `json:"grade" gorm:"type:text;not null;default:''"`
	CreatedAt       time.Time    `json:"creation_date" gorm:"not null"`
	UpdatedAt       time.Time    `json:"update_date" gorm:"not null"`
}

func (TrailStep) TableName() string { return "trail_steps" }

// TrailResponse is the nested read model of a trail.
type TrailResponse struct {
	Trail
	Runs []TrailRunResponse `json:"runs"`
}

type TrailRunResponse struct {
	TrailRun
	Steps []TrailStepResponse `json:"steps"`
}

type TrailStepResponse struct {
	TrailStep
	Data TrailStepData `json:"data"`
}

type TrailStepData struct {
	Course *coursedomain.Course `json:"course"`
}
