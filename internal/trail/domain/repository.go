package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindTrail(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*Trail, error)
	FindFirstTrailByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Trail, error)
	InsertTrail(ctx context.Context, db *gorm.DB, trail *Trail) error

	FindRun(ctx context.Context, db *gorm.DB, trailID, courseID snowflake.ID) (*TrailRun, error)
	ListRunsByTrail(ctx context.Context, db *gorm.DB, trailID snowflake.ID) ([]TrailRun, error)
	InsertRun(ctx context.Context, db *gorm.DB, run *TrailRun) error
	DeleteRun(ctx context.Context, db *gorm.DB, id snowflake.ID) error

	FindStep(ctx context.Context, db *gorm.DB, runID, activityID snowflake.ID) (*TrailStep, error)
	ListStepsByRuns(ctx context.Context, db *gorm.DB, runIDs []snowflake.ID) ([]TrailStep, error)
	InsertStep(ctx context.Context, db *gorm.DB, step *TrailStep) error
	DeleteStepsByRun(ctx context.Context, db *gorm.DB, runID snowflake.ID) error
}
