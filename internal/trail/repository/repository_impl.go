package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/trail/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindTrail(ctx context.Context, db *gorm.DB, orgID, userID snowflake.ID) (*domain.Trail, error) {
	var trail domain.Trail
	err := db.WithContext(ctx).
		Where("org_id = ? AND user_id = ?", orgID, userID).
		First(&trail).Error
	return firstOrNil(&trail, err)
}

func (r *repo) FindFirstTrailByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.Trail, error) {
	var trail domain.Trail
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("id ASC").
		First(&trail).Error
	return firstOrNil(&trail, err)
}

func (r *repo) InsertTrail(ctx context.Context, db *gorm.DB, trail *domain.Trail) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO trails (id, trail_uuid, org_id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		trail.ID,
		trail.TrailUUID,
		trail.OrgID,
		trail.UserID,
		trail.CreatedAt,
		trail.UpdatedAt,
	).Error
}

func (r *repo) FindRun(ctx context.Context, db *gorm.DB, trailID, courseID snowflake.ID) (*domain.TrailRun, error) {
	var run domain.TrailRun
	err := db.WithContext(ctx).
		Where("trail_id = ? AND course_id = ?", trailID, courseID).
		First(&run).Error
	return firstOrNil(&run, err)
}

func (r *repo) ListRunsByTrail(ctx context.Context, db *gorm.DB, trailID snowflake.ID) ([]domain.TrailRun, error) {
	var runs []domain.TrailRun
	err := db.WithContext(ctx).
		Where("trail_id = ?", trailID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *repo) InsertRun(ctx context.Context, db *gorm.DB, run *domain.TrailRun) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO trail_runs (id, trail_id, course_id, org_id, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.TrailID,
		run.CourseID,
		run.OrgID,
		run.UserID,
		run.CreatedAt,
		run.UpdatedAt,
	).Error
}

func (r *repo) DeleteRun(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM trail_runs WHERE id = ?`, id).Error
}

func (r *repo) FindStep(ctx context.Context, db *gorm.DB, runID, activityID snowflake.ID) (*domain.TrailStep, error) {
	var step domain.TrailStep
	err := db.WithContext(ctx).
		Where("trailrun_id = ? AND activity_id = ?", runID, activityID).
		First(&step).Error
	return firstOrNil(&step, err)
}

func (r *repo) ListStepsByRuns(ctx context.Context, db *gorm.DB, runIDs []snowflake.ID) ([]domain.TrailStep, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	var steps []domain.TrailStep
	err := db.WithContext(ctx).
		Where("trailrun_id IN ?", runIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&steps).Error
	if err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *repo) InsertStep(ctx context.Context, db *gorm.DB, step *domain.TrailStep) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO trail_steps (
			id, trailrun_id, activity_id, course_id, org_id, user_id,
			complete, teacher_verified, grade, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		step.ID,
		step.TrailRunID,
		step.ActivityID,
		step.CourseID,
		step.OrgID,
		step.UserID,
		step.Complete,
		step.TeacherVerified,
		step.Grade,
		step.CreatedAt,
		step.UpdatedAt,
	).Error
}

func (r *repo) DeleteStepsByRun(ctx context.Context, db *gorm.DB, runID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM trail_steps WHERE trailrun_id = ?`, runID).Error
}

func firstOrNil[T any](item *T, err error) (*T, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}
