package application

import (
	"context"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
)

type RatingUseCase struct {
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	retry       RetryPolicy
}

func NewRatingUseCase(cr *repository.CourseRepository, er *repository.EnrollmentRepository, retry RetryPolicy) *RatingUseCase {
	return &RatingUseCase{courses: cr, enrollments: er, retry: retry}
}

// SubmitRating records the user's score for the course, replacing an earlier one.
// Only enrolled users may rate.
func (uc *RatingUseCase) SubmitRating(ctx context.Context, userID, rawCourseID string, value int) error {
	if err := domain.ValidateRating(value); err != nil {
		return err
	}
	courseID, err := parseCourseID(rawCourseID)
	if err != nil {
		return err
	}
	if _, err := uc.courses.GetByID(ctx, courseID); err != nil {
		return err
	}

	enrolled, err := uc.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return err
	}
	if !enrolled {
		return domain.ErrNotEnrolled
	}

	// the upsert is a single statement, safe to repeat
	return uc.retry.Do(ctx, func(ctx context.Context) error {
		return uc.courses.UpsertRating(ctx, courseID, userID, value)
	})
}
