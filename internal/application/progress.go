package application

import (
	"context"

	"github.com/pkg/errors"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
)

type ProgressUseCase struct {
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	progress    *repository.ProgressRepository
	retry       RetryPolicy
}

func NewProgressUseCase(
	cr *repository.CourseRepository,
	er *repository.EnrollmentRepository,
	pr *repository.ProgressRepository,
	retry RetryPolicy,
) *ProgressUseCase {
	return &ProgressUseCase{courses: cr, enrollments: er, progress: pr, retry: retry}
}

// MarkLectureComplete records the lecture as completed. It returns false when
// the lecture had already been completed.
func (uc *ProgressUseCase) MarkLectureComplete(ctx context.Context, userID, rawCourseID, lectureID string) (bool, error) {
	courseID, err := parseCourseID(rawCourseID)
	if err != nil {
		return false, err
	}
	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return false, err
	}
	if !course.HasLecture(lectureID) {
		return false, domain.NewValidationError(
			errors.New("lecture does not belong to this course"),
			domain.FieldError{Field: "lectureId", Error: "unknown lecture for this course"},
		)
	}

	enrolled, err := uc.enrollments.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return false, err
	}
	if !enrolled {
		return false, domain.ErrNotEnrolled
	}

	var added bool
	err = uc.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		added, err = uc.progress.MarkComplete(ctx, userID, courseID, lectureID)
		return err
	})
	return added, err
}

func (uc *ProgressUseCase) GetProgress(ctx context.Context, userID, rawCourseID string) (domain.Progress, error) {
	courseID, err := parseCourseID(rawCourseID)
	if err != nil {
		return domain.Progress{}, err
	}
	course, err := uc.courses.GetByID(ctx, courseID)
	if err != nil {
		return domain.Progress{}, err
	}

	var ids []string
	err = uc.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		ids, err = uc.progress.CompletedLectureIDs(ctx, userID, courseID)
		return err
	})
	if err != nil {
		return domain.Progress{}, err
	}
	return domain.NewProgress(ids, course.TotalLectures()), nil
}
