package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waste3d/edemy-api/internal/domain"
)

// EnrollmentRepository owns the enrollments table, which backs both the
// course->users and the user->courses views.
type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll reports whether a new enrollment row was written.
func (r *EnrollmentRepository) Enroll(ctx context.Context, e *domain.Enrollment) (bool, error) {
	created, err := insertEnrollment(r.db.WithContext(ctx), e)
	return created, storeErr(err, "enroll")
}

func insertEnrollment(tx *gorm.DB, e *domain.Enrollment) (bool, error) {
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(e)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, userID string, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Count(&count).Error
	return count > 0, storeErr(err, "check enrollment")
}

func (r *EnrollmentRepository) CourseIDs(ctx context.Context, userID string) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Pluck("course_id", &ids).Error
	return ids, storeErr(err, "list enrolled course ids")
}

func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("course_id = ?", courseID).
		Count(&count).Error
	return count, storeErr(err, "count enrollments")
}

// ByCourses lists the enrollments of the given courses, oldest first.
func (r *EnrollmentRepository) ByCourses(ctx context.Context, courseIDs []uuid.UUID) ([]domain.Enrollment, error) {
	if len(courseIDs) == 0 {
		return []domain.Enrollment{}, nil
	}
	var enrollments []domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("created_at asc").
		Find(&enrollments).Error
	return enrollments, storeErr(err, "list course enrollments")
}
