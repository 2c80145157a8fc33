package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waste3d/edemy-api/internal/domain"
)

type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// MarkComplete adds the lecture to the user's progress for the course.
// It returns false when the lecture was already there.
func (r *ProgressRepository) MarkComplete(ctx context.Context, userID string, courseID uuid.UUID, lectureID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&domain.CompletedLecture{UserID: userID, CourseID: courseID, LectureID: lectureID})
	if res.Error != nil {
		return false, storeErr(res.Error, "mark lecture complete")
	}
	return res.RowsAffected > 0, nil
}

// CompletedLectureIDs is empty, not an error, when no progress record exists yet.
func (r *ProgressRepository) CompletedLectureIDs(ctx context.Context, userID string, courseID uuid.UUID) ([]string, error) {
	ids := []string{}
	err := r.db.WithContext(ctx).Model(&domain.CompletedLecture{}).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at asc").
		Pluck("lecture_id", &ids).Error
	return ids, storeErr(err, "list completed lectures")
}
