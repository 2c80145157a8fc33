package domain

import (
	"time"

	"github.com/google/uuid"
)

// CompletedLecture is one member of a (user, course) progress record.
type CompletedLecture struct {
	UserID    string    `gorm:"primaryKey"`
	CourseID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	LectureID string    `gorm:"primaryKey"`
	CreatedAt time.Time
}

type Progress struct {
	LectureCompleted []string `json:"lectureCompleted"`
	Completed        int      `json:"completed"`
	Total            int      `json:"total"`
	Percentage       float64  `json:"percentage"`
}

func NewProgress(lectureIDs []string, total int) Progress {
	if lectureIDs == nil {
		lectureIDs = []string{}
	}
	return Progress{
		LectureCompleted: lectureIDs,
		Completed:        len(lectureIDs),
		Total:            total,
		Percentage:       Percentage(len(lectureIDs), total),
	}
}

// Percentage is 100*completed/total clamped to [0,100]; 0 when total is 0.
// Clamping covers lectures removed from a course after being completed.
func Percentage(completed, total int) float64 {
	if total <= 0 || completed <= 0 {
		return 0
	}
	p := 100 * float64(completed) / float64(total)
	if p > 100 {
		return 100
	}
	return p
}
