package application

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/waste3d/edemy-api/internal/domain"
)

// CourseView is a course with its derived figures. The educator object
// replaces the bare educator id of the stored course.
type CourseView struct {
	domain.Course
	Educator domain.Student `json:"educator"`

	AverageRating  float64         `json:"averageRating"`
	RatingCount    int             `json:"ratingCount"`
	EnrolledCount  int64           `json:"enrolledCount"`
	EffectivePrice decimal.Decimal `json:"effectivePrice"`
	TotalLectures  int             `json:"totalLectures"`
	TotalDuration  int             `json:"totalDuration"`
}

func newCourseView(c domain.Course, educator domain.Student, enrolled int64) CourseView {
	if educator.ID == "" {
		educator.ID = c.EducatorID
	}
	if c.Ratings == nil {
		c.Ratings = []domain.Rating{}
	}
	if c.Content == nil {
		c.Content = []domain.Chapter{}
	}
	return CourseView{
		Course:         c,
		Educator:       educator,
		AverageRating:  domain.AverageRating(c.Ratings),
		RatingCount:    len(c.Ratings),
		EnrolledCount:  enrolled,
		EffectivePrice: c.EffectivePrice(),
		TotalLectures:  c.TotalLectures(),
		TotalDuration:  c.TotalDuration(),
	}
}

type EnrolledStudent struct {
	Student      domain.Student `json:"student"`
	CourseTitle  string         `json:"courseTitle"`
	PurchaseDate time.Time      `json:"purchaseDate"`
}

type Dashboard struct {
	TotalEarnings        decimal.Decimal   `json:"totalEarnings"`
	EnrolledStudentsData []EnrolledStudent `json:"enrolledStudentsData"`
	TotalCourses         int               `json:"totalCourses"`
}
