package domain

import (
	"time"

	"github.com/google/uuid"
)

// User mirrors an identity-provider account. Its ID is the provider's user id.
type User struct {
	ID       string `gorm:"primaryKey" json:"_id"`
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"index" json:"email"`
	ImageURL string `json:"imageUrl"`

	// filled from the enrollments table, never stored on the row
	EnrolledCourses []uuid.UUID `gorm:"-" json:"enrolledCourses"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Enrollment is the single record behind both Course.enrolledUsers and
// User.enrolledCourses.
type Enrollment struct {
	UserID     string     `gorm:"primaryKey"`
	CourseID   uuid.UUID  `gorm:"type:uuid;primaryKey;index"`
	PurchaseID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt  time.Time
}

// Student is the public projection of a User shown to educators.
type Student struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
}

func (u User) Student() Student {
	return Student{ID: u.ID, Name: u.Name, ImageURL: u.ImageURL}
}
