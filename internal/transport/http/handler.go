package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/waste3d/edemy-api/internal/application"
	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/payment"
)

type CourseService interface {
	ListCourses(ctx context.Context) ([]application.CourseView, error)
	GetCourse(ctx context.Context, rawID string) (*application.CourseView, error)
	CreateCourse(ctx context.Context, educatorID string, nc domain.NewCourse, thumb *application.Thumbnail) (*domain.Course, error)
}

type UserService interface {
	EnsureUser(ctx context.Context, id domain.Identity) (*domain.User, error)
	GetUserData(ctx context.Context, userID string) (*domain.User, error)
	EnrolledCourses(ctx context.Context, userID string) ([]domain.Course, error)
}

type PurchaseService interface {
	BeginPurchase(ctx context.Context, userID, rawCourseID string) (string, error)
	ConfirmPayment(ctx context.Context, purchaseID uuid.UUID) error
	FailPayment(ctx context.Context, purchaseID uuid.UUID) error
}

type RatingService interface {
	SubmitRating(ctx context.Context, userID, rawCourseID string, value int) error
}

type ProgressService interface {
	MarkLectureComplete(ctx context.Context, userID, rawCourseID, lectureID string) (bool, error)
	GetProgress(ctx context.Context, userID, rawCourseID string) (domain.Progress, error)
}

type EducatorService interface {
	UpdateRoleToEducator(ctx context.Context, userID string) error
	RequireEducator(ctx context.Context, userID string) (domain.Identity, error)
	Courses(ctx context.Context, educatorID string) ([]application.CourseView, error)
	Dashboard(ctx context.Context, educatorID string) (*application.Dashboard, error)
	EnrolledStudents(ctx context.Context, educatorID string) ([]application.EnrolledStudent, error)
}

// WebhookParser authenticates and decodes payment provider callbacks.
type WebhookParser interface {
	ParseWebhook(payload []byte, sigHeader string) (payment.Event, error)
}
