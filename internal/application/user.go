package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
)

const defaultUserName = "No Name"

type UserUseCase struct {
	users       *repository.UserRepository
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
}

func NewUserUseCase(ur *repository.UserRepository, cr *repository.CourseRepository, er *repository.EnrollmentRepository) *UserUseCase {
	return &UserUseCase{users: ur, courses: cr, enrollments: er}
}

// EnsureUser returns the stored user for the identity, creating it on first sight.
func (uc *UserUseCase) EnsureUser(ctx context.Context, id domain.Identity) (*domain.User, error) {
	if id.UserID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	name := id.Name
	if name == "" {
		name = defaultUserName
	}
	user := &domain.User{ID: id.UserID, Name: name, Email: id.Email, ImageURL: id.ImageURL}
	if err := uc.users.FirstOrCreate(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) GetUserData(ctx context.Context, userID string) (*domain.User, error) {
	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.EnrolledCourses == nil {
		user.EnrolledCourses = []uuid.UUID{}
	}
	return user, nil
}

// EnrolledCourses returns the full documents, lecture URLs included.
func (uc *UserUseCase) EnrolledCourses(ctx context.Context, userID string) ([]domain.Course, error) {
	ids, err := uc.enrollments.CourseIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return uc.courses.ListByIDs(ctx, ids)
}
