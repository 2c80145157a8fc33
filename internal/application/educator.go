package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
)

type EducatorUseCase struct {
	roles       RoleStore
	courses     *repository.CourseRepository
	users       *repository.UserRepository
	enrollments *repository.EnrollmentRepository
	purchases   *repository.PurchaseRepository
	catalog     *CourseUseCase
}

func NewEducatorUseCase(
	roles RoleStore,
	cr *repository.CourseRepository,
	ur *repository.UserRepository,
	er *repository.EnrollmentRepository,
	pr *repository.PurchaseRepository,
	catalog *CourseUseCase,
) *EducatorUseCase {
	return &EducatorUseCase{roles: roles, courses: cr, users: ur, enrollments: er, purchases: pr, catalog: catalog}
}

func (uc *EducatorUseCase) UpdateRoleToEducator(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrNotAuthenticated
	}
	return uc.roles.SetRole(ctx, userID, domain.RoleEducator)
}

// RequireEducator reads the role from the identity provider on every call.
func (uc *EducatorUseCase) RequireEducator(ctx context.Context, userID string) (domain.Identity, error) {
	if userID == "" {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}
	id, err := uc.roles.GetUser(ctx, userID)
	if domain.IsNotFound(err) {
		return domain.Identity{}, domain.ErrNotAuthenticated
	}
	if err != nil {
		return domain.Identity{}, err
	}
	return id, domain.RequireEducator(id)
}

func (uc *EducatorUseCase) Courses(ctx context.Context, educatorID string) ([]CourseView, error) {
	courses, err := uc.courses.ListByEducator(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	return uc.catalog.views(ctx, courses)
}

func (uc *EducatorUseCase) Dashboard(ctx context.Context, educatorID string) (*Dashboard, error) {
	courses, err := uc.courses.ListByEducator(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}

	earnings, err := uc.purchases.Earnings(ctx, ids)
	if err != nil {
		return nil, err
	}
	students, err := uc.students(ctx, courses)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		TotalEarnings:        earnings,
		EnrolledStudentsData: students,
		TotalCourses:         len(courses),
	}, nil
}

func (uc *EducatorUseCase) EnrolledStudents(ctx context.Context, educatorID string) ([]EnrolledStudent, error) {
	courses, err := uc.courses.ListByEducator(ctx, educatorID)
	if err != nil {
		return nil, err
	}
	return uc.students(ctx, courses)
}

func (uc *EducatorUseCase) students(ctx context.Context, courses []domain.Course) ([]EnrolledStudent, error) {
	titles := make(map[uuid.UUID]string, len(courses))
	ids := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		titles[c.ID] = c.Title
		ids = append(ids, c.ID)
	}

	enrollments, err := uc.enrollments.ByCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		userIDs = append(userIDs, e.UserID)
	}
	users, err := uc.users.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]EnrolledStudent, 0, len(enrollments))
	for _, e := range enrollments {
		u, ok := byID[e.UserID]
		if !ok {
			u = domain.User{ID: e.UserID}
		}
		out = append(out, EnrolledStudent{
			Student:      u.Student(),
			CourseTitle:  titles[e.CourseID],
			PurchaseDate: e.CreatedAt,
		})
	}
	return out, nil
}
