package application

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
)

type CourseUseCase struct {
	courses     *repository.CourseRepository
	users       *repository.UserRepository
	enrollments *repository.EnrollmentRepository
	thumbnails  ThumbnailStore
}

func NewCourseUseCase(
	cr *repository.CourseRepository,
	ur *repository.UserRepository,
	er *repository.EnrollmentRepository,
	ts ThumbnailStore,
) *CourseUseCase {
	return &CourseUseCase{courses: cr, users: ur, enrollments: er, thumbnails: ts}
}

type Thumbnail struct {
	Filename string
	Content  io.Reader
}

// CreateCourse validates the draft, uploads its thumbnail and stores the course.
func (uc *CourseUseCase) CreateCourse(ctx context.Context, educatorID string, nc domain.NewCourse, thumb *Thumbnail) (*domain.Course, error) {
	if educatorID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	if err := nc.Validate(); err != nil {
		return nil, err
	}
	if thumb == nil || thumb.Content == nil {
		return nil, domain.NewValidationError(
			errors.New("Thumbnail Not Attached"),
			domain.FieldError{Field: "image", Error: "image is required"},
		)
	}

	url, err := uc.thumbnails.Upload(ctx, thumb.Filename, thumb.Content)
	if err != nil {
		return nil, errors.Wrap(err, "upload thumbnail")
	}

	course := &domain.Course{
		ID:          uuid.New(),
		Title:       nc.Title,
		Description: nc.Description,
		Thumbnail:   url,
		Price:       nc.Price,
		Discount:    nc.Discount,
		IsPublished: true,
		EducatorID:  educatorID,
		Content:     nc.Content,
	}
	if err := uc.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	return course, nil
}

// GetCourse returns the public view of a course: lecture URLs are kept only
// for free previews.
func (uc *CourseUseCase) GetCourse(ctx context.Context, rawID string) (*CourseView, error) {
	id, err := parseCourseID(rawID)
	if err != nil {
		return nil, err
	}
	course, err := uc.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	educator, err := uc.educator(ctx, course.EducatorID)
	if err != nil {
		return nil, err
	}
	enrolled, err := uc.enrollments.CountByCourse(ctx, id)
	if err != nil {
		return nil, err
	}

	c := *course
	c.Content = c.PublicContent()
	view := newCourseView(c, educator, enrolled)
	return &view, nil
}

// ListCourses returns every published course without its content. The
// lecture totals are computed before the outline is dropped.
func (uc *CourseUseCase) ListCourses(ctx context.Context) ([]CourseView, error) {
	courses, err := uc.courses.List(ctx)
	if err != nil {
		return nil, err
	}
	views, err := uc.views(ctx, courses)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Content = []domain.Chapter{}
	}
	return views, nil
}

func (uc *CourseUseCase) views(ctx context.Context, courses []domain.Course) ([]CourseView, error) {
	ids := make([]string, 0, len(courses))
	seen := make(map[string]bool)
	for _, c := range courses {
		if !seen[c.EducatorID] {
			seen[c.EducatorID] = true
			ids = append(ids, c.EducatorID)
		}
	}
	users, err := uc.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Student, len(users))
	for _, u := range users {
		byID[u.ID] = u.Student()
	}

	views := make([]CourseView, 0, len(courses))
	for _, c := range courses {
		enrolled, err := uc.enrollments.CountByCourse(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, newCourseView(c, byID[c.EducatorID], enrolled))
	}
	return views, nil
}

// educator looks the name up in the users table; an unknown educator yields
// an empty name, never text from the course itself.
func (uc *CourseUseCase) educator(ctx context.Context, id string) (domain.Student, error) {
	users, err := uc.users.GetByIDs(ctx, []string{id})
	if err != nil {
		return domain.Student{}, err
	}
	if len(users) == 0 {
		return domain.Student{ID: id}, nil
	}
	return users[0].Student(), nil
}

func parseCourseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.ErrCourseNotFound
	}
	return id, nil
}
