package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/waste3d/edemy-api/internal/domain"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FirstOrCreate inserts u when no user with its id exists and loads the stored row into u.
func (r *UserRepository) FirstOrCreate(ctx context.Context, u *domain.User) error {
	err := r.db.WithContext(ctx).
		Where(domain.User{ID: u.ID}).
		Attrs(domain.User{Name: u.Name, Email: u.Email, ImageURL: u.ImageURL}).
		FirstOrCreate(u).Error
	return storeErr(err, "first or create user")
}

// GetByID loads the user and the ids of the courses they are enrolled in.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr(err, "get user")
	}

	err = r.db.WithContext(ctx).Model(&domain.Enrollment{}).
		Where("user_id = ?", id).
		Order("created_at asc").
		Pluck("course_id", &user.EnrolledCourses).Error
	if err != nil {
		return nil, storeErr(err, "get user enrollments")
	}
	return &user, nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	var users []domain.User
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error
	return users, storeErr(err, "get users")
}
