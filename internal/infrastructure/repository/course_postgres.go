package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/waste3d/edemy-api/internal/domain"
)

// CourseCache holds whole course documents keyed by id. Set is given the
// Version read before the database load and drops documents invalidated since.
type CourseCache interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Course, bool)
	Version(ctx context.Context, id uuid.UUID) int64
	Set(ctx context.Context, c *domain.Course, version int64)
	Delete(ctx context.Context, id uuid.UUID)
}

type CourseRepository struct {
	db    *gorm.DB
	cache CourseCache
}

// NewCourseRepository accepts a nil cache.
func NewCourseRepository(db *gorm.DB, cache CourseCache) *CourseRepository {
	return &CourseRepository{db: db, cache: cache}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return storeErr(r.db.WithContext(ctx).Omit("Ratings").Create(c).Error, "create course")
}

// GetByID returns the course with its ratings, served from the cache when possible.
func (r *CourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	var version int64
	if r.cache != nil {
		if c, ok := r.cache.Get(ctx, id); ok {
			return c, nil
		}
		version = r.cache.Version(ctx, id)
	}

	var course domain.Course
	err := r.db.WithContext(ctx).
		Preload("Ratings", func(db *gorm.DB) *gorm.DB {
			return db.Order("updated_at asc")
		}).
		First(&course, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrCourseNotFound
	}
	if err != nil {
		return nil, storeErr(err, "get course")
	}

	if r.cache != nil {
		r.cache.Set(ctx, &course, version)
	}
	return &course, nil
}

// List returns published courses newest first.
func (r *CourseRepository) List(ctx context.Context) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Preload("Ratings").
		Where("is_published = ?", true).
		Order("created_at desc").
		Find(&courses).Error
	return courses, storeErr(err, "list courses")
}

func (r *CourseRepository) ListByEducator(ctx context.Context, educatorID string) ([]domain.Course, error) {
	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Preload("Ratings").
		Where("educator_id = ?", educatorID).
		Order("created_at desc").
		Find(&courses).Error
	return courses, storeErr(err, "list educator courses")
}

func (r *CourseRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Course, error) {
	if len(ids) == 0 {
		return []domain.Course{}, nil
	}
	var courses []domain.Course
	err := r.db.WithContext(ctx).
		Preload("Ratings").
		Where("id IN ?", ids).
		Order("created_at desc").
		Find(&courses).Error
	return courses, storeErr(err, "list courses by id")
}

// UpsertRating stores the user's rating in a single statement, replacing any
// previous value of that user.
func (r *CourseRepository) UpsertRating(ctx context.Context, courseID uuid.UUID, userID string, value int) error {
	rating := domain.Rating{CourseID: courseID, UserID: userID, Value: value, UpdatedAt: time.Now()}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&rating).Error
	if err != nil {
		return storeErr(err, "upsert rating")
	}
	r.Invalidate(ctx, courseID)
	return nil
}

func (r *CourseRepository) Invalidate(ctx context.Context, id uuid.UUID) {
	if r.cache != nil {
		r.cache.Delete(ctx, id)
	}
}
