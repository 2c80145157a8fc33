package application

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/infrastructure/email"
	"github.com/waste3d/edemy-api/internal/infrastructure/payment"
	"github.com/waste3d/edemy-api/internal/infrastructure/repository"
	"github.com/waste3d/edemy-api/internal/logger"
)

type fakeGateway struct {
	mu       sync.Mutex
	requests []payment.CheckoutRequest
	err      error
}

func (f *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (payment.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return payment.CheckoutSession{}, f.err
	}
	f.requests = append(f.requests, req)
	id := fmt.Sprintf("cs_test_%d", len(f.requests))
	return payment.CheckoutSession{ID: id, URL: "https://checkout.stripe.test/" + id}, nil
}

type fakeThumbnails struct {
	uploaded []string
	err      error
}

func (f *fakeThumbnails) Upload(_ context.Context, filename string, content io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	f.uploaded = append(f.uploaded, filename)
	return "https://cdn.test/" + filename, nil
}

type fakeRoles struct {
	mu    sync.Mutex
	roles map[string]string
	calls int
}

func newFakeRoles() *fakeRoles { return &fakeRoles{roles: map[string]string{}} }

func (f *fakeRoles) GetUser(_ context.Context, userID string) (domain.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	role, ok := f.roles[userID]
	if !ok {
		return domain.Identity{}, domain.ErrUserNotFound
	}
	return domain.Identity{UserID: userID, Role: role}, nil
}

func (f *fakeRoles) SetRole(_ context.Context, userID, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[userID] = role
	return nil
}

type testEnv struct {
	db          *gorm.DB
	courses     *repository.CourseRepository
	users       *repository.UserRepository
	enrollments *repository.EnrollmentRepository
	purchases   *repository.PurchaseRepository
	progress    *repository.ProgressRepository

	gateway *fakeGateway
	thumbs  *fakeThumbnails
	roles   *fakeRoles
	mailer  *email.ConsoleService

	catalog    *CourseUseCase
	ratings    *RatingUseCase
	enrollment *EnrollmentUseCase
	tracker    *ProgressUseCase
	educators  *EducatorUseCase
	accounts   *UserUseCase
}

func fastRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.Migrate(db))

	log := logger.NewStdLogger(nil)
	env := &testEnv{
		db:          db,
		courses:     repository.NewCourseRepository(db, nil),
		users:       repository.NewUserRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
		purchases:   repository.NewPurchaseRepository(db),
		progress:    repository.NewProgressRepository(db),
		gateway:     &fakeGateway{},
		thumbs:      &fakeThumbnails{},
		roles:       newFakeRoles(),
		mailer:      email.NewConsoleService(log),
	}
	env.catalog = NewCourseUseCase(env.courses, env.users, env.enrollments, env.thumbs)
	env.ratings = NewRatingUseCase(env.courses, env.enrollments, fastRetry())
	env.enrollment = NewEnrollmentUseCase(env.courses, env.users, env.enrollments, env.purchases,
		env.gateway, env.mailer, log, EnrollmentConfig{FrontendURL: "http://front.test/", Currency: "usd", Retry: fastRetry()})
	env.tracker = NewProgressUseCase(env.courses, env.enrollments, env.progress, fastRetry())
	env.educators = NewEducatorUseCase(env.roles, env.courses, env.users, env.enrollments, env.purchases, env.catalog)
	env.accounts = NewUserUseCase(env.users, env.courses, env.enrollments)
	return env
}

func (env *testEnv) user(t *testing.T, id, name string) *domain.User {
	t.Helper()
	u, err := env.accounts.EnsureUser(context.Background(), domain.Identity{UserID: id, Name: name, Email: id + "@example.com"})
	require.NoError(t, err)
	return u
}

func (env *testEnv) course(t *testing.T, educatorID string, price string, discount int) *domain.Course {
	t.Helper()
	c := &domain.Course{
		ID:          uuid.New(),
		Title:       "Course " + price,
		Description: "<p>Written by someone else entirely</p>",
		Price:       decimal.RequireFromString(price),
		Discount:    discount,
		IsPublished: true,
		EducatorID:  educatorID,
		Content: []domain.Chapter{
			{ID: "ch1", Order: 1, Title: "One", Lectures: []domain.Lecture{
				{ID: "l1", Title: "Intro", Duration: 4, URL: "https://v/l1", IsPreviewFree: true, Order: 1},
				{ID: "l2", Title: "Body", Duration: 6, URL: "https://v/l2", Order: 2},
			}},
			{ID: "ch2", Order: 2, Title: "Two", Lectures: []domain.Lecture{
				{ID: "l3", Title: "Outro", Duration: 10, URL: "https://v/l3", Order: 1},
				{ID: "l4", Title: "Bonus", Duration: 5, URL: "https://v/l4", Order: 2},
			}},
		},
	}
	require.NoError(t, env.courses.Create(context.Background(), c))
	return c
}

func (env *testEnv) enroll(t *testing.T, userID string, courseID uuid.UUID) {
	t.Helper()
	_, err := env.enrollment.Enroll(context.Background(), userID, courseID, nil)
	require.NoError(t, err)
}
