package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/logger"
)

func newCache(t *testing.T) (*CourseCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCourseCache(client, logger.NewStdLogger(nil)), mr
}

func TestCourseCache_RoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)

	course := &domain.Course{
		ID:      uuid.New(),
		Title:   "Cached",
		Price:   decimal.RequireFromString("19.99"),
		Ratings: []domain.Rating{{UserID: "u1", Value: 4}},
	}

	_, ok := c.Get(ctx, course.ID)
	assert.False(t, ok)

	c.Set(ctx, course, c.Version(ctx, course.ID))
	assert.True(t, mr.Exists("course:detail:"+course.ID.String()))

	got, ok := c.Get(ctx, course.ID)
	require.True(t, ok)
	assert.Equal(t, "Cached", got.Title)
	assert.True(t, got.Price.Equal(course.Price))
	assert.InDelta(t, 4, got.AverageRating(), 1e-9)

	mr.FastForward(time.Hour + time.Second)
	_, ok = c.Get(ctx, course.ID)
	assert.False(t, ok)
}

func TestCourseCache_Delete(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	course := &domain.Course{ID: uuid.New(), Title: "x"}

	c.Set(ctx, course, c.Version(ctx, course.ID))
	c.Delete(ctx, course.ID)
	assert.False(t, mr.Exists("course:detail:"+course.ID.String()))
	assert.Equal(t, int64(1), c.Version(ctx, course.ID))
}

func TestCourseCache_SetAfterInvalidateIsDropped(t *testing.T) {
	ctx := context.Background()
	c, mr := newCache(t)
	id := uuid.New()

	// a reader loads the course, then a rating write invalidates it before the reader caches
	version := c.Version(ctx, id)
	c.Delete(ctx, id)
	c.Set(ctx, &domain.Course{ID: id, Ratings: []domain.Rating{{UserID: "u1", Value: 1}}}, version)

	assert.False(t, mr.Exists("course:detail:"+id.String()))
	_, ok := c.Get(ctx, id)
	assert.False(t, ok)

	c.Set(ctx, &domain.Course{ID: id, Ratings: []domain.Rating{{UserID: "u1", Value: 5}}}, c.Version(ctx, id))
	got, ok := c.Get(ctx, id)
	require.True(t, ok)
	assert.InDelta(t, 5, got.AverageRating(), 1e-9)
}

func TestCourseCache_RedisDownIsMiss(t *testing.T) {
	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	c := NewCourseCache(client, logger.NewStdLogger(nil))

	_, ok := c.Get(ctx, uuid.New())
	assert.False(t, ok)
	assert.Equal(t, int64(-1), c.Version(ctx, uuid.New()))
}
