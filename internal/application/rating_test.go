package application

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waste3d/edemy-api/internal/domain"
)

func TestSubmitRatingReplacesPerUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.course(t, "edu_1", "10", 0)
	env.user(t, "u1", "Ann")
	env.enroll(t, "u1", c.ID)

	require.NoError(t, env.ratings.SubmitRating(ctx, "u1", c.ID.String(), 5))
	require.NoError(t, env.ratings.SubmitRating(ctx, "u1", c.ID.String(), 2))

	course, err := env.courses.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, course.Ratings, 1)
	assert.Equal(t, 2, course.Ratings[0].Value)
	assert.InDelta(t, 2, course.AverageRating(), 1e-9)
}

func TestSubmitRatingRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.course(t, "edu_1", "10", 0)
	env.user(t, "u1", "Ann")

	var verr *domain.ValidationError
	for _, v := range []int{0, 6, -3} {
		assert.ErrorAs(t, env.ratings.SubmitRating(ctx, "u1", c.ID.String(), v), &verr)
	}

	assert.ErrorIs(t, env.ratings.SubmitRating(ctx, "u1", c.ID.String(), 4), domain.ErrNotEnrolled)
	assert.ErrorIs(t, env.ratings.SubmitRating(ctx, "u1", uuid.NewString(), 4), domain.ErrCourseNotFound)

	course, err := env.courses.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, course.Ratings)
}

func TestSubmitRatingConcurrentSubmissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.course(t, "edu_1", "10", 0)
	env.user(t, "u1", "Ann")
	env.enroll(t, "u1", c.ID)

	values := []int{1, 2, 3, 4, 5, 3, 2, 5}
	var wg sync.WaitGroup
	errs := make(chan error, len(values))
	for _, v := range values {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			errs <- env.ratings.SubmitRating(ctx, "u1", c.ID.String(), v)
		}(v)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	course, err := env.courses.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, course.Ratings, 1)
	assert.Contains(t, values, course.Ratings[0].Value)
	assert.InDelta(t, float64(course.Ratings[0].Value), course.AverageRating(), 1e-9)
}
