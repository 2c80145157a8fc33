package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/logger"
)

const (
	courseTTL  = time.Hour
	versionTTL = 24 * time.Hour
)

// CourseCache stores course documents as JSON under course:detail:<id>.
// Every invalidation bumps course:version:<id>; a document read from the
// database before that bump is not written back. Redis failures degrade to
// cache misses.
type CourseCache struct {
	client *redis.Client
	log    logger.Logger
}

func NewCourseCache(client *redis.Client, log logger.Logger) *CourseCache {
	return &CourseCache{client: client, log: log}
}

func courseKey(id uuid.UUID) string  { return "course:detail:" + id.String() }
func versionKey(id uuid.UUID) string { return "course:version:" + id.String() }

func (c *CourseCache) Get(ctx context.Context, id uuid.UUID) (*domain.Course, bool) {
	val, err := c.client.Get(ctx, courseKey(id)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("course cache read failed", err)
		}
		return nil, false
	}
	var course domain.Course
	if err := json.Unmarshal(val, &course); err != nil {
		return nil, false
	}
	return &course, true
}

// Version returns the invalidation counter of the course, -1 when redis is unavailable.
// Read it before loading the course from the database and pass it to Set.
func (c *CourseCache) Version(ctx context.Context, id uuid.UUID) int64 {
	v, err := c.client.Get(ctx, versionKey(id)).Int64()
	if err == redis.Nil {
		return 0
	}
	if err != nil {
		c.log.Warn("course cache version read failed", err)
		return -1
	}
	return v
}

// Set stores the course unless it was invalidated after version was read.
func (c *CourseCache) Set(ctx context.Context, course *domain.Course, version int64) {
	if version < 0 {
		return
	}
	data, err := json.Marshal(course)
	if err != nil {
		return
	}

	vkey := versionKey(course.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, courseKey(course.ID), data, courseTTL)
			return nil
		})
		return err
	}, vkey)
	if err != nil && err != redis.TxFailedErr {
		c.log.Warn("course cache write failed", err)
	}
}

func (c *CourseCache) Delete(ctx context.Context, id uuid.UUID) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(id))
		pipe.Expire(ctx, versionKey(id), versionTTL)
		pipe.Del(ctx, courseKey(id))
		return nil
	})
	if err != nil {
		c.log.Warn("course cache invalidate failed", err)
	}
}
