package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"crewboard-api/domain"
)

type backend interface {
	ListLanes(ctx context.Context, projectID string) ([]domain.Lane, error)
	ListTasks(ctx context.Context, projectID string) ([]domain.Task, error)
	ApplyBoard(ctx context.Context, projectID string, w domain.BoardWrite) error
	DeleteProject(ctx context.Context, id string) error
}

// Cache wraps a Storage instance with Redis-backed caching for board reads.
// Board reads dominate the request mix; entity collections are small and
// read straight from the table.
type Cache struct {
	*Storage
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching Storage wrapper using the provided Redis client and TTL.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}

	c := &Cache{
		base:  base,
		redis: client,
		ttl:   ttl,
	}
	if s, ok := base.(*Storage); ok {
		c.Storage = s
	}
	return c
}

func (c *Cache) ListLanes(ctx context.Context, projectID string) ([]domain.Lane, error) {
	if lanes, ok := c.loadLanesFromCache(ctx, projectID); ok {
		return lanes, nil
	}

	lanes, err := c.base.ListLanes(ctx, projectID)
	if err != nil {
		return nil, err
	}

	c.storeLanes(ctx, projectID, lanes)
	return lanes, nil
}

func (c *Cache) ListTasks(ctx context.Context, projectID string) ([]domain.Task, error) {
	if tasks, ok := c.loadTasksFromCache(ctx, projectID); ok {
		return tasks, nil
	}

	tasks, err := c.base.ListTasks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	c.storeTasks(ctx, projectID, tasks)
	return tasks, nil
}

func (c *Cache) ApplyBoard(ctx context.Context, projectID string, w domain.BoardWrite) error {
	if err := c.base.ApplyBoard(ctx, projectID, w); err != nil {
		return err
	}

	c.evict(ctx, projectID)
	return nil
}

// DeleteProject cascades through the backing storage and drops the
// project's cached board so a deleted board cannot be served until the
// TTL runs out.
func (c *Cache) DeleteProject(ctx context.Context, id string) error {
	if err := c.base.DeleteProject(ctx, id); err != nil {
		return err
	}

	c.evict(ctx, id)
	return nil
}

func (c *Cache) loadLanesFromCache(ctx context.Context, projectID string) ([]domain.Lane, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, lanesCacheKey(projectID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, lanesCacheKey(projectID)).Err()
		}
		return nil, false
	}
	var lanes []domain.Lane
	if err := json.Unmarshal(data, &lanes); err != nil {
		_ = c.redis.Del(ctx, lanesCacheKey(projectID)).Err()
		return nil, false
	}
	return lanes, true
}

func (c *Cache) loadTasksFromCache(ctx context.Context, projectID string) ([]domain.Task, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, tasksCacheKey(projectID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			_ = c.redis.Del(ctx, tasksCacheKey(projectID)).Err()
		}
		return nil, false
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		_ = c.redis.Del(ctx, tasksCacheKey(projectID)).Err()
		return nil, false
	}
	return tasks, true
}

func (c *Cache) storeLanes(ctx context.Context, projectID string, lanes []domain.Lane) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(lanes)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, lanesCacheKey(projectID), data, c.ttl).Err()
}

func (c *Cache) storeTasks(ctx context.Context, projectID string, tasks []domain.Task) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, tasksCacheKey(projectID), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, projectID string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, lanesCacheKey(projectID), tasksCacheKey(projectID)).Result()
}

func lanesCacheKey(projectID string) string {
	return "lanes:" + projectID
}

func tasksCacheKey(projectID string) string {
	return "tasks:" + projectID
}
