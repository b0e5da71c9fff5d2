package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/notes/tarefas/internal/model"
)

const taskKeyPrefix = "tarefa:"

// Common cache errors.
var (
	ErrCacheMiss = errors.New("cache miss")
)

// GetTask retrieves a task from cache by ID.
// Returns ErrCacheMiss if not found.
func (c *Cache) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	raw, err := c.client.Get(ctx, taskKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	task, err := decodeTask(raw)
	if err != nil {
		// A corrupt entry is dropped and treated as a miss.
		c.client.Del(ctx, taskKey(id))
		return nil, ErrCacheMiss
	}

	return task, nil
}

// SetTask stores a task in cache.
func (c *Cache) SetTask(ctx context.Context, task *model.Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	if err := c.client.Set(ctx, taskKey(task.ID), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache task: %w", err)
	}

	return nil
}

// DeleteTask removes a task from cache.
func (c *Cache) DeleteTask(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, taskKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete task from cache: %w", err)
	}
	return nil
}

func taskKey(id int64) string {
	return taskKeyPrefix + strconv.FormatInt(id, 10)
}

// taskIDFromKey is the inverse of taskKey.
func taskIDFromKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, taskKeyPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func decodeTask(raw []byte) (*model.Task, error) {
	var task model.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return nil, err
	}
	if task.ID <= 0 {
		return nil, errors.New("cached task without id")
	}
	task.CreatedAt = task.CreatedAt.UTC()
	return &task, nil
}

// PurgeTasks removes every cached task and returns how many were dropped.
// Used at startup: an in-memory database restarts its id sequence, so entries
// left by a previous process would alias new tasks.
func (c *Cache) PurgeTasks(ctx context.Context) (int, error) {
	var cursor uint64
	purged := 0

	for {
		keys, next, err := c.client.Scan(ctx, cursor, taskKeyPrefix+"*", 100).Result()
		if err != nil {
			return purged, fmt.Errorf("failed to scan task keys: %w", err)
		}

		stale := keys[:0]
		for _, key := range keys {
			if _, ok := taskIDFromKey(key); ok {
				stale = append(stale, key)
			}
		}

		if len(stale) > 0 {
			n, err := c.client.Del(ctx, stale...).Result()
			if err != nil {
				return purged, fmt.Errorf("failed to purge task keys: %w", err)
			}
			purged += int(n)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return purged, nil
}
