// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/notes/tarefas/internal/model"
)

// Token is the auth token used by HTTP tests.
const Token = "vasco-da-gama"

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

var taskSeq atomic.Int64

// NewTestTask creates a test task with sensible defaults.
func NewTestTask(t testing.TB, id int64, title, description string, completed bool) *model.Task {
	t.Helper()
	return &model.Task{
		ID:          id,
		Title:       title,
		Description: model.StringPtr(description),
		Completed:   completed,
		CreatedAt:   time.Now().UTC().Truncate(time.Microsecond),
	}
}

// NewPendingTask creates a fresh, not yet persisted task with a unique title.
func NewPendingTask(t testing.TB) *model.Task {
	t.Helper()
	return NewTestTask(t, 0, UniqueTitle("Teste"), "Testando", false)
}

// UniqueTitle generates a unique task title for tests.
func UniqueTitle(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, taskSeq.Add(1))
}
