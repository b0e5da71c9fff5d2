package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notes/tarefas/internal/config"
	"github.com/notes/tarefas/internal/model"
	"github.com/notes/tarefas/internal/testutil"
)

func testPool() config.DB {
	return config.DB{
		MaxOpenConns: 4,
		MaxIdleConns: 2,
		PingTimeout:  time.Second,
		QueryTimeout: 5 * time.Second,
	}
}

func newTestRepository(t *testing.T, ctx context.Context) *Repository {
	t.Helper()

	repo, err := New(ctx, "sqlite::memory:", testPool())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestRepository_CreateAndGetTask(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	task := testutil.NewPendingTask(t)
	id, err := repo.CreateTask(ctx, task)
	require.NoError(t, err)
	assert.Positive(t, id)

	loaded, err := repo.GetTask(ctx, id)
	require.NoError(t, err)

	task.ID = id
	if diff := cmp.Diff(task, loaded); diff != "" {
		t.Errorf("task mismatch (-want +got):\n%s", diff)
	}
}

func TestRepository_CreateTask_AssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	first, err := repo.CreateTask(ctx, testutil.NewPendingTask(t))
	require.NoError(t, err)
	second, err := repo.CreateTask(ctx, testutil.NewPendingTask(t))
	require.NoError(t, err)

	assert.Equal(t, first+1, second)
}

func TestRepository_CreateTask_NullDescription(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	task := testutil.NewTestTask(t, 0, "Sem descrição", "", false)
	id, err := repo.CreateTask(ctx, task)
	require.NoError(t, err)

	loaded, err := repo.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, loaded.Description)
}

func TestRepository_GetTask_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	_, err := repo.GetTask(ctx, 999)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRepository_ListTasks(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	empty, err := repo.ListTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	open := testutil.NewTestTask(t, 0, "Aberta", "a", false)
	done := testutil.NewTestTask(t, 0, "Feita", "b", true)
	for _, task := range []*model.Task{open, done} {
		_, err := repo.CreateTask(ctx, task)
		require.NoError(t, err)
	}

	all, err := repo.ListTasks(ctx, TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Aberta", all[0].Title)
	assert.Equal(t, "Feita", all[1].Title)
	assert.Less(t, all[0].ID, all[1].ID)

	completed := true
	onlyDone, err := repo.ListTasks(ctx, TaskFilter{Completed: &completed})
	require.NoError(t, err)
	require.Len(t, onlyDone, 1)
	assert.Equal(t, "Feita", onlyDone[0].Title)

	pending := false
	onlyOpen, err := repo.ListTasks(ctx, TaskFilter{Completed: &pending})
	require.NoError(t, err)
	require.Len(t, onlyOpen, 1)
	assert.Equal(t, "Aberta", onlyOpen[0].Title)
}

func TestRepository_UpdateTask(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	task := testutil.NewPendingTask(t)
	id, err := repo.CreateTask(ctx, task)
	require.NoError(t, err)

	task.ID = id
	task.Title = "Atualizada"
	task.Description = nil
	task.Completed = true
	require.NoError(t, repo.UpdateTask(ctx, task))

	loaded, err := repo.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Atualizada", loaded.Title)
	assert.Nil(t, loaded.Description)
	assert.True(t, loaded.Completed)
	assert.True(t, task.CreatedAt.Equal(loaded.CreatedAt), "creation time must not change")
}

func TestRepository_UpdateTask_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	task := testutil.NewTestTask(t, 42, "Fantasma", "", false)
	assert.ErrorIs(t, repo.UpdateTask(ctx, task), ErrTaskNotFound)
}

func TestRepository_DeleteTask(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	id, err := repo.CreateTask(ctx, testutil.NewPendingTask(t))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteTask(ctx, id))

	_, err = repo.GetTask(ctx, id)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	err = repo.DeleteTask(ctx, id)
	assert.True(t, errors.Is(err, ErrTaskNotFound), "second delete should report not found, got %v", err)
}

func TestRepository_QueryTimeoutHonoursCancelledContext(t *testing.T) {
	repo := newTestRepository(t, context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.ListTasks(ctx, TaskFilter{})
	assert.Error(t, err)
}

func TestRepository_PingAndStats(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, ctx)

	require.NoError(t, repo.Ping(ctx))
	assert.Equal(t, DialectSQLite, repo.Dialect())
	assert.Equal(t, 1, repo.Stats().MaxOpenConnections, "in-memory pool is pinned to one connection")
}
