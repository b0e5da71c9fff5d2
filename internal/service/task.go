// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/notes/tarefas/internal/cache"
	"github.com/notes/tarefas/internal/metrics"
	"github.com/notes/tarefas/internal/model"
	"github.com/notes/tarefas/internal/repository"
)

// Service errors.
var (
	ErrTaskNotFound = errors.New("task not found")
	ErrTitleMissing = errors.New("title is required")
	ErrTitleTooLong = errors.New("title too long")
)

// TaskStore is the persistence contract the service depends on.
type TaskStore interface {
	ListTasks(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	CreateTask(ctx context.Context, task *model.Task) (int64, error)
	UpdateTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

// TaskCache is an optional read-through cache keyed by task ID.
// GetTask must return cache.ErrCacheMiss when the entry is absent.
type TaskCache interface {
	GetTask(ctx context.Context, id int64) (*model.Task, error)
	SetTask(ctx context.Context, task *model.Task) error
	DeleteTask(ctx context.Context, id int64) error
}

// defaultLoadTimeout bounds a shared cache-miss load, which outlives the
// request that started it.
const defaultLoadTimeout = 30 * time.Second

// generationStripes is the number of write generation counters. Tasks share
// a counter by ID modulo this value.
const generationStripes = 256

// TaskService handles task business logic.
type TaskService struct {
	store   TaskStore
	cache   TaskCache
	metrics metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time

	loads       singleflight.Group
	loadTimeout time.Duration
	// gens is bumped by every update and delete; a backfill is dropped when
	// its stripe moved while the row was being read.
	gens [generationStripes]atomic.Uint64
}

type loadResult struct {
	task *model.Task
	gen  uint64
}

// NewTaskService creates a new TaskService. Pass a nil cache to disable caching.
func NewTaskService(store TaskStore, taskCache TaskCache, recorder metrics.Recorder, logger *slog.Logger) *TaskService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		store:   store,
		cache:   taskCache,
		metrics: recorder,
		logger:  logger,
		now:     time.Now,

		loadTimeout: defaultLoadTimeout,
	}
}

// CreateTaskInput defines input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description *string
}

// UpdateTaskInput defines the full replacement of a task's mutable fields.
type UpdateTaskInput struct {
	Title       string
	Description *string
	Completed   bool
}

// ListTasks returns tasks ordered by ID. A nil Completed filter lists all tasks.
func (s *TaskService) ListTasks(ctx context.Context, filter repository.TaskFilter) ([]model.Task, error) {
	defer s.observe("list", s.now())

	tasks, err := s.store.ListTasks(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// GetTask retrieves a task by ID, consulting the cache first when one is configured.
func (s *TaskService) GetTask(ctx context.Context, id int64) (*model.Task, error) {
	if s.cache == nil {
		return s.load(ctx, id)
	}

	cached, err := s.cache.GetTask(ctx, id)
	switch {
	case err == nil:
		s.metrics.IncTaskCacheHit()
		return cached, nil
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.IncTaskCacheMiss()
	default:
		// Redis error - fall through to the database
		s.metrics.IncTaskCacheError()
		s.logger.Warn("task cache read failed", "task_id", id, "error", err)
	}

	// Concurrent misses for one ID share a single database read.
	gen := s.generation(id)
	ch := s.loads.DoChan(taskKey(id), func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.loadTimeout)
		defer cancel()

		task, err := s.load(loadCtx, id)
		if err != nil {
			return nil, err
		}
		s.backfill(loadCtx, task, gen)
		return loadResult{task: task, gen: gen}, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	loaded := res.Val.(loadResult)
	if loaded.gen != gen {
		// Joined a load that started before a write this caller must observe.
		return s.load(ctx, id)
	}

	// Callers may mutate the result; keep shared values private.
	task := *loaded.task
	return &task, nil
}

// CreateTask persists a new, not yet completed task and returns it as stored.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:       title,
		Description: input.Description,
		Completed:   false,
		CreatedAt:   s.now().UTC().Truncate(time.Microsecond),
	}

	start := s.now()
	id, err := s.store.CreateTask(ctx, task)
	s.observe("create", start)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.metrics.IncTaskCreated()

	created, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read created task: %w", err)
	}

	return created, nil
}

// UpdateTask replaces title, description and completion of an existing task.
// The creation timestamp is preserved.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, input UpdateTaskInput) (*model.Task, error) {
	title, err := validateTitle(input.Title)
	if err != nil {
		return nil, err
	}

	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	task.Title = title
	task.Description = input.Description
	task.Completed = input.Completed

	start := s.now()
	err = s.store.UpdateTask(ctx, task)
	s.observe("update", start)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.metrics.IncTaskUpdated()
	s.invalidate(ctx, id)

	return task, nil
}

// DeleteTask removes an existing task.
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}

	start := s.now()
	err := s.store.DeleteTask(ctx, id)
	s.observe("delete", start)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.metrics.IncTaskDeleted()
	s.invalidate(ctx, id)

	return nil
}

// load reads a task from the store and maps not-found to the service error.
func (s *TaskService) load(ctx context.Context, id int64) (*model.Task, error) {
	defer s.observe("get", s.now())

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// invalidate drops the cached entry after a write. The generation bump comes
// first so an in-flight backfill of the previous row is discarded, and the
// in-flight load is forgotten so later readers start a fresh one.
func (s *TaskService) invalidate(ctx context.Context, id int64) {
	s.gens[uint64(id)%generationStripes].Add(1)
	s.loads.Forget(taskKey(id))

	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteTask(ctx, id); err != nil {
		// Log but don't fail - the entry expires with its TTL
		s.metrics.IncTaskCacheError()
		s.logger.Warn("task cache invalidation failed", "task_id", id, "error", err)
	}
}

// backfill stores a freshly loaded row unless a write for the same stripe
// happened since gen was read. The second check removes an entry written
// concurrently with a write whose invalidation may already have run.
func (s *TaskService) backfill(ctx context.Context, task *model.Task, gen uint64) {
	if s.generation(task.ID) != gen {
		return
	}
	if err := s.cache.SetTask(ctx, task); err != nil {
		s.metrics.IncTaskCacheError()
		s.logger.Warn("task cache backfill failed", "task_id", task.ID, "error", err)
		return
	}
	if s.generation(task.ID) != gen {
		if err := s.cache.DeleteTask(ctx, task.ID); err != nil {
			s.metrics.IncTaskCacheError()
			s.logger.Warn("task cache invalidation failed", "task_id", task.ID, "error", err)
		}
	}
}

func (s *TaskService) generation(id int64) uint64 {
	return s.gens[uint64(id)%generationStripes].Load()
}

func taskKey(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *TaskService) observe(op string, start time.Time) {
	s.metrics.ObserveStoreDuration(op, s.now().Sub(start))
}

// validateTitle enforces presence and length. The title is stored as given.
func validateTitle(title string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", ErrTitleMissing
	}
	if utf8.RuneCountInString(title) > model.MaxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}
