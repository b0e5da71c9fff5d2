package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	TasksCreated    uint64
	TasksUpdated    uint64
	TasksDeleted    uint64
	TaskCacheHits   uint64
	TaskCacheMisses uint64
	TaskCacheErrors uint64
	StoreDurations  map[string]DurationSummary
}

// DurationSummary is a count and running total for one operation.
type DurationSummary struct {
	Count   uint64
	TotalNs int64
}

// InMemoryRecorder stores metrics in memory for tests and the /metrics endpoint.
type InMemoryRecorder struct {
	tasksCreated    uint64
	tasksUpdated    uint64
	tasksDeleted    uint64
	taskCacheHits   uint64
	taskCacheMisses uint64
	taskCacheErrors uint64

	mu        sync.Mutex
	durations map[string]DurationSummary
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{durations: make(map[string]DurationSummary)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	durations := make(map[string]DurationSummary, len(m.durations))
	for op, d := range m.durations {
		durations[op] = d
	}
	m.mu.Unlock()

	return Snapshot{
		TasksCreated:    atomic.LoadUint64(&m.tasksCreated),
		TasksUpdated:    atomic.LoadUint64(&m.tasksUpdated),
		TasksDeleted:    atomic.LoadUint64(&m.tasksDeleted),
		TaskCacheHits:   atomic.LoadUint64(&m.taskCacheHits),
		TaskCacheMisses: atomic.LoadUint64(&m.taskCacheMisses),
		TaskCacheErrors: atomic.LoadUint64(&m.taskCacheErrors),
		StoreDurations:  durations,
	}
}

// IncTaskCreated increments task created counter.
func (m *InMemoryRecorder) IncTaskCreated() {
	atomic.AddUint64(&m.tasksCreated, 1)
}

// IncTaskUpdated increments task updated counter.
func (m *InMemoryRecorder) IncTaskUpdated() {
	atomic.AddUint64(&m.tasksUpdated, 1)
}

// IncTaskDeleted increments task deleted counter.
func (m *InMemoryRecorder) IncTaskDeleted() {
	atomic.AddUint64(&m.tasksDeleted, 1)
}

// IncTaskCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncTaskCacheHit() {
	atomic.AddUint64(&m.taskCacheHits, 1)
}

// IncTaskCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncTaskCacheMiss() {
	atomic.AddUint64(&m.taskCacheMisses, 1)
}

// IncTaskCacheError increments cache error counter.
func (m *InMemoryRecorder) IncTaskCacheError() {
	atomic.AddUint64(&m.taskCacheErrors, 1)
}

// ObserveStoreDuration records how long a store operation took.
func (m *InMemoryRecorder) ObserveStoreDuration(op string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.durations[op]
	d.Count++
	d.TotalNs += duration.Nanoseconds()
	m.durations[op] = d
}
