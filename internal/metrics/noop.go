package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncTaskCreated is a no-op.
func (n *NoopRecorder) IncTaskCreated() {}

// IncTaskUpdated is a no-op.
func (n *NoopRecorder) IncTaskUpdated() {}

// IncTaskDeleted is a no-op.
func (n *NoopRecorder) IncTaskDeleted() {}

// IncTaskCacheHit is a no-op.
func (n *NoopRecorder) IncTaskCacheHit() {}

// IncTaskCacheMiss is a no-op.
func (n *NoopRecorder) IncTaskCacheMiss() {}

// IncTaskCacheError is a no-op.
func (n *NoopRecorder) IncTaskCacheError() {}

// ObserveStoreDuration is a no-op.
func (n *NoopRecorder) ObserveStoreDuration(op string, duration time.Duration) {}
