package handler

import (
	"database/sql"
	"fmt"
	"net/http"
	"sort"

	"github.com/notes/tarefas/internal/metrics"
)

// PoolStatter reports database connection pool statistics.
type PoolStatter interface {
	Stats() sql.DBStats
}

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
	pool        PoolStatter
}

// NewMetricsHandler creates a new MetricsHandler. pool may be nil.
func NewMetricsHandler(snapshotter metrics.Snapshotter, pool PoolStatter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter, pool: pool}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "tarefas_tasks_created_total %d\n", snap.TasksCreated)
	writeMetric(w, "tarefas_tasks_updated_total %d\n", snap.TasksUpdated)
	writeMetric(w, "tarefas_tasks_deleted_total %d\n", snap.TasksDeleted)

	writeMetric(w, "tarefas_task_cache_hits_total %d\n", snap.TaskCacheHits)
	writeMetric(w, "tarefas_task_cache_misses_total %d\n", snap.TaskCacheMisses)
	writeMetric(w, "tarefas_task_cache_errors_total %d\n", snap.TaskCacheErrors)

	ops := make([]string, 0, len(snap.StoreDurations))
	for op := range snap.StoreDurations {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	for _, op := range ops {
		d := snap.StoreDurations[op]
		writeMetric(w, "tarefas_store_duration_seconds_count{op=%q} %d\n", op, d.Count)
		writeMetric(w, "tarefas_store_duration_seconds_sum{op=%q} %.6f\n", op, float64(d.TotalNs)/1e9)
	}

	if h.pool == nil {
		return
	}

	stats := h.pool.Stats()
	writeMetric(w, "tarefas_db_connections_max_open %d\n", stats.MaxOpenConnections)
	writeMetric(w, "tarefas_db_connections_open %d\n", stats.OpenConnections)
	writeMetric(w, "tarefas_db_connections_in_use %d\n", stats.InUse)
	writeMetric(w, "tarefas_db_connections_idle %d\n", stats.Idle)
	writeMetric(w, "tarefas_db_wait_count_total %d\n", stats.WaitCount)
	writeMetric(w, "tarefas_db_wait_duration_seconds_total %.6f\n", stats.WaitDuration.Seconds())
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
