package rtsp

import (
	"context"
	"log/slog"
	"time"

	"github.com/e7canasta/rtsp-launch/internal/metrics"
)

// ReapInterval is the fixed cadence of the session reaper.
const ReapInterval = 5 * time.Second

// Reaper periodically asks the session pool to evict expired sessions.
// It has no terminal condition of its own; it runs until the context is
// cancelled, which in practice means process termination.
type Reaper struct {
	pool     *Pool
	interval time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewReaper creates a reaper over the given pool. metrics may be nil.
func NewReaper(pool *Pool, m *metrics.Metrics) *Reaper {
	return &Reaper{
		pool:     pool,
		interval: ReapInterval,
		metrics:  m,
		now:      time.Now,
	}
}

// Run blocks, reaping every interval, until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	slog.Debug("rtsp: session reaper scheduled", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			slog.Debug("rtsp: session reaper stopped")
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

// reap runs one cleanup pass. Eviction is silent apart from debug logging
// and metrics; expiry is the normal end of an abandoned session.
func (r *Reaper) reap() {
	n := r.pool.Cleanup(r.now())
	if n == 0 {
		return
	}
	slog.Debug("rtsp: reaped expired sessions", "count", n, "remaining", r.pool.Len())
	if r.metrics != nil {
		r.metrics.RecordSessionsReaped(n)
	}
}
