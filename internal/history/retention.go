package history

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RetentionJob periodically prunes audit events past their retention
// window. Revisions and field state are exempt from pruning.
type RetentionJob struct {
	store     *Store
	retention time.Duration
	interval  time.Duration
	logger    *zap.Logger
}

// NewRetentionJob creates a pruning job. retention is how long events are
// kept; interval is how often the prune runs.
func NewRetentionJob(store *Store, retention, interval time.Duration, logger *zap.Logger) *RetentionJob {
	return &RetentionJob{store: store, retention: retention, interval: interval, logger: logger}
}

// Run prunes once immediately, then on every interval tick until ctx is
// canceled. Prune failures are logged and the loop keeps going.
func (j *RetentionJob) Run(ctx context.Context) {
	j.prune()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.prune()
		}
	}
}

func (j *RetentionJob) prune() {
	cutoff := time.Now().Add(-j.retention)
	n, err := j.store.PruneHistory(cutoff)
	if err != nil {
		j.logger.Warn("history prune failed", zap.Error(err))
		return
	}
	if n > 0 {
		j.logger.Info("pruned history events",
			zap.Int64("deleted", n),
			zap.Time("cutoff", cutoff))
	}
}
