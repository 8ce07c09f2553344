package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/auditlog"
	"github.com/hamed0406/checkwatch/internal/metrics"
)

// AuditRotation is the maintenance side of the audit log.
type AuditRotation interface {
	List(includeCompressed bool) ([]string, error)
	Compress(src, archive string) error
	Truncate(name string) error
}

// Rotator archives every live audit log and then empties it.
type Rotator struct {
	logger  *zap.Logger
	logs    AuditRotation
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRotator(logger *zap.Logger, logs AuditRotation, m *metrics.Metrics) *Rotator {
	return &Rotator{logger: logger, logs: logs, metrics: m, now: time.Now}
}

// RotateAll handles each live log on its own: one failure leaves that log
// untouched and does not stop the others. Failures are returned combined.
func (r *Rotator) RotateAll(ctx context.Context) error {
	names, err := r.logs.List(false)
	if err != nil {
		r.logger.Warn("rotator_list_error", zap.Error(err))
		return fmt.Errorf("list audit logs: %w", err)
	}
	if len(names) == 0 {
		r.logger.Debug("rotator_nothing_to_rotate")
		return nil
	}

	var errs error
	for _, name := range names {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		errs = multierr.Append(errs, r.rotate(name))
	}
	return errs
}

func (r *Rotator) rotate(name string) error {
	archive := fmt.Sprintf("%s-%d", name, r.now().UnixMilli())

	err := r.logs.Compress(name, archive)
	switch {
	case errors.Is(err, auditlog.ErrEmptyLog):
		r.metrics.Rotation("empty")
		return nil
	case err != nil:
		r.metrics.Rotation("failed")
		r.logger.Warn("rotator_compress_error",
			zap.String("log", name),
			zap.String("archive", archive),
			zap.Error(err),
		)
		return fmt.Errorf("rotate %s: %w", name, err)
	}

	// Only reached once the archive is safely written.
	if err := r.logs.Truncate(name); err != nil {
		r.metrics.Rotation("failed")
		r.logger.Warn("rotator_truncate_error", zap.String("log", name), zap.Error(err))
		return fmt.Errorf("truncate %s: %w", name, err)
	}
	r.metrics.Rotation("archived")
	r.logger.Debug("rotator_archived", zap.String("log", name), zap.String("archive", archive))
	return nil
}
