package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/metrics"
	"github.com/hamed0406/checkwatch/internal/notify"
	"github.com/hamed0406/checkwatch/internal/repo"
)

// AuditAppender is the write side of the audit log.
type AuditAppender interface {
	Append(name string, line []byte) error
}

// RecordUpdater persists a whole record.
type RecordUpdater interface {
	Update(ctx context.Context, collection, id string, rec repo.Record) error
}

// Decision is what the processor derived from one outcome.
type Decision struct {
	State     domain.State
	Alert     bool
	CheckedAt time.Time
}

// Processor turns a probe outcome into the check's new state. It is the
// only writer of the state and lastChecked fields.
type Processor struct {
	logger   *zap.Logger
	store    RecordUpdater
	logs     AuditAppender
	notifier notify.Notifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewProcessor(
	logger *zap.Logger,
	store RecordUpdater,
	logs AuditAppender,
	notifier notify.Notifier,
	m *metrics.Metrics,
) *Processor {
	return &Processor{
		logger:   logger,
		store:    store,
		logs:     logs,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

// Process derives the state, writes the audit entry, persists the record and
// alerts the owner when a known state flipped. raw is the record exactly as
// read from the store; it is copied, never modified.
//
// The returned Decision is filled even when persisting fails; the error
// means nothing after the audit entry happened for this cycle.
func (p *Processor) Process(ctx context.Context, chk *domain.Check, raw repo.Record, out domain.Outcome) (Decision, error) {
	state := chk.StateFor(out)
	// A check that was never probed has no previous state to compare with.
	alert := !chk.LastChecked.IsZero() && state != chk.State

	now := p.now()
	if now.Before(chk.LastChecked) {
		now = chk.LastChecked
	}
	dec := Decision{State: state, Alert: alert, CheckedAt: now}
	log := p.logger.With(zap.String("check_id", chk.ID))

	line, err := json.Marshal(domain.NewLogEntry(*chk, out, state, alert, now))
	if err == nil {
		err = p.logs.Append(chk.ID, line)
	}
	if err != nil {
		p.metrics.StoreError("audit_append")
		log.Debug("processor_audit_append_error", zap.Error(err))
	}

	rec := raw.Clone()
	rec["state"] = string(state)
	rec["lastChecked"] = now.UnixMilli()
	if err := p.store.Update(ctx, repo.CollectionChecks, chk.ID, rec); err != nil {
		p.metrics.StoreError("update")
		log.Debug("processor_update_error", zap.Error(err))
		return dec, fmt.Errorf("persist check %s: %w", chk.ID, err)
	}

	if !alert {
		log.Debug("processor_state_unchanged", zap.String("state", string(state)))
		return dec, nil
	}

	// Best-effort send; delivery failures are not retried.
	msg := chk.AlertMessage(state)
	if err := p.notifier.Send(ctx, chk.Owner, msg); err != nil {
		p.metrics.Alert("failed")
		log.Warn("processor_alert_error",
			zap.String("state", string(state)),
			zap.Error(err),
		)
		return dec, nil
	}
	p.metrics.Alert("sent")
	log.Info("processor_alert_sent",
		zap.String("target", chk.Describe()),
		zap.String("state", string(state)),
	)
	return dec, nil
}
