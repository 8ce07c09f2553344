package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/metrics"
	"github.com/hamed0406/checkwatch/internal/probe"
	"github.com/hamed0406/checkwatch/internal/repo"
)

const (
	DefaultCheckInterval  = time.Minute
	DefaultRotateInterval = 24 * time.Hour
)

type WorkerConfig struct {
	CheckInterval  time.Duration
	RotateInterval time.Duration
	// MaxChecks caps how many checks one cycle dispatches; 0 means no cap.
	MaxChecks int
}

// Status is the last time each loop started a pass.
type Status struct {
	LastCheckCycle time.Time `json:"last_check_cycle"`
	LastRotation   time.Time `json:"last_rotation"`
}

// Worker drives the check loop and the log rotation loop.
type Worker struct {
	logger    *zap.Logger
	store     repo.CheckReader
	prober    probe.Prober
	processor *Processor
	rotator   *Rotator
	metrics   *metrics.Metrics
	cfg       WorkerConfig

	inflight     sync.WaitGroup
	lastCycle    atomic.Int64
	lastRotation atomic.Int64
}

func NewWorker(
	logger *zap.Logger,
	store repo.CheckReader,
	prober probe.Prober,
	processor *Processor,
	rotator *Rotator,
	m *metrics.Metrics,
	cfg WorkerConfig,
) *Worker {
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = DefaultCheckInterval
	}
	if cfg.RotateInterval <= 0 {
		cfg.RotateInterval = DefaultRotateInterval
	}
	if cfg.MaxChecks < 0 {
		cfg.MaxChecks = 0
	}
	return &Worker{
		logger:    logger,
		store:     store,
		prober:    prober,
		processor: processor,
		rotator:   rotator,
		metrics:   m,
		cfg:       cfg,
	}
}

// Run starts both loops. Each runs once immediately and then on its own
// ticker; ticks do not wait for the previous pass. Run returns when ctx is
// cancelled. Pipelines still in flight are not cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker_started",
		zap.Duration("check_interval", w.cfg.CheckInterval),
		zap.Duration("rotate_interval", w.cfg.RotateInterval),
		zap.Int("max_checks", w.cfg.MaxChecks),
	)

	var loops sync.WaitGroup
	loops.Add(2)
	go func() {
		defer loops.Done()
		w.every(ctx, w.cfg.CheckInterval, func(ctx context.Context) { w.RunChecks(ctx) })
	}()
	go func() {
		defer loops.Done()
		w.every(ctx, w.cfg.RotateInterval, w.rotateLogs)
	}()
	loops.Wait()

	w.logger.Info("worker_stopped")
}

func (w *Worker) every(ctx context.Context, interval time.Duration, pass func(context.Context)) {
	t := time.NewTicker(interval)
	defer t.Stop()

	go pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			go pass(ctx)
		}
	}
}

// RunChecks lists every check and starts one pipeline per check. It does not
// wait for them and returns how many were started.
func (w *Worker) RunChecks(ctx context.Context) int {
	log := w.logger.With(zap.String("cycle_id", uuid.NewString()))
	w.lastCycle.Store(time.Now().UnixMilli())

	ids, err := w.store.List(ctx, repo.CollectionChecks)
	if err != nil {
		w.metrics.StoreError("list")
		log.Warn("worker_list_error", zap.Error(err))
		return 0
	}
	if len(ids) == 0 {
		log.Debug("worker_no_checks")
		return 0
	}
	if w.cfg.MaxChecks > 0 && len(ids) > w.cfg.MaxChecks {
		log.Warn("worker_max_checks_exceeded",
			zap.Int("checks", len(ids)),
			zap.Int("max_checks", w.cfg.MaxChecks),
		)
		for range ids[w.cfg.MaxChecks:] {
			w.metrics.Skipped("over_limit")
		}
		ids = ids[:w.cfg.MaxChecks]
	}

	// Shutdown of the loops must not cut a probe short; its own timeout is
	// the only cancellation.
	pipelineCtx := context.WithoutCancel(ctx)
	for _, id := range ids {
		w.inflight.Add(1)
		go w.supervise(pipelineCtx, log, id)
	}
	log.Debug("worker_cycle_dispatched", zap.Int("checks", len(ids)))
	return len(ids)
}

// Wait blocks until every started pipeline has finished.
func (w *Worker) Wait() {
	w.inflight.Wait()
}

func (w *Worker) Status() Status {
	var s Status
	if ms := w.lastCycle.Load(); ms > 0 {
		s.LastCheckCycle = time.UnixMilli(ms)
	}
	if ms := w.lastRotation.Load(); ms > 0 {
		s.LastRotation = time.UnixMilli(ms)
	}
	return s
}

func (w *Worker) supervise(ctx context.Context, log *zap.Logger, id string) {
	defer w.inflight.Done()

	var pc panics.Catcher
	pc.Try(func() { w.runCheck(ctx, log, id) })
	if r := pc.Recovered(); r != nil {
		w.metrics.Skipped("panic")
		log.Error("worker_check_panic",
			zap.String("check_id", id),
			zap.Any("panic", r.Value),
			zap.ByteString("stack", r.Stack),
		)
	}
}

// runCheck is one check's pipeline: read, validate, probe, process.
func (w *Worker) runCheck(ctx context.Context, log *zap.Logger, id string) {
	log = log.With(zap.String("check_id", id))

	raw, err := w.store.Read(ctx, repo.CollectionChecks, id)
	if err != nil {
		w.metrics.StoreError("read")
		log.Debug("worker_read_error", zap.Error(err))
		return
	}
	chk, err := domain.Validate(raw)
	if err != nil {
		w.metrics.Skipped("invalid")
		log.Debug("worker_check_skipped", zap.Error(err))
		return
	}

	start := time.Now()
	out := w.prober.Probe(ctx, chk)
	took := time.Since(start)

	dec, err := w.processor.Process(ctx, chk, raw, out)
	failure := ""
	if out.Failure != nil {
		failure = string(out.Failure.Kind)
	}
	w.metrics.ObserveProbe(string(dec.State), failure, took)
	if err != nil {
		return
	}
	log.Debug("worker_check_processed",
		zap.String("state", string(dec.State)),
		zap.Bool("alert", dec.Alert),
		zap.Int("response_code", out.ResponseCode),
		zap.String("failure", failure),
		zap.Duration("took", took),
	)
}

func (w *Worker) rotateLogs(ctx context.Context) {
	w.lastRotation.Store(time.Now().UnixMilli())
	if err := w.rotator.RotateAll(ctx); err != nil {
		w.logger.Warn("worker_rotation_errors", zap.Error(err))
	}
}
