package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/auditlog"
	"github.com/hamed0406/checkwatch/internal/config"
	"github.com/hamed0406/checkwatch/internal/httpapi"
	"github.com/hamed0406/checkwatch/internal/logging"
	"github.com/hamed0406/checkwatch/internal/metrics"
	"github.com/hamed0406/checkwatch/internal/notify"
	"github.com/hamed0406/checkwatch/internal/probe"
	"github.com/hamed0406/checkwatch/internal/repo"
	"github.com/hamed0406/checkwatch/internal/repo/file"
	"github.com/hamed0406/checkwatch/internal/repo/memory"
	"github.com/hamed0406/checkwatch/internal/repo/postgres"
	"github.com/hamed0406/checkwatch/internal/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeStore()

	logs, err := auditlog.New(cfg.AuditLogDir)
	if err != nil {
		logger.Fatal("audit_log_open_failed", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	processor := scheduler.NewProcessor(logger, store, logs, buildNotifier(cfg, logger), m)
	rotator := scheduler.NewRotator(logger, logs, m)
	worker := scheduler.NewWorker(logger, store, probe.NewHTTPProber(), processor, rotator, m, scheduler.WorkerConfig{
		CheckInterval:  cfg.CheckInterval,
		RotateInterval: cfg.RotateInterval,
		MaxChecks:      cfg.MaxChecks,
	})

	var ops *http.Server
	if cfg.OpsAddr != "" {
		ops = &http.Server{
			Addr:              cfg.OpsAddr,
			Handler:           httpapi.NewServer(logger, logs, worker, reg).Router(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("ops_listen", zap.String("addr", cfg.OpsAddr))
			if err := ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops_listen_failed", zap.Error(err))
			}
		}()
	}

	worker.Run(ctx)

	if ops != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = ops.Shutdown(shutdownCtx)
	}
	logger.Info("worker_stop")
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.New(), func() {}, nil
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		s, err := file.New(cfg.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}
}

// buildNotifier fans out to every configured channel and falls back to
// logging alerts when none is configured.
func buildNotifier(cfg config.Config, logger *zap.Logger) notify.Notifier {
	var out notify.Multi
	if sms := notify.NewTwilio(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone); sms != nil {
		out = append(out, sms)
	}
	if slack := notify.NewSlack(cfg.SlackWebhook); slack != nil {
		out = append(out, slack)
	}
	if len(out) == 0 {
		logger.Warn("notify_no_channel_configured")
		return notify.Log{Logger: logger}
	}
	return notify.NewRateLimited(out, cfg.AlertsPerMinute, cfg.AlertBurst)
}
