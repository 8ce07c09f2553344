// cmd/preflight/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/auditlog"
	"github.com/hamed0406/checkwatch/internal/config"
	"github.com/hamed0406/checkwatch/internal/repo"
	"github.com/hamed0406/checkwatch/internal/repo/file"
	"github.com/hamed0406/checkwatch/internal/repo/postgres"
)

func main() {
	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load()
	if err != nil {
		fail("config: " + err.Error())
	}
	ok(fmt.Sprintf("CHECK_INTERVAL=%s ROTATE_INTERVAL=%s", cfg.CheckInterval, cfg.RotateInterval))

	if _, err := auditlog.New(cfg.AuditLogDir); err != nil {
		fail("AUDIT_LOG_DIR not writable: " + err.Error())
	}
	ok("AUDIT_LOG_DIR=" + cfg.AuditLogDir)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch cfg.StoreDriver {
	case config.DriverMemory:
		warn("STORE_DRIVER=memory; checks vanish on restart.")
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DatabaseURL, zap.NewNop())
		if err != nil {
			fail("DATABASE_URL unreachable: " + err.Error())
		}
		defer s.Close()
		reportChecks(ctx, s, ok, fail)
	default:
		s, err := file.New(cfg.DataDir)
		if err != nil {
			fail("DATA_DIR not usable: " + err.Error())
		}
		reportChecks(ctx, s, ok, fail)
	}

	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromPhone == "" {
		warn("Twilio credentials incomplete; SMS alerts disabled.")
	} else {
		ok("Twilio credentials present")
	}
	if cfg.SlackWebhook == "" {
		warn("SLACK_WEBHOOK empty; Slack alerts disabled.")
	} else {
		ok("SLACK_WEBHOOK present")
	}

	if cfg.OpsAddr == "" {
		warn("OPS_ADDR empty; /healthz and /metrics are not served.")
	} else {
		ok("OPS_ADDR=" + cfg.OpsAddr)
	}

	ok("preflight passed")
}

func reportChecks(ctx context.Context, s repo.Store, ok, fail func(string)) {
	ids, err := s.List(ctx, repo.CollectionChecks)
	if err != nil {
		fail("list checks: " + err.Error())
	}
	ok(fmt.Sprintf("%d check(s) in store", len(ids)))
}
