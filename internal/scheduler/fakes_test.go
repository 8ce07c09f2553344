package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/repo"
	"github.com/hamed0406/checkwatch/internal/repo/memory"
)

// ---- shared helpers ----

const testID = "abcdefghij0123456789"

var fixedNow = time.Date(2025, 8, 18, 12, 0, 0, 0, time.UTC)

// events records the order in which collaborators were touched.
type events struct {
	mu  sync.Mutex
	seq []string
}

func (e *events) add(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq = append(e.seq, s)
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.seq...)
}

type fakeStore struct {
	*memory.Store
	ev        *events
	updateErr error

	mu      sync.Mutex
	updates int
}

func newFakeStore(ev *events) *fakeStore {
	return &fakeStore{Store: memory.New(), ev: ev}
}

func (f *fakeStore) Update(ctx context.Context, collection, id string, rec repo.Record) error {
	f.mu.Lock()
	f.updates++
	f.mu.Unlock()
	if f.ev != nil {
		f.ev.add("update")
	}
	if f.updateErr != nil {
		return f.updateErr
	}
	return f.Store.Update(ctx, collection, id, rec)
}

func (f *fakeStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updates
}

type fakeLogs struct {
	ev  *events
	err error

	mu    sync.Mutex
	lines map[string][][]byte
}

func (f *fakeLogs) Append(name string, line []byte) error {
	if f.ev != nil {
		f.ev.add("append")
	}
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lines == nil {
		f.lines = map[string][][]byte{}
	}
	f.lines[name] = append(f.lines[name], append([]byte(nil), line...))
	return nil
}

func (f *fakeLogs) entries(t *testing.T, name string) []domain.LogEntry {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.LogEntry
	for _, l := range f.lines[name] {
		var e struct {
			State   domain.State   `json:"state"`
			Alert   bool           `json:"alert"`
			Time    int64          `json:"time"`
			Outcome domain.Outcome `json:"outcome"`
		}
		if err := json.Unmarshal(l, &e); err != nil {
			t.Fatalf("bad log line %s: %v", l, err)
		}
		out = append(out, domain.LogEntry{State: e.State, Alert: e.Alert, Time: e.Time, Outcome: e.Outcome})
	}
	return out
}

type sentAlert struct{ recipient, message string }

type fakeNotifier struct {
	ev  *events
	err error

	mu   sync.Mutex
	sent []sentAlert
}

func (f *fakeNotifier) Send(ctx context.Context, recipient, message string) error {
	if f.ev != nil {
		f.ev.add("notify")
	}
	f.mu.Lock()
	f.sent = append(f.sent, sentAlert{recipient, message})
	f.mu.Unlock()
	return f.err
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func checkRecord(id string, patch map[string]any) repo.Record {
	rec := repo.Record{
		"id":             id,
		"userPhone":      "5551234567",
		"protocol":       "https",
		"url":            "example.com/health",
		"method":         "get",
		"successCodes":   []any{float64(200), float64(201)},
		"timeoutSeconds": float64(1),
	}
	for k, v := range patch {
		rec[k] = v
	}
	return rec
}

func mustValidate(t *testing.T, rec repo.Record) *domain.Check {
	t.Helper()
	chk, err := domain.Validate(rec)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return chk
}

var errBoom = errors.New("boom")
