package probe

import (
	"context"
	"sync"

	"github.com/hamed0406/checkwatch/internal/domain"
)

// Prober performs exactly one outbound request for a check and reports
// exactly one outcome.
type Prober interface {
	Probe(ctx context.Context, chk *domain.Check) domain.Outcome
}

// settler is a single-assignment outcome slot. The first settle wins; every
// later call is dropped and reports false.
type settler struct {
	once sync.Once
	ch   chan domain.Outcome
}

func newSettler() *settler {
	return &settler{ch: make(chan domain.Outcome, 1)}
}

func (s *settler) settle(out domain.Outcome) bool {
	won := false
	s.once.Do(func() {
		s.ch <- out
		won = true
	})
	return won
}

func (s *settler) done() <-chan domain.Outcome { return s.ch }
