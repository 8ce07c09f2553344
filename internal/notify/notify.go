package notify

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Notifier delivers a text alert to one recipient (the check owner's phone).
type Notifier interface {
	Send(ctx context.Context, recipient, message string) error
}

// Multi sends to every notifier and combines their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, recipient, message string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Send(ctx, recipient, message))
	}
	return err
}

// Log writes alerts to the process log. Used when no SMS or chat channel is
// configured so state changes are still visible.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Send(ctx context.Context, recipient, message string) error {
	l.Logger.Info("alert",
		zap.String("recipient", recipient),
		zap.String("message", message),
	)
	return nil
}

// RateLimited holds sends back to a steady rate so a wide outage does not
// flood the SMS provider. Send blocks until a token is free or ctx ends.
type RateLimited struct {
	Inner   Notifier
	limiter *rate.Limiter
}

func NewRateLimited(inner Notifier, perMinute, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	return &RateLimited{Inner: inner, limiter: rate.NewLimiter(limit, burst)}
}

func (r *RateLimited) Send(ctx context.Context, recipient, message string) error {
	if err := r.limiter.Wait(ctx); err != nil {
		return err
	}
	return r.Inner.Send(ctx, recipient, message)
}
