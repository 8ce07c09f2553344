package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/checkwatch/internal/domain"
)

var _ Prober = (*HTTPProber)(nil)

type HTTPProber struct {
	Client *http.Client

	// timeoutUnit scales Check.TimeoutSeconds; tests shrink it.
	timeoutUnit time.Duration
}

// NewHTTPProber returns a prober that does not follow redirects: a 3xx is
// the response code of the check.
func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		Client: &http.Client{
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeoutUnit: time.Second,
	}
}

// Probe races the response, a transport error and the check timeout.
// Whichever settles first is returned and the request is cancelled.
func (p *HTTPProber) Probe(ctx context.Context, chk *domain.Check) domain.Outcome {
	target, err := chk.Target()
	if err != nil {
		return domain.FailureOutcome(domain.FailureNetwork, err.Error())
	}

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, strings.ToUpper(chk.Method), target.String(), http.NoBody)
	if err != nil {
		return domain.FailureOutcome(domain.FailureNetwork, err.Error())
	}

	unit := p.timeoutUnit
	if unit <= 0 {
		unit = time.Second
	}
	timeout := time.Duration(chk.TimeoutSeconds) * unit
	slot := newSettler()

	timer := time.AfterFunc(timeout, func() {
		if slot.settle(domain.FailureOutcome(domain.FailureTimeout, fmt.Sprintf("no response within %s", timeout))) {
			cancel()
		}
	})
	defer timer.Stop()

	go func() {
		resp, err := p.Client.Do(req)
		if err != nil {
			kind := domain.FailureNetwork
			if isTimeout(err) {
				kind = domain.FailureTimeout
			}
			slot.settle(domain.FailureOutcome(kind, err.Error()))
			return
		}
		resp.Body.Close()
		slot.settle(domain.ResponseOutcome(resp.StatusCode))
	}()

	return <-slot.done()
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
