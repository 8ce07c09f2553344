package domain

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

type State string

const (
	StateUnknown State = "unknown"
	StateUp      State = "up"
	StateDown    State = "down"
)

// Check is a validated monitored endpoint. Everything except State and
// LastChecked is owned by the API that created the record.
type Check struct {
	ID             string    `json:"id"`
	Owner          string    `json:"userPhone"`
	Protocol       string    `json:"protocol"`
	URL            string    `json:"url"`
	Method         string    `json:"method"`
	SuccessCodes   []int     `json:"successCodes"`
	TimeoutSeconds int       `json:"timeoutSeconds"`
	State          State     `json:"state"`
	LastChecked    time.Time `json:"-"`
}

// Target returns the absolute URL to probe. Host keeps its port and the raw
// query is carried over untouched.
func (c *Check) Target() (*url.URL, error) {
	u, err := url.Parse(c.Protocol + "://" + c.URL)
	if err != nil {
		return nil, fmt.Errorf("parse target %q: %w", c.URL, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("target %q has no host", c.URL)
	}
	return &url.URL{
		Scheme:   c.Protocol,
		Host:     u.Host,
		Path:     u.Path,
		RawPath:  u.RawPath,
		RawQuery: u.RawQuery,
	}, nil
}

// StateFor derives the monitoring state for one outcome.
func (c *Check) StateFor(out Outcome) State {
	if out.Failure == nil && out.ResponseCode > 0 && slices.Contains(c.SuccessCodes, out.ResponseCode) {
		return StateUp
	}
	return StateDown
}

// Describe is the human-readable target used in alerts, e.g. "GET https://example.com/health".
func (c *Check) Describe() string {
	return strings.ToUpper(c.Method) + " " + c.Protocol + "://" + c.URL
}

// AlertMessage is the text sent to the owner after a state change.
func (c *Check) AlertMessage(state State) string {
	return fmt.Sprintf("Alert: Your check for: %s is currently %s", c.Describe(), state)
}

// MarshalJSON writes lastChecked in the stored unix-millisecond form.
func (c Check) MarshalJSON() ([]byte, error) {
	type plain Check
	var last int64
	if !c.LastChecked.IsZero() {
		last = c.LastChecked.UnixMilli()
	}
	return json.Marshal(struct {
		plain
		LastChecked int64 `json:"lastChecked,omitempty"`
	}{plain(c), last})
}
