package domain

import "time"

type FailureKind string

const (
	FailureNetwork FailureKind = "network"
	FailureTimeout FailureKind = "timeout"
)

type Failure struct {
	Kind   FailureKind `json:"kind"`
	Detail string      `json:"detail,omitempty"`
}

// Outcome is the result of one probe. A settled outcome carries either a
// response code or a failure, never both.
type Outcome struct {
	ResponseCode int      `json:"responseCode,omitempty"`
	Failure      *Failure `json:"error,omitempty"`
}

func ResponseOutcome(code int) Outcome { return Outcome{ResponseCode: code} }

func FailureOutcome(kind FailureKind, detail string) Outcome {
	return Outcome{Failure: &Failure{Kind: kind, Detail: detail}}
}

func (o Outcome) Settled() bool {
	return (o.ResponseCode > 0) != (o.Failure != nil)
}

// LogEntry is one line of a check's audit log.
type LogEntry struct {
	Check   Check   `json:"check"`
	Outcome Outcome `json:"outcome"`
	State   State   `json:"state"`
	Alert   bool    `json:"alert"`
	Time    int64   `json:"time"` // unix ms
}

func NewLogEntry(chk Check, out Outcome, state State, alert bool, at time.Time) LogEntry {
	return LogEntry{Check: chk, Outcome: out, State: state, Alert: alert, Time: at.UnixMilli()}
}
