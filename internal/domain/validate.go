package domain

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

// ErrInvalidCheck is wrapped by every Validate rejection.
var ErrInvalidCheck = errors.New("invalid check")

const CheckIDLength = 20

var (
	acceptableProtocols = []string{"http", "https"}
	acceptableMethods   = []string{"post", "get", "put", "delete"}
)

// Validate rebuilds a Check from an untyped stored record. The record store
// enforces no schema, so every field is checked again on each cycle.
// State falls back to unknown and LastChecked to zero instead of failing.
func Validate(raw map[string]any) (*Check, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty record", ErrInvalidCheck)
	}

	id, ok := trimmedString(raw, "id")
	if !ok {
		id, ok = trimmedString(raw, "Id")
	}
	if !ok || len(id) != CheckIDLength {
		return nil, invalid("id")
	}
	owner, ok := trimmedString(raw, "userPhone")
	if !ok {
		return nil, invalid("userPhone")
	}
	protocol, ok := trimmedString(raw, "protocol")
	if !ok || !slices.Contains(acceptableProtocols, protocol) {
		return nil, invalid("protocol")
	}
	target, ok := trimmedString(raw, "url")
	if !ok {
		return nil, invalid("url")
	}
	method, ok := raw["method"].(string)
	if !ok || !slices.Contains(acceptableMethods, method) {
		return nil, invalid("method")
	}
	codes, ok := wholeNumbers(raw["successCodes"])
	if !ok || len(codes) == 0 {
		return nil, invalid("successCodes")
	}
	timeout, ok := wholeNumber(raw["timeoutSeconds"])
	if !ok || timeout < 1 || timeout > 5 {
		return nil, invalid("timeoutSeconds")
	}

	chk := &Check{
		ID:             id,
		Owner:          owner,
		Protocol:       protocol,
		URL:            target,
		Method:         method,
		SuccessCodes:   codes,
		TimeoutSeconds: int(timeout),
		State:          StateUnknown,
	}
	if s, _ := raw["state"].(string); s == string(StateUp) || s == string(StateDown) {
		chk.State = State(s)
	}
	if ms, ok := number(raw["lastChecked"]); ok && ms > 0 {
		chk.LastChecked = time.UnixMilli(int64(ms))
	}
	return chk, nil
}

func invalid(field string) error {
	return fmt.Errorf("%w: missing or malformed %s", ErrInvalidCheck, field)
}

func trimmedString(raw map[string]any, key string) (string, bool) {
	s, ok := raw[key].(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// number accepts the numeric shapes the store adapters produce.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func wholeNumber(v any) (int64, bool) {
	f, ok := number(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

func wholeNumbers(v any) ([]int, bool) {
	var items []any
	switch l := v.(type) {
	case []any:
		items = l
	case []int:
		return slices.Clone(l), true
	default:
		return nil, false
	}
	out := make([]int, 0, len(items))
	for _, it := range items {
		n, ok := wholeNumber(it)
		if !ok {
			return nil, false
		}
		out = append(out, int(n))
	}
	return out, true
}

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewCheckID returns a random id of CheckIDLength lowercase alphanumerics.
func NewCheckID() (string, error) {
	buf := make([]byte, CheckIDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	for i, b := range buf {
		buf[i] = idAlphabet[int(b)%len(idAlphabet)]
	}
	return string(buf), nil
}
