package event

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
	"github.com/nerrad567/smartconnect-core/internal/sensor"
)

// Kind is what happened at the sensor.
type Kind string

// Event kinds.
const (
	KindAccess      Kind = "access"
	KindManualOpen  Kind = "manual_open"
	KindManualClose Kind = "manual_close"
)

var kindDisplayNames = map[Kind]string{
	KindAccess:      "Sensor access",
	KindManualOpen:  "Manual open",
	KindManualClose: "Manual close",
}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	_, ok := kindDisplayNames[k]
	return ok
}

// Display returns the human-readable kind.
func (k Kind) Display() string {
	if name, ok := kindDisplayNames[k]; ok {
		return name
	}
	return string(k)
}

// ParseKind converts a wire value into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.IsValid() {
		return "", apperr.InvalidValue("kind", fmt.Sprintf("unknown event kind %q; expected access, manual_open or manual_close", s))
	}
	return k, nil
}

// UnmarshalText rejects unknown kinds at decode time.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Result is the outcome of an event.
type Result string

// Event results.
const (
	ResultPermitted Result = "permitted"
	ResultDenied    Result = "denied"
)

// IsValid reports whether r is a known result.
func (r Result) IsValid() bool {
	return r == ResultPermitted || r == ResultDenied
}

// Display returns the human-readable result.
func (r Result) Display() string {
	switch r {
	case ResultPermitted:
		return "Permitted"
	case ResultDenied:
		return "Denied"
	}
	return string(r)
}

// ParseResult converts a wire value into a Result.
func ParseResult(s string) (Result, error) {
	r := Result(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", apperr.InvalidValue("result", fmt.Sprintf("unknown result %q; expected permitted or denied", s))
	}
	return r, nil
}

// UnmarshalText rejects unknown results at decode time.
func (r *Result) UnmarshalText(text []byte) error {
	parsed, err := ParseResult(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Event is one entry of the access log.
type Event struct {
	ID            string       `json:"id"`
	SensorID      string       `json:"sensor_id"`
	SensorUID     string       `json:"sensor_uid"`
	SensorState   sensor.State `json:"sensor_state"`
	Kind          Kind         `json:"kind"`
	KindDisplay   string       `json:"kind_display"`
	Result        Result       `json:"result"`
	ResultDisplay string       `json:"result_display"`
	OccurredAt    time.Time    `json:"occurred_at"`
	Note          string       `json:"note,omitempty"`
}

// Request is a proposed event. A nil Result is filled in by the strict path
// and rejected by the relaxed one.
type Request struct {
	SensorID string
	Kind     Kind
	Result   *Result
	Note     string
}

// Observer is notified after an event has been stored.
type Observer interface {
	EventRecorded(ctx context.Context, e Event)
}
