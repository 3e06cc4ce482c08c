package sensor

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
)

func TestParseState(t *testing.T) {
	tests := []struct {
		in      string
		want    State
		wantErr bool
	}{
		{"active", StateActive, false},
		{"INACTIVE", StateInactive, false},
		{" blocked ", StateBlocked, false},
		{"lost", StateLost, false},
		{"perdido", StateLost, false},
		{"", "", true},
		{"broken", "", true},
	}
	for _, tt := range tests {
		got, err := ParseState(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseState(%q) expected error", tt.in)
			} else if !apperrIsInvalidValue(err) {
				t.Errorf("ParseState(%q) error = %v, want InvalidValue", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseState(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
}

func TestState_UnmarshalJSON(t *testing.T) {
	var body struct {
		State State `json:"state"`
	}
	if err := json.Unmarshal([]byte(`{"state":"perdido"}`), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.State != StateLost {
		t.Errorf("State = %q, want lost", body.State)
	}
	if err := json.Unmarshal([]byte(`{"state":"gone"}`), &body); err == nil {
		t.Error("Unmarshal() expected error for unknown state")
	}
}

func TestState_Display(t *testing.T) {
	if got := StateBlocked.Display(); got != "Blocked" {
		t.Errorf("Display() = %q, want Blocked", got)
	}
}

func apperrIsInvalidValue(err error) bool {
	return apperr.FieldOf(err) == "state" && errors.Is(err, apperr.ErrInvalidValue)
}
