package ingest

import "time"

// AccessReport is the optional body of a reader access message.
type AccessReport struct {
	Note string `json:"note,omitempty"`
}

// Decision is published back to the reader.
type Decision struct {
	UID         string    `json:"uid"`
	Result      string    `json:"result"`
	EventID     string    `json:"event_id,omitempty"`
	SensorState string    `json:"sensor_state,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	DecidedAt   time.Time `json:"decided_at"`
}

// BarrierStateMessage is the retained barrier state for gate controllers.
type BarrierStateMessage struct {
	BarrierID string    `json:"barrier_id"`
	Name      string    `json:"name"`
	State     string    `json:"state"`
	UpdatedAt time.Time `json:"updated_at"`
}
