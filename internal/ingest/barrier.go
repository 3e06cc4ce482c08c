package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/smartconnect-core/internal/barrier"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/mqtt"
)

// BarrierPublisher implements barrier.Publisher over MQTT.
type BarrierPublisher struct {
	transport Transport
}

// NewBarrierPublisher creates a publisher on transport.
func NewBarrierPublisher(transport Transport) *BarrierPublisher {
	return &BarrierPublisher{transport: transport}
}

// PublishBarrierState sends b's state as a retained message.
func (p *BarrierPublisher) PublishBarrierState(_ context.Context, b barrier.Barrier) error {
	payload, err := json.Marshal(BarrierStateMessage{
		BarrierID: b.ID,
		Name:      b.Name,
		State:     string(b.State),
		UpdatedAt: b.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("encoding barrier state: %w", err)
	}
	return p.transport.PublishRetained(mqtt.Topics{}.BarrierState(b.ID), payload)
}
