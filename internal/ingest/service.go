package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nerrad567/smartconnect-core/internal/event"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/smartconnect-core/internal/sensor"
)

const handleTimeout = 5 * time.Second

// Transport is the subset of the MQTT client the service needs.
type Transport interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	PublishDefault(topic string, payload []byte) error
	PublishRetained(topic string, payload []byte) error
}

// SensorLookup finds a sensor by its UID.
type SensorLookup interface {
	GetByUID(ctx context.Context, uid string) (*sensor.Sensor, error)
}

// EventRecorder is the event write surface used for reader reports.
type EventRecorder interface {
	Record(ctx context.Context, req event.Request) (*event.Event, error)
	RecordRelaxed(ctx context.Context, req event.Request) (*event.Event, error)
}

// Service turns reader access reports into events and decisions.
type Service struct {
	transport Transport
	sensors   SensorLookup
	events    EventRecorder
	logger    *slog.Logger
	qos       byte

	ctx context.Context //nolint:containedctx // lifetime of the subscription
	now func() time.Time
}

// NewService creates a reader ingest service.
func NewService(transport Transport, sensors SensorLookup, events EventRecorder, qos byte, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		transport: transport,
		sensors:   sensors,
		events:    events,
		logger:    logger,
		qos:       qos,
		ctx:       context.Background(),
		now:       time.Now,
	}
}

// Start subscribes to every reader's access topic. Handlers run until ctx
// is cancelled; messages arriving afterwards fail fast.
func (s *Service) Start(ctx context.Context) error {
	s.ctx = ctx
	if err := s.transport.Subscribe(mqtt.Topics{}.AllReaderAccess(), s.qos, s.HandleAccess); err != nil {
		return fmt.Errorf("subscribing to reader access: %w", err)
	}
	s.logger.Info("reader ingest started", "topic", mqtt.Topics{}.AllReaderAccess())
	return nil
}

// HandleAccess processes one access report.
func (s *Service) HandleAccess(topic string, payload []byte) error {
	uid, ok := mqtt.Topics{}.ReaderUID(topic)
	if !ok {
		return fmt.Errorf("unexpected reader topic %q", topic)
	}

	var report AccessReport
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &report); err != nil {
			return fmt.Errorf("decoding access report from %s: %w", uid, err)
		}
	}

	ctx, cancel := context.WithTimeout(s.ctx, handleTimeout)
	defer cancel()

	decision, err := s.decide(ctx, uid, report)
	if err != nil {
		return err
	}
	return s.publishDecision(decision)
}

func (s *Service) decide(ctx context.Context, uid string, report AccessReport) (Decision, error) {
	d := Decision{UID: uid, Result: string(event.ResultDenied), DecidedAt: s.now().UTC()}

	sn, err := s.sensors.GetByUID(ctx, uid)
	if errors.Is(err, sensor.ErrSensorNotFound) {
		s.logger.Warn("access report from unknown reader", "uid", uid)
		d.Reason = "unknown sensor"
		return d, nil
	}
	if err != nil {
		return d, fmt.Errorf("looking up reader %s: %w", uid, err)
	}

	req := event.Request{SensorID: sn.ID, Kind: event.KindAccess, Note: report.Note}
	e, err := s.events.Record(ctx, req)
	if err == nil {
		d.Result = string(e.Result)
		d.EventID = e.ID
		d.SensorState = string(sn.State)
		s.logger.Info("access permitted", "uid", uid, "sensor_id", sn.ID, "event_id", e.ID)
		return d, nil
	}

	var rejected *event.SensorStateError
	if !errors.As(err, &rejected) {
		return d, fmt.Errorf("recording access from %s: %w", uid, err)
	}
	d.SensorState = string(rejected.State)
	d.Reason = "sensor is " + rejected.State.Display()

	if rejected.State != sensor.StateInactive {
		s.logger.Warn("access refused without event", "uid", uid, "sensor_id", sn.ID, "state", rejected.State)
		return d, nil
	}

	denied := event.ResultDenied
	req.Result = &denied
	e, err = s.events.RecordRelaxed(ctx, req)
	if err != nil {
		return d, fmt.Errorf("recording denial from %s: %w", uid, err)
	}
	d.EventID = e.ID
	s.logger.Info("access denied", "uid", uid, "sensor_id", sn.ID, "event_id", e.ID, "state", rejected.State)
	return d, nil
}

func (s *Service) publishDecision(d Decision) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding decision: %w", err)
	}
	if err := s.transport.PublishDefault(mqtt.Topics{}.ReaderDecision(d.UID), payload); err != nil {
		return fmt.Errorf("publishing decision to %s: %w", d.UID, err)
	}
	return nil
}
