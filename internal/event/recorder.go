package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/smartconnect-core/internal/infrastructure/database"
	"github.com/nerrad567/smartconnect-core/internal/sensor"
)

// DefaultRecentLimit is how many events Recent returns when n <= 0.
const DefaultRecentLimit = 10

// Recorder validates, stores and queries events.
type Recorder struct {
	db  *sql.DB
	now func() time.Time

	mu        sync.RWMutex
	observers []Observer
}

// NewRecorder creates a Recorder on db.
func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db, now: time.Now}
}

// AddObserver registers o to be told about every stored event.
func (r *Recorder) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Record stores an event through the strict path: the sensor must be
// Active. A nil result is recorded as Permitted.
func (r *Recorder) Record(ctx context.Context, req Request) (*Event, error) {
	if !req.Kind.IsValid() {
		_, err := ParseKind(string(req.Kind))
		return nil, err
	}
	result := ResultPermitted
	if req.Result != nil {
		result = *req.Result
	}
	return r.insert(ctx, req, result, true)
}

// RecordRelaxed stores an event unless the sensor is Blocked or Lost.
// Inactive sensors are accepted. The result must be given.
func (r *Recorder) RecordRelaxed(ctx context.Context, req Request) (*Event, error) {
	if !req.Kind.IsValid() {
		_, err := ParseKind(string(req.Kind))
		return nil, err
	}
	if req.Result == nil {
		return nil, ErrResultRequired
	}
	return r.insert(ctx, req, *req.Result, false)
}

func (r *Recorder) insert(ctx context.Context, req Request, result Result, strict bool) (*Event, error) {
	if !result.IsValid() {
		_, err := ParseResult(string(result))
		return nil, err
	}

	accept := "s.state = 'active'"
	if !strict {
		accept = "s.state NOT IN ('blocked', 'lost')"
	}

	id := "evt-" + uuid.NewString()[:8]
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, sensor_id, kind, result, occurred_at, note)
		SELECT ?, s.id, ?, ?, MAX(?, COALESCE((SELECT MAX(occurred_at) FROM events), 0)), ?
		FROM sensors s
		WHERE s.id = ? AND `+accept,
		id, string(req.Kind), string(result), r.now().UnixMicro(), database.NullString(req.Note),
		req.SensorID,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting event for sensor %s: %w", req.SensorID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return nil, r.rejection(ctx, req.SensorID, strict)
	}

	e, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.notify(ctx, *e)
	return e, nil
}

// rejection explains why the conditional insert stored nothing.
func (r *Recorder) rejection(ctx context.Context, sensorID string, strict bool) error {
	var state string
	err := r.db.QueryRowContext(ctx, "SELECT state FROM sensors WHERE id = ?", sensorID).Scan(&state)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUnknownSensor
	}
	if err != nil {
		return fmt.Errorf("reading sensor %s: %w", sensorID, err)
	}
	return &SensorStateError{State: sensor.State(state), Strict: strict}
}

func (r *Recorder) notify(ctx context.Context, e Event) {
	r.mu.RLock()
	observers := r.observers
	r.mu.RUnlock()
	for _, o := range observers {
		o.EventRecorded(ctx, e)
	}
}

const selectEvent = `
	SELECT e.id, e.sensor_id, s.uid, s.state, e.kind, e.result, e.occurred_at, e.note
	FROM events e
	JOIN sensors s ON s.id = e.sensor_id`

const newestFirst = " ORDER BY e.occurred_at DESC, e.seq DESC"

// Get retrieves an event by ID.
func (r *Recorder) Get(ctx context.Context, id string) (*Event, error) {
	return scanEvent(r.db.QueryRowContext(ctx, selectEvent+" WHERE e.id = ?", id))
}

// List returns every event, newest first.
func (r *Recorder) List(ctx context.Context) ([]Event, error) {
	return r.query(ctx, selectEvent+newestFirst)
}

// Recent returns the n newest events. n <= 0 means DefaultRecentLimit.
func (r *Recorder) Recent(ctx context.Context, n int) ([]Event, error) {
	if n <= 0 {
		n = DefaultRecentLimit
	}
	return r.query(ctx, selectEvent+newestFirst+" LIMIT ?", n)
}

// ForSensor returns a sensor's events, newest first. Events stored in the
// same microsecond come back latest insertion first.
func (r *Recorder) ForSensor(ctx context.Context, sensorID string) ([]Event, error) {
	return r.query(ctx, selectEvent+" WHERE e.sensor_id = ?"+newestFirst, sensorID)
}

func (r *Recorder) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating events: %w", err)
	}
	return events, nil
}

func scanEvent(s database.Scanner) (*Event, error) {
	var e Event
	var state, kind, result string
	var occurredAt int64
	var note sql.NullString

	err := s.Scan(&e.ID, &e.SensorID, &e.SensorUID, &state, &kind, &result, &occurredAt, &note)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("scanning event: %w", err)
	}
	e.SensorState = sensor.State(state)
	e.Kind = Kind(kind)
	e.KindDisplay = e.Kind.Display()
	e.Result = Result(result)
	e.ResultDisplay = e.Result.Display()
	e.OccurredAt = time.UnixMicro(occurredAt).UTC()
	e.Note = note.String
	return &e, nil
}
