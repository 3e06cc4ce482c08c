package barrier

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/smartconnect-core/internal/infrastructure/database"
)

// Logger is the logging surface used for publish failures.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Repository defines barrier persistence and state transitions.
type Repository interface {
	Create(ctx context.Context, in Input) (*Barrier, error)
	Get(ctx context.Context, id string) (*Barrier, error)
	List(ctx context.Context) ([]Barrier, error)
	ListOpen(ctx context.Context) ([]Barrier, error)
	Update(ctx context.Context, id string, in Input) (*Barrier, error)
	SetState(ctx context.Context, id string, state State) (*Barrier, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db        *sql.DB
	publisher Publisher
	logger    Logger
}

// NewSQLiteRepository creates a new SQLite-backed barrier repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, logger: noopLogger{}}
}

// SetPublisher sets where applied states are sent. Nil disables publishing.
func (r *SQLiteRepository) SetPublisher(p Publisher) {
	r.publisher = p
}

// SetLogger sets the logger for publish failures.
func (r *SQLiteRepository) SetLogger(logger Logger) {
	r.logger = logger
}

const selectBarrier = `
	SELECT b.id, b.name, b.state, b.department_id, d.name, b.created_at, b.updated_at
	FROM barriers b
	LEFT JOIN departments d ON d.id = b.department_id`

// Create validates and inserts a barrier. State defaults to Closed.
func (r *SQLiteRepository) Create(ctx context.Context, in Input) (*Barrier, error) {
	in, err := normalize(in, true)
	if err != nil {
		return nil, err
	}

	id := "bar-" + uuid.NewString()[:8]
	_, now := database.Now()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO barriers (id, name, state, department_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, in.Name, string(in.State), database.NullStringPtr(in.DepartmentID), now, now,
	)
	if err != nil {
		return nil, classify(err, in.Name)
	}
	return r.Get(ctx, id)
}

// Get retrieves a barrier by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Barrier, error) {
	return scanBarrier(r.db.QueryRowContext(ctx, selectBarrier+" WHERE b.id = ?", id))
}

// List returns all barriers ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Barrier, error) {
	return r.query(ctx, selectBarrier+" ORDER BY b.name")
}

// ListOpen returns the barriers currently open, ordered by name.
func (r *SQLiteRepository) ListOpen(ctx context.Context) ([]Barrier, error) {
	return r.query(ctx, selectBarrier+" WHERE b.state = 'open' ORDER BY b.name")
}

// Update replaces name and department. State is changed only when set.
func (r *SQLiteRepository) Update(ctx context.Context, id string, in Input) (*Barrier, error) {
	in, err := normalize(in, false)
	if err != nil {
		return nil, err
	}
	_, now := database.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE barriers SET name = ?, state = COALESCE(?, state), department_id = ?, updated_at = ?
		WHERE id = ?`,
		in.Name, database.NullString(string(in.State)), database.NullStringPtr(in.DepartmentID), now, id,
	)
	if err != nil {
		return nil, classify(err, in.Name)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return nil, ErrBarrierNotFound
	}

	b, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.State != "" {
		r.publish(ctx, b)
	}
	return b, nil
}

// SetState moves the barrier to state. Repeating the current state
// succeeds and leaves it unchanged.
func (r *SQLiteRepository) SetState(ctx context.Context, id string, state State) (*Barrier, error) {
	if !state.IsValid() {
		_, err := ParseState(string(state))
		return nil, err
	}
	_, now := database.Now()

	result, err := r.db.ExecContext(ctx,
		"UPDATE barriers SET state = ?, updated_at = ? WHERE id = ?",
		string(state), now, id,
	)
	if err != nil {
		return nil, fmt.Errorf("setting barrier %s state: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return nil, ErrBarrierNotFound
	}

	b, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.publish(ctx, b)
	return b, nil
}

// Delete removes a barrier.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM barriers WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting barrier %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return ErrBarrierNotFound
	}
	return nil
}

// publish is best effort; the stored state is authoritative.
func (r *SQLiteRepository) publish(ctx context.Context, b *Barrier) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishBarrierState(ctx, *b); err != nil {
		r.logger.Warn("publishing barrier state failed", "barrier_id", b.ID, "state", b.State, "error", err)
	}
}

func (r *SQLiteRepository) query(ctx context.Context, q string, args ...any) ([]Barrier, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing barriers: %w", err)
	}
	defer rows.Close()

	barriers := []Barrier{}
	for rows.Next() {
		b, err := scanBarrier(rows)
		if err != nil {
			return nil, err
		}
		barriers = append(barriers, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating barriers: %w", err)
	}
	return barriers, nil
}

func classify(err error, name string) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrNameExists
	case database.IsForeignKeyViolation(err):
		return ErrUnknownDepartment
	default:
		return fmt.Errorf("writing barrier %q: %w", name, err)
	}
}

func scanBarrier(s database.Scanner) (*Barrier, error) {
	var b Barrier
	var state string
	var departmentID, departmentName sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&b.ID, &b.Name, &state, &departmentID, &departmentName, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBarrierNotFound
		}
		return nil, fmt.Errorf("scanning barrier: %w", err)
	}
	b.State = State(state)
	b.StateDisplay = b.State.Display()
	b.DepartmentID = database.StringPtr(departmentID)
	b.DepartmentName = database.StringPtr(departmentName)
	b.CreatedAt = database.ParseTime(createdAt)
	b.UpdatedAt = database.ParseTime(updatedAt)
	return &b, nil
}
