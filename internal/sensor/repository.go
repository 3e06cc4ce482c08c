package sensor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/smartconnect-core/internal/infrastructure/database"
)

// Repository defines sensor persistence and state transitions.
type Repository interface {
	Create(ctx context.Context, in Input) (*Sensor, error)
	Get(ctx context.Context, id string) (*Sensor, error)
	GetByUID(ctx context.Context, uid string) (*Sensor, error)
	List(ctx context.Context) ([]Sensor, error)
	Update(ctx context.Context, id string, in Input) (*Sensor, error)
	SetState(ctx context.Context, id string, state State) (*Sensor, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed sensor repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectSensor = `
	SELECT s.id, s.uid, s.state, s.department_id, d.name,
	       s.associated_user_id, u.username, s.created_at, s.updated_at
	FROM sensors s
	JOIN departments d ON d.id = s.department_id
	LEFT JOIN users u ON u.id = s.associated_user_id`

// Create validates and inserts a sensor. State defaults to Active.
func (r *SQLiteRepository) Create(ctx context.Context, in Input) (*Sensor, error) {
	in, err := normalize(in, true)
	if err != nil {
		return nil, err
	}

	id := "sen-" + uuid.NewString()[:8]
	_, now := database.Now()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sensors (id, uid, state, department_id, associated_user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, in.UID, string(in.State), in.DepartmentID, database.NullStringPtr(in.AssociatedUserID), now, now,
	)
	if err != nil {
		return nil, r.classify(ctx, err, in)
	}
	return r.Get(ctx, id)
}

// Get retrieves a sensor by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Sensor, error) {
	return scanSensor(r.db.QueryRowContext(ctx, selectSensor+" WHERE s.id = ?", id))
}

// GetByUID retrieves a sensor by its RFID UID.
func (r *SQLiteRepository) GetByUID(ctx context.Context, uid string) (*Sensor, error) {
	return scanSensor(r.db.QueryRowContext(ctx, selectSensor+" WHERE s.uid = ?", uid))
}

// List returns all sensors, newest first.
func (r *SQLiteRepository) List(ctx context.Context) ([]Sensor, error) {
	rows, err := r.db.QueryContext(ctx, selectSensor+" ORDER BY s.created_at DESC, s.rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("listing sensors: %w", err)
	}
	defer rows.Close()

	sensors := []Sensor{}
	for rows.Next() {
		s, err := scanSensor(rows)
		if err != nil {
			return nil, err
		}
		sensors = append(sensors, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sensors: %w", err)
	}
	return sensors, nil
}

// Update replaces uid, department and associated user. State is changed
// only when in.State is set. The Lost/user rule is evaluated against the
// row as it is at write time.
func (r *SQLiteRepository) Update(ctx context.Context, id string, in Input) (*Sensor, error) {
	in, err := normalize(in, false)
	if err != nil {
		return nil, err
	}

	state := database.NullString(string(in.State))
	user := database.NullStringPtr(in.AssociatedUserID)
	_, now := database.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE sensors
		SET uid = ?, state = COALESCE(?, state), department_id = ?, associated_user_id = ?, updated_at = ?
		WHERE id = ? AND (COALESCE(?, state) <> 'lost' OR ? IS NULL)`,
		in.UID, state, in.DepartmentID, user, now,
		id, state, user,
	)
	if err != nil {
		return nil, r.classify(ctx, err, in)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return nil, r.missingOr(ctx, id, ErrLostWithUser)
	}
	return r.Get(ctx, id)
}

// SetState applies a lifecycle transition. Moving to Lost fails with
// ErrLostWithUser while a user is associated, leaving the sensor unchanged.
// Setting the current state again is a no-op that still succeeds.
func (r *SQLiteRepository) SetState(ctx context.Context, id string, state State) (*Sensor, error) {
	if !state.IsValid() {
		return nil, fmt.Errorf("setting sensor %s state: %w", id, invalidState(state))
	}
	_, now := database.Now()

	result, err := r.db.ExecContext(ctx, `
		UPDATE sensors SET state = ?, updated_at = ?
		WHERE id = ? AND (? <> 'lost' OR associated_user_id IS NULL)`,
		string(state), now, id, string(state),
	)
	if err != nil {
		if database.IsCheckViolation(err) {
			return nil, ErrLostWithUser
		}
		return nil, fmt.Errorf("setting sensor %s state: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return nil, r.missingOr(ctx, id, ErrLostWithUser)
	}
	return r.Get(ctx, id)
}

// Delete removes a sensor and, through the foreign key, its events.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sensors WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting sensor %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return ErrSensorNotFound
	}
	return nil
}

// missingOr distinguishes "no such sensor" from a rejected conditional update.
func (r *SQLiteRepository) missingOr(ctx context.Context, id string, rejected error) error {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM sensors WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSensorNotFound
	}
	if err != nil {
		return fmt.Errorf("checking sensor %s: %w", id, err)
	}
	return rejected
}

// classify maps constraint failures onto domain errors.
func (r *SQLiteRepository) classify(ctx context.Context, err error, in Input) error {
	switch {
	case database.IsUniqueViolation(err):
		return ErrUIDExists
	case database.IsCheckViolation(err):
		return ErrLostWithUser
	case database.IsForeignKeyViolation(err):
		var one int
		lookup := r.db.QueryRowContext(ctx, "SELECT 1 FROM departments WHERE id = ?", in.DepartmentID).Scan(&one)
		if errors.Is(lookup, sql.ErrNoRows) {
			return ErrUnknownDepartment
		}
		return ErrUnknownUser
	default:
		return fmt.Errorf("writing sensor %s: %w", in.UID, err)
	}
}

func invalidState(s State) error {
	_, err := ParseState(string(s))
	return err
}

func scanSensor(s database.Scanner) (*Sensor, error) {
	var sn Sensor
	var state string
	var userID, username sql.NullString
	var createdAt, updatedAt string

	err := s.Scan(&sn.ID, &sn.UID, &state, &sn.DepartmentID, &sn.DepartmentName,
		&userID, &username, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSensorNotFound
		}
		return nil, fmt.Errorf("scanning sensor: %w", err)
	}
	sn.State = State(state)
	sn.StateDisplay = sn.State.Display()
	sn.AssociatedUserID = database.StringPtr(userID)
	sn.AssociatedUser = database.StringPtr(username)
	sn.CreatedAt = database.ParseTime(createdAt)
	sn.UpdatedAt = database.ParseTime(updatedAt)
	return &sn, nil
}
