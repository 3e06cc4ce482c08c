package department

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/smartconnect-core/internal/infrastructure/database"
)

// Repository defines department persistence.
type Repository interface {
	Create(ctx context.Context, d *Department) error
	Get(ctx context.Context, id string) (*Department, error)
	List(ctx context.Context) ([]Department, error)
	Update(ctx context.Context, d *Department) error
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed department repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const selectDepartment = "SELECT id, name, description, created_at, updated_at FROM departments"

// Create validates and inserts a department. The ID is generated if empty.
func (r *SQLiteRepository) Create(ctx context.Context, d *Department) error {
	name, err := ValidateName(d.Name)
	if err != nil {
		return err
	}
	d.Name = name
	d.Description = strings.TrimSpace(d.Description)
	if d.ID == "" {
		d.ID = "dep-" + uuid.NewString()[:8]
	}

	var now string
	d.CreatedAt, now = database.Now()
	d.UpdatedAt = d.CreatedAt

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO departments (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		d.ID, d.Name, database.NullString(d.Description), now, now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrNameExists
		}
		return fmt.Errorf("inserting department %s: %w", d.ID, err)
	}
	return nil
}

// Get retrieves a department by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Department, error) {
	return scanDepartment(r.db.QueryRowContext(ctx, selectDepartment+" WHERE id = ?", id))
}

// List returns all departments ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Department, error) {
	rows, err := r.db.QueryContext(ctx, selectDepartment+" ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	defer rows.Close()

	departments := []Department{}
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating departments: %w", err)
	}
	return departments, nil
}

// Update changes name and description.
func (r *SQLiteRepository) Update(ctx context.Context, d *Department) error {
	name, err := ValidateName(d.Name)
	if err != nil {
		return err
	}
	d.Name = name
	d.Description = strings.TrimSpace(d.Description)

	var now string
	d.UpdatedAt, now = database.Now()

	result, err := r.db.ExecContext(ctx,
		"UPDATE departments SET name = ?, description = ?, updated_at = ? WHERE id = ?",
		d.Name, database.NullString(d.Description), now, d.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrNameExists
		}
		return fmt.Errorf("updating department %s: %w", d.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return ErrDepartmentNotFound
	}

	stored, err := r.Get(ctx, d.ID)
	if err != nil {
		return err
	}
	*d = *stored
	return nil
}

// Delete removes a department that owns no sensors or barriers.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	var refs int
	if err := r.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM sensors WHERE department_id = ?)
		      + (SELECT COUNT(*) FROM barriers WHERE department_id = ?)`,
		id, id,
	).Scan(&refs); err != nil {
		return fmt.Errorf("counting references to department %s: %w", id, err)
	}
	if refs > 0 {
		return ErrDepartmentInUse
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM departments WHERE id = ?", id)
	if err != nil {
		// A sensor created between the count and the delete still trips the FK.
		if database.IsForeignKeyViolation(err) {
			return ErrDepartmentInUse
		}
		return fmt.Errorf("deleting department %s: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n == 0 { //nolint:errcheck // SQLite always supports RowsAffected
		return ErrDepartmentNotFound
	}
	return nil
}

func scanDepartment(s database.Scanner) (*Department, error) {
	var d Department
	var description sql.NullString
	var createdAt, updatedAt string

	if err := s.Scan(&d.ID, &d.Name, &description, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("scanning department: %w", err)
	}
	d.Description = description.String
	d.CreatedAt = database.ParseTime(createdAt)
	d.UpdatedAt = database.ParseTime(updatedAt)
	return &d, nil
}
