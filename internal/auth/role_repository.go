package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/smartconnect-core/internal/infrastructure/database"
)

// RoleRepository persists role records. The Admin and Operator rows are
// seeded by migration; names never change after creation.
type RoleRepository interface {
	Create(ctx context.Context, role *RoleRecord) error
	GetByID(ctx context.Context, id string) (*RoleRecord, error)
	GetByName(ctx context.Context, name Role) (*RoleRecord, error)
	List(ctx context.Context) ([]RoleRecord, error)
	UpdateDescription(ctx context.Context, id, description string) (*RoleRecord, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteRoleRepository implements RoleRepository using SQLite.
type SQLiteRoleRepository struct {
	db *sql.DB
}

// NewRoleRepository creates a new SQLite-backed role repository.
func NewRoleRepository(db *sql.DB) *SQLiteRoleRepository {
	return &SQLiteRoleRepository{db: db}
}

const roleColumns = "id, name, description, created_at"

// Create inserts a role. Only Admin and Operator are accepted.
func (r *SQLiteRoleRepository) Create(ctx context.Context, role *RoleRecord) error {
	name, err := ParseRole(string(role.Name))
	if err != nil {
		return err
	}
	role.Name = name
	role.DisplayName = name.Display()
	if role.ID == "" {
		role.ID = "rol-" + uuid.NewString()[:8]
	}

	var now string
	role.CreatedAt, now = database.Now()

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO roles (id, name, description, created_at) VALUES (?, ?, ?, ?)",
		role.ID, string(role.Name), database.NullString(role.Description), now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrRoleExists
		}
		return fmt.Errorf("creating role: %w", err)
	}
	return nil
}

// GetByID retrieves a role by ID.
func (r *SQLiteRoleRepository) GetByID(ctx context.Context, id string) (*RoleRecord, error) {
	return scanRole(r.db.QueryRowContext(ctx, "SELECT "+roleColumns+" FROM roles WHERE id = ?", id))
}

// GetByName retrieves a role by name.
func (r *SQLiteRoleRepository) GetByName(ctx context.Context, name Role) (*RoleRecord, error) {
	return scanRole(r.db.QueryRowContext(ctx, "SELECT "+roleColumns+" FROM roles WHERE name = ?", string(name)))
}

// List returns all roles ordered by name.
func (r *SQLiteRoleRepository) List(ctx context.Context) ([]RoleRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+roleColumns+" FROM roles ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	defer rows.Close()

	roles := []RoleRecord{}
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating roles: %w", err)
	}
	return roles, nil
}

// UpdateDescription changes the only mutable field of a role.
func (r *SQLiteRoleRepository) UpdateDescription(ctx context.Context, id, description string) (*RoleRecord, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE roles SET description = ? WHERE id = ?",
		database.NullString(description), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating role: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return nil, ErrRoleNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a role that no profile references.
func (r *SQLiteRoleRepository) Delete(ctx context.Context, id string) error {
	var inUse int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM profiles WHERE role_id = ?", id,
	).Scan(&inUse); err != nil {
		return fmt.Errorf("checking role references: %w", err)
	}
	if inUse > 0 {
		return ErrRoleInUse
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM roles WHERE id = ?", id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrRoleInUse
		}
		return fmt.Errorf("deleting role: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrRoleNotFound
	}
	return nil
}

func scanRole(s database.Scanner) (*RoleRecord, error) {
	var role RoleRecord
	var name, createdAt string
	var description sql.NullString

	if err := s.Scan(&role.ID, &name, &description, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("scanning role: %w", err)
	}
	role.Name = Role(name)
	role.DisplayName = role.Name.Display()
	role.Description = description.String
	role.CreatedAt = database.ParseTime(createdAt)
	return &role, nil
}
