package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/database"
)

// ProfileRepository persists identity profiles. A user has at most one.
type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Update(ctx context.Context, profile *Profile) error
	Delete(ctx context.Context, id string) error
	RoleForUser(ctx context.Context, userID string) (Role, error)
}

// SQLiteProfileRepository implements ProfileRepository using SQLite.
type SQLiteProfileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new SQLite-backed profile repository.
func NewProfileRepository(db *sql.DB) *SQLiteProfileRepository {
	return &SQLiteProfileRepository{db: db}
}

const profileSelect = `
	SELECT p.id, p.user_id, p.role_id, p.display_name, p.created_at, p.updated_at,
	       u.username, u.email, r.name
	FROM profiles p
	JOIN users u ON u.id = p.user_id
	JOIN roles r ON r.id = p.role_id`

// Create binds a user to a role. The ID is generated if empty.
func (r *SQLiteProfileRepository) Create(ctx context.Context, profile *Profile) error {
	if strings.TrimSpace(profile.UserID) == "" {
		return apperr.Validation("user_id", "user_id is required")
	}
	if strings.TrimSpace(profile.RoleID) == "" {
		return apperr.Validation("role_id", "role_id is required")
	}
	if profile.ID == "" {
		profile.ID = "prf-" + uuid.NewString()[:8]
	}

	_, now := database.Now()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, user_id, role_id, display_name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		profile.ID, profile.UserID, profile.RoleID, database.NullString(profile.DisplayName), now, now,
	)
	if err != nil {
		switch {
		case database.IsUniqueViolation(err):
			return ErrProfileExists
		case database.IsForeignKeyViolation(err):
			return r.referenceError(ctx, profile.UserID, profile.RoleID)
		}
		return fmt.Errorf("creating profile: %w", err)
	}

	created, err := r.GetByID(ctx, profile.ID)
	if err != nil {
		return err
	}
	*profile = *created
	return nil
}

// GetByID retrieves a profile by ID.
func (r *SQLiteProfileRepository) GetByID(ctx context.Context, id string) (*Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx, profileSelect+" WHERE p.id = ?", id))
}

// GetByUserID retrieves the profile bound to userID.
func (r *SQLiteProfileRepository) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	return scanProfile(r.db.QueryRowContext(ctx, profileSelect+" WHERE p.user_id = ?", userID))
}

// List returns all profiles ordered by username.
func (r *SQLiteProfileRepository) List(ctx context.Context) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, profileSelect+" ORDER BY u.username")
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating profiles: %w", err)
	}
	return profiles, nil
}

// Update changes the role and display name of a profile. The bound user
// cannot be changed.
func (r *SQLiteProfileRepository) Update(ctx context.Context, profile *Profile) error {
	_, now := database.Now()
	result, err := r.db.ExecContext(ctx,
		"UPDATE profiles SET role_id = ?, display_name = ?, updated_at = ? WHERE id = ?",
		profile.RoleID, database.NullString(profile.DisplayName), now, profile.ID,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Validation("role_id", "role does not exist")
		}
		return fmt.Errorf("updating profile: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrProfileNotFound
	}

	updated, err := r.GetByID(ctx, profile.ID)
	if err != nil {
		return err
	}
	*profile = *updated
	return nil
}

// Delete removes a profile; the user keeps existing but loses all privileges.
func (r *SQLiteProfileRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting profile: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 { //nolint:errcheck // always succeeds on SQLite
		return ErrProfileNotFound
	}
	return nil
}

// RoleForUser returns the role bound to userID, or ErrProfileNotFound.
func (r *SQLiteProfileRepository) RoleForUser(ctx context.Context, userID string) (Role, error) {
	var name string
	err := r.db.QueryRowContext(ctx,
		"SELECT r.name FROM profiles p JOIN roles r ON r.id = p.role_id WHERE p.user_id = ?", userID,
	).Scan(&name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RoleUnresolved, ErrProfileNotFound
		}
		return RoleUnresolved, fmt.Errorf("resolving role: %w", err)
	}
	return Role(name), nil
}

// referenceError reports which of the two references was dangling.
func (r *SQLiteProfileRepository) referenceError(ctx context.Context, userID, roleID string) error {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id = ?", userID).Scan(&n); err == nil && n == 0 {
		return apperr.Validation("user_id", "user does not exist")
	}
	return apperr.Validation("role_id", "role does not exist")
}

func scanProfile(s database.Scanner) (*Profile, error) {
	var p Profile
	var displayName, email sql.NullString
	var createdAt, updatedAt, roleName string

	err := s.Scan(&p.ID, &p.UserID, &p.RoleID, &displayName, &createdAt, &updatedAt,
		&p.Username, &email, &roleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	p.DisplayName = displayName.String
	p.Email = email.String
	p.CreatedAt = database.ParseTime(createdAt)
	p.UpdatedAt = database.ParseTime(updatedAt)
	p.RoleName = Role(roleName)
	p.RoleDisplayName = p.RoleName.Display()
	return &p, nil
}
