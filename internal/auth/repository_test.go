package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
	"github.com/nerrad567/smartconnect-core/internal/infrastructure/database"
	"github.com/nerrad567/smartconnect-core/internal/testutil"
)

type repos struct {
	db       *database.DB
	users    *SQLiteUserRepository
	roles    *SQLiteRoleRepository
	profiles *SQLiteProfileRepository
}

func newRepos(t *testing.T) repos {
	t.Helper()
	db := testutil.OpenDB(t)
	return repos{
		db:       db,
		users:    NewUserRepository(db.DB),
		roles:    NewRoleRepository(db.DB),
		profiles: NewProfileRepository(db.DB),
	}
}

func seedUser(t *testing.T, r repos, username string) *User {
	t.Helper()
	u := &User{Username: username, Email: username + "@example.com"}
	require.NoError(t, r.users.Create(t.Context(), u))
	return u
}

func seedProfile(t *testing.T, r repos, user *User, role Role) *Profile {
	t.Helper()
	rec, err := r.roles.GetByName(t.Context(), role)
	require.NoError(t, err)
	p := &Profile{UserID: user.ID, RoleID: rec.ID}
	require.NoError(t, r.profiles.Create(t.Context(), p))
	return p
}

func TestRoleRepository_SeededRoles(t *testing.T) {
	r := newRepos(t)

	roles, err := r.roles.List(t.Context())
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, RoleAdmin, roles[0].Name)
	assert.Equal(t, "Administrator", roles[0].DisplayName)
	assert.Equal(t, RoleOperator, roles[1].Name)

	err = r.roles.Create(t.Context(), &RoleRecord{Name: RoleOperator})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	err = r.roles.Create(t.Context(), &RoleRecord{Name: "owner"})
	assert.ErrorIs(t, err, apperr.ErrInvalidValue)
}

func TestRoleRepository_UpdateAndProtectedDelete(t *testing.T) {
	r := newRepos(t)
	alice := seedUser(t, r, "alice")
	seedProfile(t, r, alice, RoleOperator)

	operator, err := r.roles.GetByName(t.Context(), RoleOperator)
	require.NoError(t, err)

	updated, err := r.roles.UpdateDescription(t.Context(), operator.ID, "Gate staff")
	require.NoError(t, err)
	assert.Equal(t, "Gate staff", updated.Description)
	assert.Equal(t, RoleOperator, updated.Name, "name is immutable")

	assert.ErrorIs(t, r.roles.Delete(t.Context(), operator.ID), ErrRoleInUse)

	admin, err := r.roles.GetByName(t.Context(), RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, r.roles.Delete(t.Context(), admin.ID))
	assert.ErrorIs(t, r.roles.Delete(t.Context(), admin.ID), ErrRoleNotFound)

	_, err = r.roles.UpdateDescription(t.Context(), "rol-missing", "x")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestUserRepository_CRUD(t *testing.T) {
	r := newRepos(t)

	alice := seedUser(t, r, "alice")
	assert.Regexp(t, `^usr-[0-9a-f]{8}$`, alice.ID)

	err := r.users.Create(t.Context(), &User{Username: "alice"})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	err = r.users.Create(t.Context(), &User{Username: "   "})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "username", apperr.FieldOf(err))

	got, err := r.users.GetByUsername(t.Context(), "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)

	count, err := r.users.Count(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, r.users.Delete(t.Context(), alice.ID))
	_, err = r.users.GetByID(t.Context(), alice.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.ErrorIs(t, r.users.Delete(t.Context(), alice.ID), ErrUserNotFound)
}

func TestProfileRepository_OnePerUser(t *testing.T) {
	r := newRepos(t)
	alice := seedUser(t, r, "alice")

	p := seedProfile(t, r, alice, RoleOperator)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, RoleOperator, p.RoleName)
	assert.Equal(t, "Operator", p.RoleDisplayName)

	admin, err := r.roles.GetByName(t.Context(), RoleAdmin)
	require.NoError(t, err)
	err = r.profiles.Create(t.Context(), &Profile{UserID: alice.ID, RoleID: admin.ID})
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestProfileRepository_DanglingReferences(t *testing.T) {
	r := newRepos(t)
	alice := seedUser(t, r, "alice")

	err := r.profiles.Create(t.Context(), &Profile{UserID: "usr-ghost", RoleID: "rol-operator"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "user_id", apperr.FieldOf(err))

	err = r.profiles.Create(t.Context(), &Profile{UserID: alice.ID, RoleID: "rol-ghost"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "role_id", apperr.FieldOf(err))

	err = r.profiles.Create(t.Context(), &Profile{RoleID: "rol-operator"})
	assert.Equal(t, "user_id", apperr.FieldOf(err))
}

func TestProfileRepository_UpdateDeleteAndRoleForUser(t *testing.T) {
	r := newRepos(t)
	alice := seedUser(t, r, "alice")
	p := seedProfile(t, r, alice, RoleOperator)

	role, err := r.profiles.RoleForUser(t.Context(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, RoleOperator, role)

	admin, err := r.roles.GetByName(t.Context(), RoleAdmin)
	require.NoError(t, err)
	p.RoleID = admin.ID
	p.DisplayName = "Alice A."
	require.NoError(t, r.profiles.Update(t.Context(), p))
	assert.Equal(t, RoleAdmin, p.RoleName)
	assert.Equal(t, "Alice A.", p.DisplayName)

	list, err := r.profiles.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, r.profiles.Delete(t.Context(), p.ID))
	_, err = r.profiles.RoleForUser(t.Context(), alice.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, r.profiles.Update(t.Context(), p), ErrProfileNotFound)
}

func TestUserDeletionCascadesToProfile(t *testing.T) {
	r := newRepos(t)
	alice := seedUser(t, r, "alice")
	p := seedProfile(t, r, alice, RoleOperator)

	require.NoError(t, r.users.Delete(t.Context(), alice.ID))

	_, err := r.profiles.GetByID(t.Context(), p.ID)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}
