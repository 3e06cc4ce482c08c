package barrier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/smartconnect-core/internal/apperr"
	"github.com/nerrad567/smartconnect-core/internal/testutil"
)

type recordingPublisher struct {
	states []State
	err    error
}

func (p *recordingPublisher) PublishBarrierState(_ context.Context, b Barrier) error {
	p.states = append(p.states, b.State)
	return p.err
}

func setup(t *testing.T) *SQLiteRepository {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.Exec(t, db, `INSERT INTO departments (id, name) VALUES ('dep-lobby', 'Lobby')`)
	return NewSQLiteRepository(db.DB)
}

func ptr(s string) *string { return &s }

func TestCreate(t *testing.T) {
	repo := setup(t)

	b, err := repo.Create(t.Context(), Input{Name: " North gate ", DepartmentID: ptr("dep-lobby")})
	require.NoError(t, err)
	assert.Regexp(t, `^bar-[0-9a-f]{8}$`, b.ID)
	assert.Equal(t, "North gate", b.Name)
	assert.Equal(t, StateClosed, b.State, "created closed by default")
	assert.Equal(t, "Closed", b.StateDisplay)
	require.NotNil(t, b.DepartmentName)
	assert.Equal(t, "Lobby", *b.DepartmentName)

	loose, err := repo.Create(t.Context(), Input{Name: "Dock"})
	require.NoError(t, err)
	assert.Nil(t, loose.DepartmentID, "department is optional")

	_, err = repo.Create(t.Context(), Input{Name: "North gate"})
	assert.ErrorIs(t, err, ErrNameExists)

	_, err = repo.Create(t.Context(), Input{Name: "ab"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, "name", apperr.FieldOf(err))

	_, err = repo.Create(t.Context(), Input{Name: "South gate", DepartmentID: ptr("dep-nope")})
	assert.ErrorIs(t, err, ErrUnknownDepartment)
}

func TestSetState_IdempotentAndPublished(t *testing.T) {
	repo := setup(t)
	pub := &recordingPublisher{}
	repo.SetPublisher(pub)

	b, err := repo.Create(t.Context(), Input{Name: "North gate"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := repo.SetState(t.Context(), b.ID, StateOpen)
		require.NoError(t, err)
		assert.Equal(t, StateOpen, got.State)
	}

	open, err := repo.ListOpen(t.Context())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, b.ID, open[0].ID)

	got, err := repo.SetState(t.Context(), b.ID, StateClosed)
	require.NoError(t, err)
	assert.Equal(t, StateClosed, got.State)
	assert.Equal(t, []State{StateOpen, StateOpen, StateClosed}, pub.states)

	open, err = repo.ListOpen(t.Context())
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestSetState_Errors(t *testing.T) {
	repo := setup(t)
	b, err := repo.Create(t.Context(), Input{Name: "North gate"})
	require.NoError(t, err)

	_, err = repo.SetState(t.Context(), b.ID, "ajar")
	assert.ErrorIs(t, err, apperr.ErrInvalidValue)
	assert.Equal(t, "state", apperr.FieldOf(err))

	_, err = repo.SetState(t.Context(), "bar-missing", StateOpen)
	assert.ErrorIs(t, err, ErrBarrierNotFound)
}

func TestSetState_PublishFailureDoesNotFail(t *testing.T) {
	repo := setup(t)
	repo.SetPublisher(&recordingPublisher{err: errors.New("broker down")})

	b, err := repo.Create(t.Context(), Input{Name: "North gate"})
	require.NoError(t, err)

	got, err := repo.SetState(t.Context(), b.ID, StateOpen)
	require.NoError(t, err)
	assert.Equal(t, StateOpen, got.State)
}

func TestUpdateListDelete(t *testing.T) {
	repo := setup(t)
	a, err := repo.Create(t.Context(), Input{Name: "Zeta gate"})
	require.NoError(t, err)
	_, err = repo.Create(t.Context(), Input{Name: "Alpha gate"})
	require.NoError(t, err)

	got, err := repo.Update(t.Context(), a.ID, Input{Name: "Beta gate", DepartmentID: ptr("dep-lobby")})
	require.NoError(t, err)
	assert.Equal(t, "Beta gate", got.Name)
	assert.Equal(t, StateClosed, got.State)

	list, err := repo.List(t.Context())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Alpha gate", list[0].Name)

	_, err = repo.Update(t.Context(), a.ID, Input{Name: "Alpha gate"})
	assert.ErrorIs(t, err, ErrNameExists)

	require.NoError(t, repo.Delete(t.Context(), a.ID))
	assert.ErrorIs(t, repo.Delete(t.Context(), a.ID), ErrBarrierNotFound)
	_, err = repo.Update(t.Context(), a.ID, Input{Name: "Gamma gate"})
	assert.ErrorIs(t, err, ErrBarrierNotFound)
}

func TestParseState(t *testing.T) {
	s, err := ParseState(" OPEN ")
	require.NoError(t, err)
	assert.Equal(t, StateOpen, s)

	_, err = ParseState("abierta")
	assert.ErrorIs(t, err, apperr.ErrInvalidValue)
}
