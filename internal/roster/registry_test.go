package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiz-mastro/quizmastro/internal/activity"
)

func TestAddAndFilterConnections(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore(), nil)

	c1, err := reg.AddConnection(ctx, "s1", "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c1.ID)
	_, err = reg.AddConnection(ctx, "s2", "t1")
	require.NoError(t, err)
	_, err = reg.AddConnection(ctx, "s1", "t2")
	require.NoError(t, err)

	byTeacher, err := reg.ConnectionsByTeacher(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, byTeacher, 2)

	byStudent, err := reg.ConnectionsByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, byStudent, 2)

	all, err := reg.Connections(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestAddConnectionDoesNotDedupe(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore(), nil)

	_, err := reg.AddConnection(ctx, "s1", "t1")
	require.NoError(t, err)
	_, err = reg.AddConnection(ctx, "s1", "t1")
	require.NoError(t, err)

	conns, err := reg.ConnectionsByTeacher(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, conns, 2)
}

func TestRemoveConnectionIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore(), nil)

	c, err := reg.AddConnection(ctx, "s1", "t1")
	require.NoError(t, err)

	require.NoError(t, reg.RemoveConnection(ctx, c.ID))
	require.NoError(t, reg.RemoveConnection(ctx, c.ID))
	require.NoError(t, reg.RemoveConnection(ctx, 999))

	conns, err := reg.Connections(ctx)
	require.NoError(t, err)
	assert.Empty(t, conns)
}

func TestConnectionMutationsEmitActivity(t *testing.T) {
	ctx := context.Background()
	log := activity.NewMemoryLog()
	reg := NewRegistry(NewMemoryStore(), log)

	require.NoError(t, reg.PutUser(ctx, User{ID: "s1", Username: "ana", Name: "Ana", Role: RoleStudent}))
	c, err := reg.AddConnection(ctx, "s1", "t1")
	require.NoError(t, err)
	require.NoError(t, reg.RemoveConnection(ctx, c.ID))

	events, err := log.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// Most recent first.
	assert.Equal(t, activity.TypeConnectionRemoved, events[0].Type)
	assert.Equal(t, activity.TypeConnectionAssigned, events[1].Type)
	// Names resolve through the user store, unknown IDs stay raw.
	assert.Contains(t, events[1].DataJSON, "Ana")
	assert.Contains(t, events[1].DataJSON, "t1")
}

func TestUserLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(NewMemoryStore(), nil)

	require.NoError(t, reg.PutUser(ctx, User{ID: "u1", Username: "ana", Name: "Ana", Role: RoleStudent}))
	require.NoError(t, reg.PutUser(ctx, User{ID: "u2", Username: "bob", Name: "Bob", Role: RoleTeacher}))

	u, err := reg.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	students, err := reg.ListUsers(ctx, RoleStudent)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "ana", students[0].Username)

	assert.Equal(t, "Bob", reg.DisplayName(ctx, "u2"))
	assert.Equal(t, "ghost", reg.DisplayName(ctx, "ghost"))

	require.NoError(t, reg.DeleteUser(ctx, "u1"))
	_, err = reg.GetUser(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}
