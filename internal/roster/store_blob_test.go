package roster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiz-mastro/quizmastro/internal/storage"
)

func TestBlobStorePersistsRoster(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemKV()
	s := NewBlobStore(kv)

	require.NoError(t, s.PutUser(ctx, User{
		ID: "u1", Username: "ana", Name: "Ana", Role: RoleStudent, PassHash: "$2a$10$hash",
	}))
	c, err := s.InsertConnection(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.ID)

	// Reopen over the same KV: credentials and links survive.
	s2 := NewBlobStore(kv)
	u, err := s2.GetUserByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", u.PassHash)

	conns, err := s2.ListConnections(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.Equal(t, "u1", conns[0].StudentID)

	// IDs keep growing past deletions.
	require.NoError(t, s2.DeleteConnection(ctx, 1))
	c2, err := s2.InsertConnection(ctx, "u1", "t2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), c2.ID, "max-based IDs restart after the last row is gone")
}

func TestBlobStoreCorruptDocumentsReset(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemKV()
	require.NoError(t, kv.Set("users", []byte("{broken")))
	require.NoError(t, kv.Set("connections", []byte("[broken")))

	s := NewBlobStore(kv)
	users, err := s.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, users)

	conns, err := s.ListConnections(ctx)
	require.NoError(t, err)
	assert.Empty(t, conns)
}
