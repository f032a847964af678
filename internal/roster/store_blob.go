package roster

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/quiz-mastro/quizmastro/internal/storage"
)

const (
	keyConnections = "connections"
	keyUsers       = "users"
)

// BlobStore keeps the roster in two JSON documents on a key-value blob
// store. Every mutation rewrites the whole document; roster sizes are small
// enough that this stays cheap. Corrupt documents reset to empty rather than
// fail.
type BlobStore struct {
	mu sync.Mutex
	kv storage.KV
}

func NewBlobStore(kv storage.KV) *BlobStore {
	return &BlobStore{kv: kv}
}

func (b *BlobStore) loadConnections() ([]Connection, error) {
	raw, ok, err := b.kv.Get(keyConnections)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var out []Connection
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, nil
	}
	return out, nil
}

func (b *BlobStore) saveConnections(conns []Connection) error {
	raw, err := json.Marshal(conns)
	if err != nil {
		return err
	}
	return b.kv.Set(keyConnections, raw)
}

// blobUser carries the credential hash that User's JSON shape hides from
// API responses.
type blobUser struct {
	User
	PassHash string `json:"pass_hash,omitempty"`
}

func (b *BlobStore) loadUsers() (map[string]User, error) {
	raw, ok, err := b.kv.Get(keyUsers)
	if err != nil {
		return nil, err
	}
	users := map[string]User{}
	if !ok {
		return users, nil
	}
	stored := map[string]blobUser{}
	if err := json.Unmarshal(raw, &stored); err != nil {
		return users, nil
	}
	for id, bu := range stored {
		u := bu.User
		u.PassHash = bu.PassHash
		users[id] = u
	}
	return users, nil
}

func (b *BlobStore) saveUsers(users map[string]User) error {
	stored := make(map[string]blobUser, len(users))
	for id, u := range users {
		stored[id] = blobUser{User: u, PassHash: u.PassHash}
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return b.kv.Set(keyUsers, raw)
}

func (b *BlobStore) InsertConnection(_ context.Context, studentID, teacherID string) (Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	conns, err := b.loadConnections()
	if err != nil {
		return Connection{}, err
	}
	var maxID int64
	for _, c := range conns {
		if c.ID > maxID {
			maxID = c.ID
		}
	}
	c := Connection{ID: maxID + 1, StudentID: studentID, TeacherID: teacherID, CreatedAt: time.Now()}
	conns = append(conns, c)
	return c, b.saveConnections(conns)
}

func (b *BlobStore) DeleteConnection(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	conns, err := b.loadConnections()
	if err != nil {
		return err
	}
	out := conns[:0]
	for _, c := range conns {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return b.saveConnections(out)
}

func (b *BlobStore) ListConnections(_ context.Context) ([]Connection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loadConnections()
}

func (b *BlobStore) PutUser(_ context.Context, u User) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	users, err := b.loadUsers()
	if err != nil {
		return err
	}
	users[u.ID] = u
	return b.saveUsers(users)
}

func (b *BlobStore) GetUser(_ context.Context, id string) (User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users, err := b.loadUsers()
	if err != nil {
		return User{}, err
	}
	u, ok := users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (b *BlobStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users, err := b.loadUsers()
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (b *BlobStore) ListUsers(_ context.Context, role string) ([]User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users, err := b.loadUsers()
	if err != nil {
		return nil, err
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (b *BlobStore) DeleteUser(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	users, err := b.loadUsers()
	if err != nil {
		return err
	}
	delete(users, id)
	return b.saveUsers(users)
}
