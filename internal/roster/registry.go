package roster

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/quiz-mastro/quizmastro/internal/activity"
)

// Store is the persistence contract for users and connections.
type Store interface {
	InsertConnection(ctx context.Context, studentID, teacherID string) (Connection, error)
	DeleteConnection(ctx context.Context, id int64) error
	ListConnections(ctx context.Context) ([]Connection, error)

	PutUser(ctx context.Context, u User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListUsers(ctx context.Context, role string) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// Registry owns connection records and emits an activity entry on every
// link mutation. Duplicate links are the caller's concern: AddConnection
// does not dedupe.
type Registry struct {
	store Store
	log   activity.Log
}

func NewRegistry(store Store, log activity.Log) *Registry {
	if log == nil {
		log = activity.NewMemoryLog()
	}
	return &Registry{store: store, log: log}
}

func (r *Registry) AddConnection(ctx context.Context, studentID, teacherID string) (Connection, error) {
	c, err := r.store.InsertConnection(ctx, studentID, teacherID)
	if err != nil {
		return Connection{}, err
	}
	_ = r.log.Append(ctx, activity.TypeConnectionAssigned, formatID(c.ID), map[string]string{
		"student": r.displayName(ctx, studentID),
		"teacher": r.displayName(ctx, teacherID),
	})
	return c, nil
}

// RemoveConnection deletes the link if present; removing an unknown ID is
// not an error.
func (r *Registry) RemoveConnection(ctx context.Context, id int64) error {
	conns, err := r.store.ListConnections(ctx)
	if err != nil {
		return err
	}
	var found *Connection
	for i := range conns {
		if conns[i].ID == id {
			found = &conns[i]
			break
		}
	}
	if found == nil {
		return nil
	}
	if err := r.store.DeleteConnection(ctx, id); err != nil {
		return err
	}
	_ = r.log.Append(ctx, activity.TypeConnectionRemoved, formatID(id), map[string]string{
		"student": r.displayName(ctx, found.StudentID),
		"teacher": r.displayName(ctx, found.TeacherID),
	})
	return nil
}

func (r *Registry) ConnectionsByStudent(ctx context.Context, studentID string) ([]Connection, error) {
	return r.filter(ctx, func(c Connection) bool { return c.StudentID == studentID })
}

func (r *Registry) ConnectionsByTeacher(ctx context.Context, teacherID string) ([]Connection, error) {
	return r.filter(ctx, func(c Connection) bool { return c.TeacherID == teacherID })
}

func (r *Registry) Connections(ctx context.Context) ([]Connection, error) {
	return r.store.ListConnections(ctx)
}

func (r *Registry) filter(ctx context.Context, keep func(Connection) bool) ([]Connection, error) {
	conns, err := r.store.ListConnections(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Connection, 0, len(conns))
	for _, c := range conns {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// --- user pass-throughs ---

func (r *Registry) PutUser(ctx context.Context, u User) error { return r.store.PutUser(ctx, u) }

func (r *Registry) GetUser(ctx context.Context, id string) (User, error) {
	return r.store.GetUser(ctx, id)
}

func (r *Registry) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return r.store.GetUserByUsername(ctx, username)
}

func (r *Registry) ListUsers(ctx context.Context, role string) ([]User, error) {
	return r.store.ListUsers(ctx, role)
}

func (r *Registry) DeleteUser(ctx context.Context, id string) error {
	return r.store.DeleteUser(ctx, id)
}

// DisplayName resolves a user ID to a name for dashboards; unknown IDs fall
// back to the raw identifier.
func (r *Registry) DisplayName(ctx context.Context, id string) string {
	return r.displayName(ctx, id)
}

func (r *Registry) displayName(ctx context.Context, id string) string {
	u, err := r.store.GetUser(ctx, id)
	if err != nil || u.Name == "" {
		return id
	}
	return u.Name
}

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

// --- in-memory store ---

type memoryStore struct {
	mu     sync.RWMutex
	users  map[string]User
	conns  []Connection
	lastID int64
}

// NewMemoryStore builds an empty in-memory Store. Each instance is an
// isolated context: nothing is shared between instances, and tests construct
// one per case.
func NewMemoryStore() Store {
	return &memoryStore{users: map[string]User{}}
}

func (m *memoryStore) InsertConnection(_ context.Context, studentID, teacherID string) (Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastID++
	c := Connection{ID: m.lastID, StudentID: studentID, TeacherID: teacherID, CreatedAt: time.Now()}
	m.conns = append(m.conns, c)
	return c, nil
}

func (m *memoryStore) DeleteConnection(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.conns[:0]
	for _, c := range m.conns {
		if c.ID != id {
			out = append(out, c)
		}
	}
	m.conns = out
	return nil
}

func (m *memoryStore) ListConnections(_ context.Context) ([]Connection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Connection, len(m.conns))
	copy(out, m.conns)
	return out, nil
}

func (m *memoryStore) PutUser(_ context.Context, u User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	return nil
}

func (m *memoryStore) GetUser(_ context.Context, id string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) GetUserByUsername(_ context.Context, username string) (User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (m *memoryStore) ListUsers(_ context.Context, role string) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		if role == "" || u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (m *memoryStore) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}
