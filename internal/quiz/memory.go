package quiz

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	quizzes map[string]Quiz
	subs    map[string]map[string]Submission // quizID -> studentID -> submission
}

// NewMemoryStore builds an isolated in-memory Store. Construct one per test
// or per process; instances never share state implicitly.
func NewMemoryStore() Store {
	return &memoryStore{
		quizzes: map[string]Quiz{},
		subs:    map[string]map[string]Submission{},
	}
}

func (m *memoryStore) PutQuiz(_ context.Context, q Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quizzes[q.ID] = q
	return nil
}

func (m *memoryStore) GetQuiz(_ context.Context, id string) (Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.quizzes[id]
	if !ok {
		return Quiz{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) ListQuizzes(_ context.Context) ([]Quiz, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Quiz, 0, len(m.quizzes))
	for _, q := range m.quizzes {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, nil
}

func (m *memoryStore) DeleteQuiz(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.quizzes, id)
	// Submissions stay behind as unreachable garbage.
	return nil
}

func (m *memoryStore) GetSubmission(_ context.Context, quizID, studentID string) (Submission, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.subs[quizID][studentID]
	return s, ok, nil
}

func (m *memoryStore) ListSubmissions(_ context.Context, quizID string) ([]Submission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byStudent := m.subs[quizID]
	out := make([]Submission, 0, len(byStudent))
	for _, s := range byStudent {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StudentID < out[j].StudentID })
	return out, nil
}

func (m *memoryStore) PutSubmission(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs[s.QuizID] == nil {
		m.subs[s.QuizID] = map[string]Submission{}
	}
	m.subs[s.QuizID][s.StudentID] = s
	return nil
}
