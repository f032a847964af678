package quiz

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiz-mastro/quizmastro/internal/roster"
)

type fakeRoster struct {
	conns []roster.Connection
	names map[string]string
}

func (f *fakeRoster) ConnectionsByTeacher(_ context.Context, teacherID string) ([]roster.Connection, error) {
	var out []roster.Connection
	for _, c := range f.conns {
		if c.TeacherID == teacherID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRoster) ConnectionsByStudent(_ context.Context, studentID string) ([]roster.Connection, error) {
	var out []roster.Connection
	for _, c := range f.conns {
		if c.StudentID == studentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRoster) DisplayName(_ context.Context, id string) string {
	if n, ok := f.names[id]; ok {
		return n
	}
	return id
}

type fixture struct {
	svc    *Service
	store  Store
	roster *fakeRoster
	now    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:  NewMemoryStore(),
		roster: &fakeRoster{names: map[string]string{}},
		now:    baseTime,
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = NewService(f.store, f.roster, log, WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) connect(studentID, teacherID string) {
	f.roster.conns = append(f.roster.conns, roster.Connection{
		ID: int64(len(f.roster.conns) + 1), StudentID: studentID, TeacherID: teacherID,
	})
}

func (f *fixture) createQuiz(t *testing.T) Quiz {
	t.Helper()
	q, err := f.svc.CreateQuiz(context.Background(), Quiz{
		TeacherID:   "t1",
		Title:       "Fractions",
		DurationMin: 30,
		StartTime:   baseTime,
		Questions: []Question{
			{ID: "q-mcq", Type: TypeMCQ, Points: 10, Options: []Option{
				{ID: "o1", Text: "1/2"},
				{ID: "o2", Text: "2/3", IsCorrect: true},
			}},
			{ID: "q-written", Type: TypeWritten, Points: 20},
		},
	})
	require.NoError(t, err)
	return q
}

func TestCreateQuizForcesUnpublished(t *testing.T) {
	f := newFixture(t)
	q, err := f.svc.CreateQuiz(context.Background(), Quiz{
		TeacherID: "t1", DurationMin: 10, Status: StatusPublished,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, q.ID)
	assert.Equal(t, StatusUnpublished, q.Status)
	assert.Equal(t, baseTime.Unix(), q.CreatedAt)
}

func TestCreateQuizRejectsBadDuration(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateQuiz(context.Background(), Quiz{TeacherID: "t1"})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestPublishTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuiz(t)

	q, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, q.Status)

	// Publishing again is a no-op, not an error.
	q, err = f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPublished, q.Status)
}

func TestRefreshQueuesNoShows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	f.connect("s2", "t1")
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)

	// Inside the window nothing moves.
	require.NoError(t, f.svc.RefreshQuizStatus(ctx, q.ID))
	got, _ := f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusPublished, got.Status)

	// s1 submits, s2 never shows up. Past the window the quiz moves to
	// grading and s2 gets queued.
	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{"q-mcq": "o2"}, 300))
	f.now = baseTime.Add(31 * time.Minute)
	require.NoError(t, f.svc.RefreshQuizStatus(ctx, q.ID))

	got, _ = f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusGrading, got.Status)

	sub, ok, err := f.svc.Submission(ctx, q.ID, "s2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusGrading, sub.Status)
	assert.False(t, sub.HasAnswers())
	// Queuing must not invent an attempt for a student who never started.
	assert.Nil(t, sub.StartedAt)
}

func TestZeroSubmissionQuizNeverFinishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)

	f.now = baseTime.Add(time.Hour)
	require.NoError(t, f.svc.CheckAllQuizStatuses(ctx))
	got, _ := f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusGrading, got.Status)

	// Repeated sweeps keep it in grading forever.
	f.now = baseTime.Add(100 * time.Hour)
	require.NoError(t, f.svc.CheckAllQuizStatuses(ctx))
	got, _ = f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusGrading, got.Status)
}

func TestGradingAllSubmissionsFinishesQuiz(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	f.connect("s2", "t1")
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{"q-mcq": "o2"}, 100))
	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s2", map[string]string{"q-mcq": "o1"}, 200))
	f.now = baseTime.Add(time.Hour)
	require.NoError(t, f.svc.RefreshQuizStatus(ctx, q.ID))

	require.NoError(t, f.svc.RecordGrade(ctx, q.ID, "s1", 25))
	got, _ := f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusGrading, got.Status, "one submission still ungraded")

	require.NoError(t, f.svc.RecordGrade(ctx, q.ID, "s2", 10))
	got, _ = f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusFinished, got.Status)

	// finished is terminal.
	require.NoError(t, f.svc.CheckAllQuizStatuses(ctx))
	got, _ = f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusFinished, got.Status)
}

func TestRecordAnswerAccumulatesAndOverwrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuiz(t)

	require.NoError(t, f.svc.RecordAnswer(ctx, q.ID, "s1", "q-mcq", "o1"))
	require.NoError(t, f.svc.RecordAnswer(ctx, q.ID, "s1", "q-written", "an essay"))
	require.NoError(t, f.svc.RecordAnswer(ctx, q.ID, "s1", "q-mcq", "o2"))
	require.NoError(t, f.svc.RecordAnswer(ctx, q.ID, "s1", "q-mcq", "o2"))

	sub, ok, err := f.svc.Submission(ctx, q.ID, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"q-mcq": "o2", "q-written": "an essay"}, sub.Answers)
	assert.Empty(t, sub.Status, "autosave must not change status")
}

func TestSubmitCopiesAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuiz(t)

	answers := map[string]string{"q-mcq": "o2"}
	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", answers, 60))
	answers["q-mcq"] = "o1"

	sub, _, err := f.svc.Submission(ctx, q.ID, "s1")
	require.NoError(t, err)
	assert.Equal(t, "o2", sub.Answers["q-mcq"])
	assert.Equal(t, StatusGrading, sub.Status)
	assert.Equal(t, 60, sub.TimeSpentSec)
	require.NotNil(t, sub.StartedAt)
}

func TestStartQuizKeepsFirstTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuiz(t)

	require.NoError(t, f.svc.StartQuiz(ctx, q.ID, "s1"))
	first := f.now
	f.now = f.now.Add(10 * time.Minute)
	require.NoError(t, f.svc.StartQuiz(ctx, q.ID, "s1"))

	sub, _, err := f.svc.Submission(ctx, q.ID, "s1")
	require.NoError(t, err)
	require.NotNil(t, sub.StartedAt)
	assert.True(t, sub.StartedAt.Equal(first))
}

func TestApplyGradesResolvesPerQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{
		"q-mcq":     "o2",
		"q-written": "long answer",
	}, 120))
	f.now = baseTime.Add(time.Hour)
	require.NoError(t, f.svc.RefreshQuizStatus(ctx, q.ID))

	// MCQ auto-scores to 10; written comes from the saved worksheet score.
	total, err := f.svc.ApplyGrades(ctx, q.ID, "s1",
		map[string]float64{},
		map[string]float64{"q-written": 14},
		map[string]string{"q-written": "good reasoning"})
	require.NoError(t, err)
	assert.Equal(t, 24.0, total)

	sub, _, err := f.svc.Submission(ctx, q.ID, "s1")
	require.NoError(t, err)
	assert.True(t, sub.TeacherGraded)
	require.NotNil(t, sub.Grade)
	assert.Equal(t, 24.0, *sub.Grade)
	assert.Equal(t, 10.0, sub.QuestionScores["q-mcq"])
	assert.Equal(t, 14.0, sub.QuestionScores["q-written"])

	// The lone submitted student is graded, so the quiz completes.
	got, _ := f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusFinished, got.Status)
}

func TestApplyGradesManualOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{"q-mcq": "o2"}, 60))
	f.now = baseTime.Add(time.Hour)

	// Override the correct MCQ down to 3 and hand the written 25 (above its
	// 20 points; overrides are taken verbatim).
	total, err := f.svc.ApplyGrades(ctx, q.ID, "s1",
		map[string]float64{"q-mcq": 3, "q-written": 25}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 28.0, total)
}

func TestQuizzesForStudentFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")

	mine := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, mine.ID)
	require.NoError(t, err)

	// Unpublished quiz from the same teacher: hidden.
	f.createQuiz(t)

	// Published quiz from an unconnected teacher: hidden.
	other, err := f.svc.CreateQuiz(ctx, Quiz{TeacherID: "t2", DurationMin: 15, StartTime: baseTime})
	require.NoError(t, err)
	_, err = f.svc.Publish(ctx, other.ID)
	require.NoError(t, err)

	list, err := f.svc.QuizzesForStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)
	assert.Equal(t, StatusActive, list[0].Status)
}

func TestQuizzesForStudentShowsGrade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{"q-mcq": "o2"}, 60))
	require.NoError(t, f.svc.RecordGrade(ctx, q.ID, "s1", 21))

	list, err := f.svc.QuizzesForStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusFinished, list[0].Status)
	require.NotNil(t, list[0].Grade)
	assert.Equal(t, 21.0, *list[0].Grade)
}

func TestQuizzesForTeacherRunsTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{"q-mcq": "o2"}, 60))

	f.now = baseTime.Add(time.Hour)
	list, err := f.svc.QuizzesForTeacher(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusGrading, list[0].Status)

	// The transition persisted, not just the view.
	got, _ := f.svc.GetQuiz(ctx, q.ID)
	assert.Equal(t, StatusGrading, got.Status)
}

func TestConnectedStudentsQueueOverride(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	f.connect("s2", "t1")
	f.roster.names["s1"] = "Ana"
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{"q-mcq": "o2"}, 60))

	f.now = baseTime.Add(time.Hour)
	require.NoError(t, f.svc.RefreshQuizStatus(ctx, q.ID))

	students, err := f.svc.ConnectedStudents(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, students, 2)

	byID := map[string]ConnectedStudent{}
	for _, st := range students {
		byID[st.StudentID] = st
	}
	assert.Equal(t, "Ana", byID["s1"].Name)
	assert.Equal(t, StatusGrading, byID["s1"].Status)
	assert.True(t, byID["s1"].HasSubmission)
	// No-show reads as grading while the quiz sits in grading.
	assert.Equal(t, StatusGrading, byID["s2"].Status)
	assert.False(t, byID["s2"].HasSubmission)
}

func TestStudentsForGradingRollUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.connect("s1", "t1")
	q := f.createQuiz(t)
	_, err := f.svc.Publish(ctx, q.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{"q-mcq": "o2"}, 60))
	require.NoError(t, f.svc.RecordGrade(ctx, q.ID, "s1", 24))

	rows, err := f.svc.StudentsForGrading(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].IsGraded)
	assert.Equal(t, 24.0, rows[0].Grade)
	assert.Equal(t, 30.0, rows[0].TotalPoints)
	assert.Equal(t, 80, rows[0].Percentage)
}

func TestDeleteQuizOrphansSubmissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := f.createQuiz(t)
	require.NoError(t, f.svc.SubmitQuiz(ctx, q.ID, "s1", map[string]string{"q-mcq": "o2"}, 60))

	require.NoError(t, f.svc.DeleteQuiz(ctx, q.ID))
	_, err := f.svc.GetQuiz(ctx, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// The submission record survives under the dangling quiz ID.
	_, ok, err := f.svc.Submission(ctx, q.ID, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
}
