package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiz-mastro/quizmastro/internal/quiz"
)

func TestExtractQuestionsStripsProse(t *testing.T) {
	content := "Sure! Here is your quiz:\n```json\n" +
		`[{"text":"What is 2+2?","type":"mcq","difficulty":"easy","options":["3","4"],"correctAnswer":"4"},` +
		`{"text":"Explain gravity.","type":"written","difficulty":"hard"}]` +
		"\n```\nLet me know if you need more."

	items, err := ExtractQuestions(content)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "What is 2+2?", items[0].Text)
	assert.Equal(t, "4", items[0].CorrectAnswer)
	assert.Equal(t, "written", items[1].Type)
}

func TestExtractQuestionsNoArray(t *testing.T) {
	_, err := ExtractQuestions("I could not generate a quiz for that topic.")
	assert.ErrorIs(t, err, ErrNoArray)
}

func TestExtractQuestionsMalformedArray(t *testing.T) {
	_, err := ExtractQuestions(`here you go: [{"text": "oops"`)
	assert.ErrorIs(t, err, ErrNoArray)

	_, err = ExtractQuestions(`[{"text": broken}]`)
	assert.Error(t, err)
}

func TestBuildQuestions(t *testing.T) {
	items := []GeneratedQuestion{
		{Text: "Pick one", Type: "MCQ", Difficulty: "Easy", Options: []string{"a", "b"}, CorrectAnswer: "b"},
		{Text: "Essay", Type: "written", Difficulty: "hard"},
		{Text: "Unknown kind", Type: "truefalse"},
		{Text: "No difficulty", Type: "written"},
	}
	points := PointsTable{
		MCQ:     map[string]float64{"easy": 5},
		Written: map[string]float64{"hard": 25, "medium": 15},
	}

	out := BuildQuestions(items, points)
	require.Len(t, out, 3, "unknown question types are skipped")

	assert.Equal(t, quiz.TypeMCQ, out[0].Type)
	assert.Equal(t, 5.0, out[0].Points)
	assert.NotEmpty(t, out[0].ID)
	require.Len(t, out[0].Options, 2)
	assert.False(t, out[0].Options[0].IsCorrect)
	assert.True(t, out[0].Options[1].IsCorrect)

	assert.Equal(t, 25.0, out[1].Points)

	// Missing difficulty reads as medium.
	assert.Equal(t, 15.0, out[2].Points)
}

func TestBuildQuestionsDefaultPoints(t *testing.T) {
	out := BuildQuestions([]GeneratedQuestion{
		{Text: "q", Type: "mcq", Difficulty: "easy"},
	}, PointsTable{})
	require.Len(t, out, 1)
	assert.Equal(t, 10.0, out[0].Points)
}
