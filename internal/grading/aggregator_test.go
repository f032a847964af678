package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreMCQ(t *testing.T) {
	q := Q{Type: "mcq", Points: 10, CorrectOption: "opt-2"}

	assert.Equal(t, 10.0, Score(q, Entry{Response: "opt-2"}))
	assert.Equal(t, 0.0, Score(q, Entry{Response: "opt-1"}))
	assert.Equal(t, 0.0, Score(q, Entry{Response: ""}))
}

func TestScoreWrittenUsesSaved(t *testing.T) {
	q := Q{Type: "written", Points: 10}

	assert.Equal(t, 7.5, Score(q, Entry{Response: "an essay", Saved: 7.5}))
	assert.Equal(t, 0.0, Score(q, Entry{Response: "an essay"}))
}

func TestScoreManualOverrideWins(t *testing.T) {
	mcq := Q{Type: "mcq", Points: 10, CorrectOption: "opt-2"}
	written := Q{Type: "written", Points: 10}

	// Correct MCQ answer, overridden down.
	assert.Equal(t, 4.0, Score(mcq, Entry{Response: "opt-2", Manual: 4}))
	// Override above the question's points is taken verbatim.
	assert.Equal(t, 15.0, Score(written, Entry{Saved: 3, Manual: 15}))
	// Negative override is also taken verbatim.
	assert.Equal(t, -2.0, Score(written, Entry{Manual: -2}))
}

func TestScoreManualZeroMeansUnset(t *testing.T) {
	q := Q{Type: "mcq", Points: 10, CorrectOption: "opt-2"}

	// Manual 0 is the unset sentinel, so auto-scoring still applies.
	assert.Equal(t, 10.0, Score(q, Entry{Response: "opt-2", Manual: ManualUnset}))
}

func TestTotal(t *testing.T) {
	qs := []Q{
		{Type: "mcq", Points: 10, CorrectOption: "a"},
		{Type: "written", Points: 20},
		{Type: "mcq", Points: 5, CorrectOption: "b"},
	}
	es := []Entry{
		{Response: "a"},
		{Saved: 12},
		{Response: "x"},
	}
	assert.Equal(t, 22.0, Total(qs, es))

	// Shorter entry slice stops the roll-up early.
	assert.Equal(t, 10.0, Total(qs, es[:1]))
}

func TestMaxPointsAndPercentage(t *testing.T) {
	qs := []Q{{Points: 10}, {Points: 20}, {Points: 5}}
	assert.Equal(t, 35.0, MaxPoints(qs))

	assert.Equal(t, 63, Percentage(22, 35))
	assert.Equal(t, 100, Percentage(35, 35))
	assert.Equal(t, 0, Percentage(10, 0))
}
