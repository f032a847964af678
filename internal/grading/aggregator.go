// Package grading resolves per-question scores for a graded submission and
// rolls them up into totals. It is deliberately decoupled from the quiz
// package: callers project questions and responses into the minimal views
// below.
package grading

import "math"

// ManualUnset is the sentinel for "teacher entered no override". A manual
// score of exactly zero therefore cannot be expressed as an override.
const ManualUnset = 0

// Q is the minimal view of a question needed for scoring.
type Q struct {
	Type          string // mcq|written
	Points        float64
	CorrectOption string // option ID flagged correct (mcq only)
}

// Entry is one student's graded response to a question.
type Entry struct {
	Response string  // option ID for mcq, free text for written
	Manual   float64 // teacher override; ManualUnset when absent
	Saved    float64 // score saved in an earlier grading pass (written)
}

// Score resolves a single question's score. Resolution order: manual
// override when set, automatic scoring for MCQ, previously saved score for
// written, else 0. Overrides are not clamped to [0, Points].
func Score(q Q, e Entry) float64 {
	if e.Manual != ManualUnset {
		return e.Manual
	}
	if q.Type == "mcq" {
		if e.Response != "" && e.Response == q.CorrectOption {
			return q.Points
		}
		return 0
	}
	return e.Saved
}

// Total sums Score over parallel question/entry slices. Slices must be the
// same length; extra entries are ignored.
func Total(qs []Q, es []Entry) float64 {
	total := 0.0
	for i := range qs {
		if i >= len(es) {
			break
		}
		total += Score(qs[i], es[i])
	}
	return total
}

// MaxPoints is the quiz's total available points.
func MaxPoints(qs []Q) float64 {
	total := 0.0
	for _, q := range qs {
		total += q.Points
	}
	return total
}

// Percentage is the rounded percent score, 0 when no points are available.
func Percentage(total, max float64) int {
	if max <= 0 {
		return 0
	}
	return int(math.Round(total / max * 100))
}
