package quiz

import "time"

// Status derivation is recomputed on every read and never cached; the stored
// quiz status is ground truth only for the explicit transitions (publish,
// grading, finished).

// TeacherStatus derives the coarse lifecycle state for the teacher view.
// finished is terminal: no input regresses it.
func TeacherStatus(q Quiz, now time.Time) Status {
	switch q.Status {
	case StatusFinished:
		return StatusFinished
	case StatusUnpublished:
		return StatusUnpublished
	case StatusGrading:
		return StatusGrading
	case StatusPublished:
		if now.After(q.EndTime()) {
			return StatusGrading
		}
		return StatusPublished
	default:
		// A quiz persisted with a per-student snapshot state reads as
		// published for its owner.
		return StatusPublished
	}
}

// StudentStatus derives the fine-grained per-student state. sub may be nil
// when the student never touched the quiz. Grade presence dominates all
// other signals.
func StudentStatus(q Quiz, sub *Submission, now time.Time) Status {
	if sub != nil {
		if sub.Graded() {
			return StatusFinished
		}
		if sub.HasAnswers() {
			return StatusGrading
		}
		// Explicit grading flag: teacher queued a no-show for review.
		if sub.Status == StatusGrading {
			return StatusGrading
		}
	}
	switch {
	case now.Before(q.StartTime):
		return StatusScheduled
	case !now.After(q.EndTime()):
		return StatusActive
	default:
		return StatusExpired
	}
}

// CompletionSatisfied reports whether the grading -> finished predicate
// holds: every submitted student is teacher-graded, and at least one student
// submitted. A quiz nobody took never satisfies it and stays in grading.
func CompletionSatisfied(subs []Submission) bool {
	submitted := 0
	for _, s := range subs {
		if !s.HasAnswers() {
			continue
		}
		submitted++
		if !s.TeacherGraded {
			return false
		}
	}
	return submitted > 0
}
