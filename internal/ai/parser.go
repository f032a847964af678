package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/quiz-mastro/quizmastro/internal/quiz"
)

// ErrNoArray means no [...] block could be found in the model output.
var ErrNoArray = errors.New("ai: no JSON array in response")

// GeneratedQuestion is one item of the model's JSON array.
type GeneratedQuestion struct {
	Text          string   `json:"text"`
	Type          string   `json:"type"`
	Difficulty    string   `json:"difficulty"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

// ExtractQuestions pulls the first bracketed JSON array out of the message
// content and decodes it. Models wrap the array in prose or code fences;
// everything outside the outermost brackets is ignored. A malformed or
// absent array is an error and must not mutate any quiz state upstream.
func ExtractQuestions(content string) ([]GeneratedQuestion, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoArray
	}
	var out []GeneratedQuestion
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PointsTable maps difficulty bands to point values per question type.
type PointsTable struct {
	MCQ     map[string]float64 `json:"mcq"`
	Written map[string]float64 `json:"written"`
}

const defaultPoints = 10

// BuildQuestions converts generated items into quiz questions, assigning
// identifiers and per-difficulty points. Unknown difficulties read as
// medium; missing point entries fall back to the default.
func BuildQuestions(items []GeneratedQuestion, points PointsTable) []quiz.Question {
	out := make([]quiz.Question, 0, len(items))
	for _, it := range items {
		qtype := strings.ToLower(it.Type)
		if qtype != quiz.TypeMCQ && qtype != quiz.TypeWritten {
			continue
		}
		difficulty := strings.ToLower(it.Difficulty)
		if difficulty == "" {
			difficulty = "medium"
		}
		q := quiz.Question{
			ID:     uuid.NewString(),
			Text:   it.Text,
			Type:   qtype,
			Points: pointsFor(qtype, difficulty, points),
		}
		if qtype == quiz.TypeMCQ {
			for _, opt := range it.Options {
				q.Options = append(q.Options, quiz.Option{
					ID:        uuid.NewString(),
					Text:      opt,
					IsCorrect: opt == it.CorrectAnswer,
				})
			}
		}
		out = append(out, q)
	}
	return out
}

func pointsFor(qtype, difficulty string, table PointsTable) float64 {
	var m map[string]float64
	switch qtype {
	case quiz.TypeMCQ:
		m = table.MCQ
	case quiz.TypeWritten:
		m = table.Written
	}
	if v, ok := m[difficulty]; ok && v > 0 {
		return v
	}
	return defaultPoints
}
