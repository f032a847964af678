package roster

import (
	"errors"
	"time"
)

// ErrNotFound is returned for unknown user or connection identifiers.
var ErrNotFound = errors.New("roster: not found")

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

// Connection is an authorization edge: a student is visible to a teacher
// (quizzes, grading, contact) only while a connection between them exists.
type Connection struct {
	ID        int64     `json:"id"`
	StudentID string    `json:"student_id"`
	TeacherID string    `json:"teacher_id"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role"` // student|teacher|admin
	PassHash string `json:"-"`

	Subject    string `json:"subject,omitempty"`     // teachers
	GradeLevel string `json:"grade_level,omitempty"` // students
	Phone      string `json:"phone,omitempty"`
	Gender     string `json:"gender,omitempty"`
}
