package roster

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLStore struct{ db *sql.DB }

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) InsertConnection(ctx context.Context, studentID, teacherID string) (Connection, error) {
	now := time.Now()
	var id int64
	// Both drivers accept RETURNING (sqlite >= 3.35 via modernc, postgres natively).
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO connections (student_id, teacher_id, created_at)
		 VALUES ($1,$2,$3) RETURNING id`,
		studentID, teacherID, now.Unix()).Scan(&id)
	if err != nil {
		return Connection{}, err
	}
	return Connection{ID: id, StudentID: studentID, TeacherID: teacherID, CreatedAt: now}, nil
}

func (s *SQLStore) DeleteConnection(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM connections WHERE id=$1`, id)
	return err
}

func (s *SQLStore) ListConnections(ctx context.Context) ([]Connection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, student_id, teacher_id, created_at FROM connections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Connection
	for rows.Next() {
		var c Connection
		var created int64
		if err := rows.Scan(&c.ID, &c.StudentID, &c.TeacherID, &created); err != nil {
			return nil, err
		}
		c.CreatedAt = time.Unix(created, 0)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) PutUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, name, email, role, pass_hash, subject, grade_level, phone, gender)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (id) DO UPDATE SET
		   username=EXCLUDED.username, name=EXCLUDED.name, email=EXCLUDED.email,
		   role=EXCLUDED.role, pass_hash=EXCLUDED.pass_hash, subject=EXCLUDED.subject,
		   grade_level=EXCLUDED.grade_level, phone=EXCLUDED.phone, gender=EXCLUDED.gender`,
		u.ID, u.Username, u.Name, u.Email, u.Role, u.PassHash, u.Subject, u.GradeLevel, u.Phone, u.Gender)
	return err
}

func (s *SQLStore) GetUser(ctx context.Context, id string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, name, email, role, pass_hash, subject, grade_level, phone, gender
		 FROM users WHERE id=$1`, id))
}

func (s *SQLStore) GetUserByUsername(ctx context.Context, username string) (User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, name, email, role, pass_hash, subject, grade_level, phone, gender
		 FROM users WHERE username=$1`, username))
}

func (s *SQLStore) scanUser(row *sql.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Role, &u.PassHash,
		&u.Subject, &u.GradeLevel, &u.Phone, &u.Gender)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func (s *SQLStore) ListUsers(ctx context.Context, role string) ([]User, error) {
	q := `SELECT id, username, name, email, role, pass_hash, subject, grade_level, phone, gender
	      FROM users`
	args := []any{}
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, role)
	}
	q += ` ORDER BY username`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Role, &u.PassHash,
			&u.Subject, &u.GradeLevel, &u.Phone, &u.Gender); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}
