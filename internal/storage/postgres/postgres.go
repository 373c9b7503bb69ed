// Package postgres implements storage.Storage on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aanand-mishra/student-portal/internal/config"
	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS admins (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, `
CREATE TABLE IF NOT EXISTS students (
	id         TEXT PRIMARY KEY,
	student_id TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	phone      TEXT,
	age        TEXT,
	password   TEXT NOT NULL,
	is_active  BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`}

var (
	adminColumns   = []string{"id", "username", "password", "name"}
	studentColumns = []string{
		"id", "student_id", "name", "email", "phone", "age",
		"password", "is_active", "created_at", "updated_at",
	}
)

// Store is the PostgreSQL backend.
type Store struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

var _ storage.Storage = (*Store)(nil)

// New connects to cfg.Storage.PostgresDSN and creates the tables.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	pool, err := pgxpool.New(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("postgres.New: create tables: %w", err)
		}
	}

	return &Store{
		pool: pool,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanAdmin(row pgx.Row) (types.Admin, error) {
	var a types.Admin
	err := row.Scan(&a.ID, &a.Username, &a.Password, &a.Name)
	return a, err
}

func scanStudent(row pgx.Row) (types.Student, error) {
	var st types.Student
	err := row.Scan(
		&st.ID, &st.StudentID, &st.Name, &st.Email, &st.Phone, &st.Age,
		&st.Password, &st.IsActive, &st.CreatedAt, &st.UpdatedAt,
	)
	return st, err
}

func (s *Store) getAdmin(ctx context.Context, where sq.Eq) (types.Admin, error) {
	query, args, err := s.sb.Select(adminColumns...).From("admins").Where(where).Limit(1).ToSql()
	if err != nil {
		return types.Admin{}, fmt.Errorf("build admin query: %w", err)
	}

	a, err := scanAdmin(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Admin{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Admin{}, fmt.Errorf("scan admin: %w", err)
	}
	return a, nil
}

func (s *Store) GetAdmin(ctx context.Context, id string) (types.Admin, error) {
	return s.getAdmin(ctx, sq.Eq{"id": id})
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (types.Admin, error) {
	return s.getAdmin(ctx, sq.Eq{"username": username})
}

func (s *Store) CreateAdmin(ctx context.Context, admin types.Admin) (types.Admin, error) {
	admin.ID = uuid.NewString()

	query, args, err := s.sb.Insert("admins").
		Columns("id", "username", "password", "name").
		Values(admin.ID, admin.Username, admin.Password, admin.Name).
		ToSql()
	if err != nil {
		return types.Admin{}, fmt.Errorf("build create admin query: %w", err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return types.Admin{}, fmt.Errorf("create admin %q: %w", admin.Username, storage.ErrDuplicate)
		}
		return types.Admin{}, fmt.Errorf("CreateAdmin: exec: %w", err)
	}
	return admin, nil
}

func (s *Store) getStudent(ctx context.Context, where sq.Eq) (types.Student, error) {
	query, args, err := s.sb.Select(studentColumns...).From("students").Where(where).Limit(1).ToSql()
	if err != nil {
		return types.Student{}, fmt.Errorf("build student query: %w", err)
	}

	st, err := scanStudent(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("scan student: %w", err)
	}
	return st, nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (types.Student, error) {
	return s.getStudent(ctx, sq.Eq{"id": id})
}

func (s *Store) GetStudentByStudentID(ctx context.Context, studentID string) (types.Student, error) {
	return s.getStudent(ctx, sq.Eq{"student_id": studentID})
}

func (s *Store) GetStudentByEmail(ctx context.Context, email string) (types.Student, error) {
	return s.getStudent(ctx, sq.Eq{"email": email})
}

func (s *Store) GetStudents(ctx context.Context) ([]types.Student, error) {
	query, args, err := s.sb.Select(studentColumns...).From("students").OrderBy("created_at", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list students query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		st, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}
	return students, nil
}

func (s *Store) CreateStudent(ctx context.Context, in types.CreateStudent) (types.Student, error) {
	query, args, err := s.sb.Insert("students").
		Columns("id", "student_id", "name", "email", "phone", "age", "password").
		Values(uuid.NewString(), in.StudentID, in.Name, in.Email, in.Phone, in.Age, in.Password).
		Suffix("RETURNING " + strings.Join(studentColumns, ", ")).
		ToSql()
	if err != nil {
		return types.Student{}, fmt.Errorf("build create student query: %w", err)
	}

	st, err := scanStudent(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isUniqueViolation(err) {
			return types.Student{}, fmt.Errorf("create student %q: %w", in.StudentID, storage.ErrDuplicate)
		}
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}
	return st, nil
}

func (s *Store) UpdateStudent(ctx context.Context, id string, patch types.UpdateStudent) (types.Student, error) {
	set := map[string]any{"updated_at": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}

	query, args, err := s.sb.Update("students").
		SetMap(set).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + strings.Join(studentColumns, ", ")).
		ToSql()
	if err != nil {
		return types.Student{}, fmt.Errorf("build update student query: %w", err)
	}

	st, err := scanStudent(s.pool.QueryRow(ctx, query, args...))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return types.Student{}, storage.ErrNotFound
	case isUniqueViolation(err):
		return types.Student{}, fmt.Errorf("update student %s: %w", id, storage.ErrDuplicate)
	case err != nil:
		return types.Student{}, fmt.Errorf("UpdateStudent: exec: %w", err)
	}
	return st, nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) (bool, error) {
	query, args, err := s.sb.Delete("students").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete student query: %w", err)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: exec: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
