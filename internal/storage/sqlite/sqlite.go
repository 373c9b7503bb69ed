// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the default backend for local development.
//
// SQL text is produced by squirrel rather than hand-concatenated, so
// every user-supplied value travels as a ? placeholder argument.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-portal/internal/config"
	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
)

// Schema is idempotent — safe to run on every startup. The UNIQUE
// constraints back up the handlers' duplicate pre-checks.
const schema = `
CREATE TABLE IF NOT EXISTS admins (
	id         TEXT PRIMARY KEY,
	username   TEXT NOT NULL UNIQUE,
	password   TEXT NOT NULL,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS students (
	id         TEXT PRIMARY KEY,
	student_id TEXT NOT NULL UNIQUE,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL UNIQUE,
	phone      TEXT,
	age        TEXT,
	password   TEXT NOT NULL,
	is_active  INTEGER NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

var (
	adminColumns   = []string{"id", "username", "password", "name"}
	studentColumns = []string{
		"id", "student_id", "name", "email", "phone", "age",
		"password", "is_active", "created_at", "updated_at",
	}
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// New opens the SQLite database at cfg.Storage.SQLitePath, creates the
// tables if they do not already exist, and returns a ready-to-use *SQLite.
func New(ctx context.Context, cfg *config.Config) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.Storage.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// One writer at a time prevents SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db}, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (types.Admin, error) {
	var a types.Admin
	err := row.Scan(&a.ID, &a.Username, &a.Password, &a.Name)
	return a, err
}

func scanStudent(row rowScanner) (types.Student, error) {
	var (
		st         types.Student
		phone, age sql.NullString
	)
	err := row.Scan(
		&st.ID, &st.StudentID, &st.Name, &st.Email, &phone, &age,
		&st.Password, &st.IsActive, &st.CreatedAt, &st.UpdatedAt,
	)
	if err != nil {
		return types.Student{}, err
	}
	if phone.Valid {
		st.Phone = &phone.String
	}
	if age.Valid {
		st.Age = &age.String
	}
	return st, nil
}

// isUnique reports whether err is a UNIQUE constraint violation.
func isUnique(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

func (s *SQLite) getAdmin(ctx context.Context, where sq.Eq) (types.Admin, error) {
	query, args, err := sq.Select(adminColumns...).From("admins").Where(where).Limit(1).ToSql()
	if err != nil {
		return types.Admin{}, fmt.Errorf("build admin query: %w", err)
	}

	a, err := scanAdmin(s.Db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Admin{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Admin{}, fmt.Errorf("scan admin: %w", err)
	}
	return a, nil
}

func (s *SQLite) GetAdmin(ctx context.Context, id string) (types.Admin, error) {
	return s.getAdmin(ctx, sq.Eq{"id": id})
}

func (s *SQLite) GetAdminByUsername(ctx context.Context, username string) (types.Admin, error) {
	return s.getAdmin(ctx, sq.Eq{"username": username})
}

func (s *SQLite) CreateAdmin(ctx context.Context, admin types.Admin) (types.Admin, error) {
	admin.ID = uuid.NewString()

	query, args, err := sq.Insert("admins").
		Columns("id", "username", "password", "name", "created_at").
		Values(admin.ID, admin.Username, admin.Password, admin.Name, time.Now().UTC()).
		ToSql()
	if err != nil {
		return types.Admin{}, fmt.Errorf("build create admin query: %w", err)
	}

	if _, err := s.Db.ExecContext(ctx, query, args...); err != nil {
		if isUnique(err) {
			return types.Admin{}, fmt.Errorf("create admin %q: %w", admin.Username, storage.ErrDuplicate)
		}
		return types.Admin{}, fmt.Errorf("CreateAdmin: exec: %w", err)
	}
	return admin, nil
}

func (s *SQLite) getStudent(ctx context.Context, where sq.Eq) (types.Student, error) {
	query, args, err := sq.Select(studentColumns...).From("students").Where(where).Limit(1).ToSql()
	if err != nil {
		return types.Student{}, fmt.Errorf("build student query: %w", err)
	}

	st, err := scanStudent(s.Db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("scan student: %w", err)
	}
	return st, nil
}

func (s *SQLite) GetStudent(ctx context.Context, id string) (types.Student, error) {
	return s.getStudent(ctx, sq.Eq{"id": id})
}

func (s *SQLite) GetStudentByStudentID(ctx context.Context, studentID string) (types.Student, error) {
	return s.getStudent(ctx, sq.Eq{"student_id": studentID})
}

func (s *SQLite) GetStudentByEmail(ctx context.Context, email string) (types.Student, error) {
	return s.getStudent(ctx, sq.Eq{"email": email})
}

// GetStudents returns all student rows, oldest first.
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	query, args, err := sq.Select(studentColumns...).From("students").OrderBy("created_at", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list students query: %w", err)
	}

	rows, err := s.Db.QueryContext(ctx, query, args...)
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

func (s *SQLite) CreateStudent(ctx context.Context, in types.CreateStudent) (types.Student, error) {
	now := time.Now().UTC()
	st := types.Student{
		ID:        uuid.NewString(),
		StudentID: in.StudentID,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Age:       in.Age,
		Password:  in.Password,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	query, args, err := sq.Insert("students").
		Columns(studentColumns...).
		Values(st.ID, st.StudentID, st.Name, st.Email, st.Phone, st.Age,
			st.Password, st.IsActive, st.CreatedAt, st.UpdatedAt).
		ToSql()
	if err != nil {
		return types.Student{}, fmt.Errorf("build create student query: %w", err)
	}

	if _, err := s.Db.ExecContext(ctx, query, args...); err != nil {
		if isUnique(err) {
			return types.Student{}, fmt.Errorf("create student %q: %w", st.StudentID, storage.ErrDuplicate)
		}
		return types.Student{}, fmt.Errorf("CreateStudent: exec: %w", err)
	}
	return st, nil
}

// UpdateStudent writes only the fields present in patch, then re-fetches
// the record so we return exactly what is stored in the DB.
func (s *SQLite) UpdateStudent(ctx context.Context, id string, patch types.UpdateStudent) (types.Student, error) {
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

	query, args, err := sq.Update("students").SetMap(set).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return types.Student{}, fmt.Errorf("build update student query: %w", err)
	}

	res, err := s.Db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUnique(err) {
			return types.Student{}, fmt.Errorf("update student %s: %w", id, storage.ErrDuplicate)
		}
		return types.Student{}, fmt.Errorf("UpdateStudent: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: rows affected: %w", err)
	}
	if n == 0 {
		return types.Student{}, storage.ErrNotFound
	}

	return s.GetStudent(ctx, id)
}

func (s *SQLite) DeleteStudent(ctx context.Context, id string) (bool, error) {
	query, args, err := sq.Delete("students").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build delete student query: %w", err)
	}

	res, err := s.Db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: exec: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: rows affected: %w", err)
	}
	return n > 0, nil
}
