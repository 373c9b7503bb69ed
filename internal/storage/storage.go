// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// Handlers (HTTP layer) should not know or care which database they are
// talking to. Three backends implement this contract:
//
//   - sqlite   — relational, single file on disk
//   - postgres — relational, networked server
//   - mongo    — document store
//
// Exactly one of them is built at startup (see cmd/student-portal); the
// handlers only ever see this interface.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-portal/internal/types"
)

// Sentinel errors shared by every backend. Handlers match them with
// errors.Is, so backends must wrap (%w) rather than replace them.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate means a unique field (username, studentId, email)
	// collided at the storage layer.
	ErrDuplicate = errors.New("duplicate record")
)

// Storage is the database contract.
// Every method makes a single backend round-trip; there are no
// transactions across calls and no retries.
type Storage interface {
	GetAdmin(ctx context.Context, id string) (types.Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (types.Admin, error)
	CreateAdmin(ctx context.Context, admin types.Admin) (types.Admin, error)

	// GetStudent fetches a student by its backend-assigned id.
	GetStudent(ctx context.Context, id string) (types.Student, error)
	GetStudentByStudentID(ctx context.Context, studentID string) (types.Student, error)
	GetStudentByEmail(ctx context.Context, email string) (types.Student, error)

	// GetStudents returns every student. Order is backend-defined.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// CreateStudent persists a new student. The backend assigns ID,
	// CreatedAt and UpdatedAt; IsActive starts true.
	CreateStudent(ctx context.Context, in types.CreateStudent) (types.Student, error)

	// UpdateStudent applies the non-nil fields of patch and returns the
	// stored record afterwards.
	UpdateStudent(ctx context.Context, id string, patch types.UpdateStudent) (types.Student, error)

	// DeleteStudent removes a student and reports whether one existed.
	DeleteStudent(ctx context.Context, id string) (bool, error)

	Ping(ctx context.Context) error
	Close() error
}
