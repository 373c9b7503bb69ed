// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, and utils can all import types without depending
// on each other.
//
// Two kinds of structs live here:
//
//   - Records (Admin, Student) — what the storage backends persist.
//     These carry the password and are NEVER written to a response.
//   - Request / response shapes — what crosses the HTTP boundary.
//     Request structs carry validate:"..." tags checked by
//     go-playground/validator; response structs leave the password out.
package types

import "time"

// Admin is the single administrative account.
type Admin struct {
	ID       string
	Username string
	Password string
	Name     string
}

// Student represents a student record in our system.
//
// Phone and Age are optional, so they are pointers: nil means "not set".
// Age is stored as text, exactly as the client sends it.
type Student struct {
	ID        string
	StudentID string
	Name      string
	Email     string
	Phone     *string
	Age       *string
	Password  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicAdmin is the allow-listed admin shape returned after login.
type PublicAdmin struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// PublicStudent is the allow-listed student shape. Every handler that
// returns a student goes through Student.Public, so the password can
// never leak by accident.
type PublicStudent struct {
	ID        string  `json:"id"`
	StudentID string  `json:"studentId"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
	Age       *string `json:"age"`
	IsActive  bool    `json:"isActive"`
}

// Public projects an admin record to its response shape.
func (a Admin) Public() PublicAdmin {
	return PublicAdmin{ID: a.ID, Username: a.Username, Name: a.Name}
}

// Public projects a student record to its response shape.
// Empty optional fields are rendered as JSON null.
func (s Student) Public() PublicStudent {
	return PublicStudent{
		ID:        s.ID,
		StudentID: s.StudentID,
		Name:      s.Name,
		Email:     s.Email,
		Phone:     nullIfEmpty(s.Phone),
		Age:       nullIfEmpty(s.Age),
		IsActive:  s.IsActive,
	}
}

func nullIfEmpty(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

// PublicStudents projects a slice of records. The result is never nil,
// so an empty list encodes as [] rather than null.
func PublicStudents(students []Student) []PublicStudent {
	out := make([]PublicStudent, 0, len(students))
	for _, s := range students {
		out = append(out, s.Public())
	}
	return out
}

// AdminLogin is the body of POST /api/admin/login.
type AdminLogin struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// StudentLogin is the body of POST /api/student/login.
type StudentLogin struct {
	StudentID string `json:"studentId" validate:"required"`
	Password  string `json:"password"  validate:"required"`
}

// CreateStudent is the body of POST /api/students.
type CreateStudent struct {
	StudentID string  `json:"studentId" validate:"required"`
	Name      string  `json:"name"      validate:"required"`
	Email     string  `json:"email"     validate:"required,email"`
	Phone     *string `json:"phone"`
	Age       *string `json:"age"`
	Password  string  `json:"password"  validate:"required"`
}

// UpdateStudent is the body of PUT /api/students/{id}.
//
// Only these four fields can change. Keys such as "password",
// "studentId" or "isActive" have no matching struct field, so the JSON
// decoder drops them. A nil pointer means "leave unchanged".
type UpdateStudent struct {
	Name  *string `json:"name"  validate:"omitnil,min=1"`
	Email *string `json:"email" validate:"omitnil,email"`
	Phone *string `json:"phone"`
	Age   *string `json:"age"`
}

