// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Each exported function accepts its dependencies (storage) and returns
// a function with the exact signature the router needs:
//
//	r.Post("/api/students", student.New(storage))
//
// New(storage) is called ONCE at startup; the returned handler runs on
// EVERY incoming request.
//
// Every student written to a response goes through types.Student.Public,
// which has no password field.
package student

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
	"github.com/aanand-mishra/student-portal/internal/utils/response"
)

// Client-facing messages.
const (
	MsgNotFound         = "Student not found"
	MsgStudentIDExists  = "Student ID already exists"
	MsgEmailExists      = "Email already exists"
	MsgInvalidLogin     = "Invalid student ID or password"
	MsgInactive         = "Your account is inactive. Please contact admin."
	MsgLoginSuccessful  = "Login successful"
	MsgDeleteSuccessful = "Student deleted successfully"
)

var validate = response.NewValidator()

// LoginResponse is the 200 body of POST /api/student/login.
type LoginResponse struct {
	Message string              `json:"message"`
	Student types.PublicStudent `json:"student"`
}

// internalError logs the real cause and sends the client a generic 500.
func internalError(w http.ResponseWriter, msg string, err error, attrs ...any) {
	slog.Error(msg, append(attrs, slog.String("error", err.Error()))...)
	response.WriteJSON(w, http.StatusInternalServerError, response.Message(response.MsgInternal))
}

// ─────────────────────────────────────────────────────────────────────────────
// Login handles POST /api/student/login
//
// Request body (JSON):
//
//	{ "studentId": "S100", "password": "secret" }
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	401 Unauthorized — unknown studentId OR wrong password (same message)
//	403 Forbidden    — credentials correct but the account is inactive
//
// ─────────────────────────────────────────────────────────────────────────────
func Login(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.StudentLogin
		if !response.Bind(w, r, validate, &req) {
			return
		}

		st, err := store.GetStudentByStudentID(r.Context(), req.StudentID)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusUnauthorized, response.Message(MsgInvalidLogin))
			return
		}
		if err != nil {
			internalError(w, "student login error", err)
			return
		}

		// Plaintext comparison: passwords are stored as given.
		if st.Password != req.Password {
			response.WriteJSON(w, http.StatusUnauthorized, response.Message(MsgInvalidLogin))
			return
		}

		// Inactive is only reported to a caller holding the password.
		if !st.IsActive {
			response.WriteJSON(w, http.StatusForbidden, response.Message(MsgInactive))
			return
		}

		slog.Info("student logged in", slog.String("studentId", st.StudentID))
		response.WriteJSON(w, http.StatusOK, LoginResponse{
			Message: MsgLoginSuccessful,
			Student: st.Public(),
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
// Creates a new student from the JSON request body.
//
// Request body (JSON):
//
//	{ "studentId": "S100", "name": "Asha", "email": "s100@x.com",
//	  "phone": "555-0100", "age": "20", "password": "secret" }
//
// Success response (201 Created): the created student, no password.
//
// Error responses:
//
//	400 Bad Request  — validation failure, duplicate studentId, duplicate email
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var req types.CreateStudent
		if !response.Bind(w, r, validate, &req) {
			return
		}

		// Uniqueness pre-checks give the client a precise message. Two
		// concurrent creates can both pass them; the backend's unique
		// constraint then rejects the loser (handled below).
		_, err := store.GetStudentByStudentID(r.Context(), req.StudentID)
		if err == nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(MsgStudentIDExists))
			return
		}
		if !errors.Is(err, storage.ErrNotFound) {
			internalError(w, "create student error", err)
			return
		}

		_, err = store.GetStudentByEmail(r.Context(), req.Email)
		if err == nil {
			response.WriteJSON(w, http.StatusBadRequest, response.Message(MsgEmailExists))
			return
		}
		if !errors.Is(err, storage.ErrNotFound) {
			internalError(w, "create student error", err)
			return
		}

		st, err := store.CreateStudent(r.Context(), req)
		if errors.Is(err, storage.ErrDuplicate) {
			msg, lookupErr := duplicateMessage(r, store, req.StudentID)
			if lookupErr != nil {
				internalError(w, "create student error", lookupErr)
				return
			}
			response.WriteJSON(w, http.StatusBadRequest, response.Message(msg))
			return
		}
		if err != nil {
			internalError(w, "create student error", err)
			return
		}

		slog.Info("student created", slog.String("id", st.ID))
		response.WriteJSON(w, http.StatusCreated, st.Public())
	}
}

// duplicateMessage works out which unique field lost a create race.
func duplicateMessage(r *http.Request, s storage.Storage, studentID string) (string, error) {
	_, err := s.GetStudentByStudentID(r.Context(), studentID)
	switch {
	case err == nil:
		return MsgStudentIDExists, nil
	case errors.Is(err, storage.ErrNotFound):
		return MsgEmailExists, nil
	default:
		return "", err
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByID handles GET /api/students/{id}
//
// Path parameter: {id} — the backend-assigned id (opaque string)
//
// Error responses:
//
//	404 Not Found    — no student with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("getting a student", slog.String("id", id))

		st, err := store.GetStudent(r.Context(), id)
		if errors.Is(err, storage.ErrNotFound) {
			response.WriteJSON(w, http.StatusNotFound, response.Message(MsgNotFound))
			return
		}
		if err != nil {
			internalError(w, "error getting student", err, slog.String("id", id))
			return
		}

		response.WriteJSON(w, http.StatusOK, st.Public())
	}
}

// GetList handles GET /api/students.
// Returns an empty array [] (not null) when there are no students.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.GetStudents(r.Context())
		if err != nil {
			internalError(w, "error getting students", err)
			return
		}

		response.WriteJSON(w, http.StatusOK, types.PublicStudents(students))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Changes any of name, email, phone, age. Omitted fields keep their value;
// password, studentId and isActive cannot be changed here.
//
// Request body (JSON):
//
//	{ "name": "Asha K", "age": "21" }
//
// Error responses:
//
//	400 Bad Request  — validation failure, or email taken by another student
//	404 Not Found    — no student with that id
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("updating a student", slog.String("id", id))

		var req types.UpdateStudent
		if !response.Bind(w, r, validate, &req) {
			return
		}

		st, err := store.UpdateStudent(r.Context(), id, req)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			response.WriteJSON(w, http.StatusNotFound, response.Message(MsgNotFound))
			return
		case errors.Is(err, storage.ErrDuplicate):
			response.WriteJSON(w, http.StatusBadRequest, response.Message(MsgEmailExists))
			return
		case err != nil:
			internalError(w, "error updating student", err, slog.String("id", id))
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, st.Public())
	}
}

// Delete handles DELETE /api/students/{id}.
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		slog.Info("deleting a student", slog.String("id", id))

		deleted, err := store.DeleteStudent(r.Context(), id)
		if err != nil {
			internalError(w, "error deleting student", err, slog.String("id", id))
			return
		}
		if !deleted {
			response.WriteJSON(w, http.StatusNotFound, response.Message(MsgNotFound))
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, response.Message(MsgDeleteSuccessful))
	}
}
