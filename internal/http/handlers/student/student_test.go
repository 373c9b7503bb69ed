package student

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/storage/storagetest"
	"github.com/aanand-mishra/student-portal/internal/types"
	"github.com/aanand-mishra/student-portal/internal/utils/response"
)

func newTestRouter(store *storagetest.Memory) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/student/login", Login(store))
	r.Get("/api/students", GetList(store))
	r.Post("/api/students", New(store))
	r.Get("/api/students/{id}", GetByID(store))
	r.Put("/api/students/{id}", Update(store))
	r.Delete("/api/students/{id}", Delete(store))
	return r
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func message(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp response.Response
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return resp.Message
}

func decodeStudent(t *testing.T, rr *httptest.ResponseRecorder) types.PublicStudent {
	t.Helper()
	var st types.PublicStudent
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode student: %v", err)
	}
	return st
}

func seedStudent(t *testing.T, store *storagetest.Memory, studentID, email string) types.Student {
	t.Helper()
	phone := "555-0100"
	st, err := store.CreateStudent(context.Background(), types.CreateStudent{
		StudentID: studentID,
		Name:      "Asha",
		Email:     email,
		Phone:     &phone,
		Password:  "secret",
	})
	if err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return st
}

func TestCreate(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)

	rr := do(h, http.MethodPost, "/api/students",
		`{"studentId":"S100","name":"Asha","email":"s100@x.com","age":"20","password":"secret"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "password") || strings.Contains(rr.Body.String(), "secret") {
		t.Fatalf("password leaked: %s", rr.Body.String())
	}

	st := decodeStudent(t, rr)
	if st.ID == "" || st.StudentID != "S100" || !st.IsActive {
		t.Fatalf("unexpected student: %+v", st)
	}
	if st.Phone != nil {
		t.Fatalf("expected null phone, got %q", *st.Phone)
	}
	if st.Age == nil || *st.Age != "20" {
		t.Fatalf("expected age 20, got %v", st.Age)
	}
}

func TestCreateDuplicates(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)
	seedStudent(t, store, "S100", "s100@x.com")

	rr := do(h, http.MethodPost, "/api/students",
		`{"studentId":"S100","name":"B","email":"other@x.com","password":"pw"}`)
	if rr.Code != http.StatusBadRequest || message(t, rr) != MsgStudentIDExists {
		t.Fatalf("expected duplicate studentId rejection, got %d", rr.Code)
	}

	rr = do(h, http.MethodPost, "/api/students",
		`{"studentId":"S101","name":"B","email":"s100@x.com","password":"pw"}`)
	if rr.Code != http.StatusBadRequest || message(t, rr) != MsgEmailExists {
		t.Fatalf("expected duplicate email rejection, got %d", rr.Code)
	}
}

// racingStore simulates a concurrent create that lands between the
// handler's uniqueness lookups and its insert: lookups miss until
// CreateStudent has been called. afterErr, when set, is what lookups
// return once the insert has failed.
type racingStore struct {
	*storagetest.Memory
	inserted bool
	afterErr error
}

func (s *racingStore) GetStudentByStudentID(ctx context.Context, studentID string) (types.Student, error) {
	if !s.inserted {
		return types.Student{}, storage.ErrNotFound
	}
	if s.afterErr != nil {
		return types.Student{}, s.afterErr
	}
	return s.Memory.GetStudentByStudentID(ctx, studentID)
}

func (s *racingStore) GetStudentByEmail(ctx context.Context, email string) (types.Student, error) {
	if !s.inserted {
		return types.Student{}, storage.ErrNotFound
	}
	return s.Memory.GetStudentByEmail(ctx, email)
}

func (s *racingStore) CreateStudent(ctx context.Context, in types.CreateStudent) (types.Student, error) {
	s.inserted = true
	return s.Memory.CreateStudent(ctx, in)
}

func TestCreateLosesRace(t *testing.T) {
	cases := map[string]struct {
		body     string
		afterErr error
		wantCode int
		wantMsg  string
	}{
		"studentId taken": {
			body:     `{"studentId":"S100","name":"B","email":"other@x.com","password":"pw"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  MsgStudentIDExists,
		},
		"email taken": {
			body:     `{"studentId":"S101","name":"B","email":"s100@x.com","password":"pw"}`,
			wantCode: http.StatusBadRequest,
			wantMsg:  MsgEmailExists,
		},
		"lookup fails after insert": {
			body:     `{"studentId":"S100","name":"B","email":"other@x.com","password":"pw"}`,
			afterErr: errors.New("db down"),
			wantCode: http.StatusInternalServerError,
			wantMsg:  response.MsgInternal,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			mem := storagetest.NewMemory()
			seedStudent(t, mem, "S100", "s100@x.com")
			store := &racingStore{Memory: mem, afterErr: tc.afterErr}

			rr := do(New(store), http.MethodPost, "/api/students", tc.body)
			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rr.Code, rr.Body.String())
			}
			if got := message(t, rr); got != tc.wantMsg {
				t.Fatalf("expected %q, got %q", tc.wantMsg, got)
			}
		})
	}
}

func TestCreateValidation(t *testing.T) {
	h := newTestRouter(storagetest.NewMemory())

	cases := map[string]struct {
		body string
		want string
	}{
		"empty body":        {``, "request body is empty"},
		"missing password":  {`{"studentId":"S1","name":"A","email":"a@x.com"}`, "field password is required"},
		"missing studentId": {`{"name":"A","email":"a@x.com","password":"pw"}`, "field studentId is required"},
		"bad email":         {`{"studentId":"S1","name":"A","email":"nope","password":"pw"}`, "field email must be a valid email address"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rr := do(h, http.MethodPost, "/api/students", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
			if msg := message(t, rr); !strings.Contains(msg, tc.want) {
				t.Fatalf("expected message containing %q, got %q", tc.want, msg)
			}
		})
	}
}

func TestGetByID(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)
	seeded := seedStudent(t, store, "S100", "s100@x.com")

	rr := do(h, http.MethodGet, "/api/students/"+seeded.ID, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if st := decodeStudent(t, rr); st.ID != seeded.ID || st.Email != "s100@x.com" {
		t.Fatalf("unexpected student: %+v", st)
	}

	rr = do(h, http.MethodGet, "/api/students/does-not-exist", "")
	if rr.Code != http.StatusNotFound || message(t, rr) != MsgNotFound {
		t.Fatalf("expected 404 not found, got %d", rr.Code)
	}
}

func TestGetList(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)

	rr := do(h, http.MethodGet, "/api/students", "")
	if rr.Code != http.StatusOK || strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty array, got %d %s", rr.Code, rr.Body.String())
	}

	seedStudent(t, store, "S1", "a@x.com")
	seedStudent(t, store, "S2", "b@x.com")

	rr = do(h, http.MethodGet, "/api/students", "")
	var list []types.PublicStudent
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 students, got %d", len(list))
	}
	if strings.Contains(rr.Body.String(), "password") {
		t.Fatalf("password leaked: %s", rr.Body.String())
	}
}

func TestUpdateOnlyAllowedFields(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)
	seeded := seedStudent(t, store, "S100", "s100@x.com")

	rr := do(h, http.MethodPut, "/api/students/"+seeded.ID,
		`{"name":"Asha K","age":"21","password":"hacked","studentId":"S999","isActive":false}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	st := decodeStudent(t, rr)
	if st.Name != "Asha K" || st.Age == nil || *st.Age != "21" {
		t.Fatalf("update not applied: %+v", st)
	}
	if st.StudentID != "S100" || !st.IsActive || st.Email != "s100@x.com" {
		t.Fatalf("immutable fields changed: %+v", st)
	}
	if st.Phone == nil || *st.Phone != "555-0100" {
		t.Fatalf("omitted phone changed: %+v", st)
	}

	raw, _ := store.Student(seeded.ID)
	if raw.Password != "secret" {
		t.Fatalf("password changed through update: %q", raw.Password)
	}
}

func TestUpdateErrors(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)
	a := seedStudent(t, store, "S1", "a@x.com")
	seedStudent(t, store, "S2", "b@x.com")

	rr := do(h, http.MethodPut, "/api/students/missing", `{"name":"X"}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	rr = do(h, http.MethodPut, "/api/students/"+a.ID, `{"email":"not-an-email"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email, got %d", rr.Code)
	}

	rr = do(h, http.MethodPut, "/api/students/"+a.ID, `{"name":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank name, got %d", rr.Code)
	}

	rr = do(h, http.MethodPut, "/api/students/"+a.ID, `{"email":"b@x.com"}`)
	if rr.Code != http.StatusBadRequest || message(t, rr) != MsgEmailExists {
		t.Fatalf("expected email collision rejection, got %d", rr.Code)
	}
}

func TestDelete(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)
	seeded := seedStudent(t, store, "S100", "s100@x.com")

	rr := do(h, http.MethodDelete, "/api/students/"+seeded.ID, "")
	if rr.Code != http.StatusOK || message(t, rr) != MsgDeleteSuccessful {
		t.Fatalf("expected 200 delete, got %d", rr.Code)
	}

	rr = do(h, http.MethodGet, "/api/students/"+seeded.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}

	rr = do(h, http.MethodDelete, "/api/students/"+seeded.ID, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestLogin(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)
	seeded := seedStudent(t, store, "S100", "s100@x.com")

	rr := do(h, http.MethodPost, "/api/student/login", `{"studentId":"S100","password":"secret"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if strings.Contains(rr.Body.String(), "secret") {
		t.Fatalf("password leaked: %s", rr.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != MsgLoginSuccessful || resp.Student.ID != seeded.ID {
		t.Fatalf("unexpected response: %+v", resp)
	}

	for _, body := range []string{
		`{"studentId":"S100","password":"wrong"}`,
		`{"studentId":"S404","password":"secret"}`,
	} {
		rr := do(h, http.MethodPost, "/api/student/login", body)
		if rr.Code != http.StatusUnauthorized || message(t, rr) != MsgInvalidLogin {
			t.Fatalf("%s: expected 401 with generic message, got %d", body, rr.Code)
		}
	}

	rr = do(h, http.MethodPost, "/api/student/login", `{"studentId":"S100"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing password, got %d", rr.Code)
	}
}

func TestLoginInactive(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)
	seeded := seedStudent(t, store, "S100", "s100@x.com")
	store.SetActive(seeded.ID, false)

	rr := do(h, http.MethodPost, "/api/student/login", `{"studentId":"S100","password":"secret"}`)
	if rr.Code != http.StatusForbidden || message(t, rr) != MsgInactive {
		t.Fatalf("expected 403 inactive, got %d", rr.Code)
	}

	// A wrong password still gets 401, even for an inactive account.
	rr = do(h, http.MethodPost, "/api/student/login", `{"studentId":"S100","password":"nope"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestBackendFailureIsGeneric(t *testing.T) {
	store := storagetest.NewMemory()
	h := newTestRouter(store)
	store.SetErr(errors.New("pq: connection refused"))

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/students", ""},
		{http.MethodGet, "/api/students/1", ""},
		{http.MethodPost, "/api/students", `{"studentId":"S1","name":"A","email":"a@x.com","password":"pw"}`},
		{http.MethodPut, "/api/students/1", `{"name":"B"}`},
		{http.MethodDelete, "/api/students/1", ""},
		{http.MethodPost, "/api/student/login", `{"studentId":"S1","password":"pw"}`},
	} {
		rr := do(h, req.method, req.path, req.body)
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("%s %s: expected 500, got %d", req.method, req.path, rr.Code)
		}
		if msg := message(t, rr); msg != response.MsgInternal {
			t.Fatalf("%s %s: expected generic message, got %q", req.method, req.path, msg)
		}
	}
}
