package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
)

func strPtr(s string) *string { return &s }

// Run exercises the storage.Storage contract against s. The store must
// start empty.
func Run(t *testing.T, s storage.Storage) {
	t.Helper()
	ctx := context.Background()

	t.Run("admin", func(t *testing.T) {
		if _, err := s.GetAdminByUsername(ctx, "admin"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound before create, got %v", err)
		}

		created, err := s.CreateAdmin(ctx, types.Admin{Username: "admin", Password: "12345", Name: "Administrator"})
		if err != nil {
			t.Fatalf("create admin: %v", err)
		}
		if created.ID == "" {
			t.Fatalf("expected backend-assigned id")
		}

		byName, err := s.GetAdminByUsername(ctx, "admin")
		if err != nil {
			t.Fatalf("get admin by username: %v", err)
		}
		byID, err := s.GetAdmin(ctx, created.ID)
		if err != nil {
			t.Fatalf("get admin by id: %v", err)
		}
		if byName != byID || byID.Name != "Administrator" || byID.Password != "12345" {
			t.Fatalf("admin lookups disagree: %+v vs %+v", byName, byID)
		}

		_, err = s.CreateAdmin(ctx, types.Admin{Username: "admin", Password: "x", Name: "Other"})
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for second admin, got %v", err)
		}
	})

	t.Run("student lifecycle", func(t *testing.T) {
		list, err := s.GetStudents(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if list == nil || len(list) != 0 {
			t.Fatalf("expected empty non-nil list, got %#v", list)
		}

		created, err := s.CreateStudent(ctx, types.CreateStudent{
			StudentID: "S100",
			Name:      "Asha",
			Email:     "s100@x.com",
			Phone:     strPtr("555-0100"),
			Password:  "pw",
		})
		if err != nil {
			t.Fatalf("create student: %v", err)
		}
		if created.ID == "" || !created.IsActive {
			t.Fatalf("expected id and isActive=true, got %+v", created)
		}
		if created.Age != nil {
			t.Fatalf("expected nil age, got %q", *created.Age)
		}

		for name, get := range map[string]func() (types.Student, error){
			"id":        func() (types.Student, error) { return s.GetStudent(ctx, created.ID) },
			"studentId": func() (types.Student, error) { return s.GetStudentByStudentID(ctx, "S100") },
			"email":     func() (types.Student, error) { return s.GetStudentByEmail(ctx, "s100@x.com") },
		} {
			got, err := get()
			if err != nil {
				t.Fatalf("get by %s: %v", name, err)
			}
			if got.ID != created.ID || got.Password != "pw" || got.Phone == nil || *got.Phone != "555-0100" {
				t.Fatalf("get by %s returned %+v", name, got)
			}
		}

		_, err = s.CreateStudent(ctx, types.CreateStudent{StudentID: "S100", Name: "B", Email: "other@x.com", Password: "pw"})
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for studentId, got %v", err)
		}
		_, err = s.CreateStudent(ctx, types.CreateStudent{StudentID: "S101", Name: "B", Email: "s100@x.com", Password: "pw"})
		if !errors.Is(err, storage.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for email, got %v", err)
		}

		updated, err := s.UpdateStudent(ctx, created.ID, types.UpdateStudent{
			Name: strPtr("Asha K"),
			Age:  strPtr("21"),
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Name != "Asha K" || updated.Age == nil || *updated.Age != "21" {
			t.Fatalf("update not applied: %+v", updated)
		}
		if updated.Email != "s100@x.com" || updated.StudentID != "S100" || updated.Password != "pw" || !updated.IsActive {
			t.Fatalf("update touched other fields: %+v", updated)
		}
		if updated.Phone == nil || *updated.Phone != "555-0100" {
			t.Fatalf("update cleared phone: %+v", updated)
		}

		if _, err := s.UpdateStudent(ctx, created.ID, types.UpdateStudent{}); err != nil {
			t.Fatalf("empty update: %v", err)
		}

		list, err = s.GetStudents(ctx)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].ID != created.ID {
			t.Fatalf("expected one student, got %+v", list)
		}

		deleted, err := s.DeleteStudent(ctx, created.ID)
		if err != nil || !deleted {
			t.Fatalf("delete: deleted=%v err=%v", deleted, err)
		}
		if _, err := s.GetStudent(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
		deleted, err = s.DeleteStudent(ctx, created.ID)
		if err != nil || deleted {
			t.Fatalf("second delete: deleted=%v err=%v", deleted, err)
		}
	})

	t.Run("missing student", func(t *testing.T) {
		if _, err := s.UpdateStudent(ctx, missingID, types.UpdateStudent{Name: strPtr("x")}); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on update, got %v", err)
		}
		if _, err := s.GetStudentByStudentID(ctx, "nope"); !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("expected ErrNotFound by studentId, got %v", err)
		}
	})

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

// missingID is a well-formed id for every backend (a valid ObjectID hex
// for mongo) that no record will ever have.
const missingID = "000000000000000000000000"
