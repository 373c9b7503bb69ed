// Package storagetest provides an in-memory storage.Storage for handler
// tests and a conformance suite that every real backend runs against.
package storagetest

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
)

// Memory keeps records in maps. It enforces the same unique fields as
// the real backends. SetErr makes every call fail.
type Memory struct {
	mu       sync.Mutex
	seq      int
	admins   map[string]types.Admin
	students map[string]types.Student

	err error
}

var _ storage.Storage = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		admins:   make(map[string]types.Admin),
		students: make(map[string]types.Student),
	}
}

func (m *Memory) nextID() string {
	m.seq++
	return strconv.Itoa(m.seq)
}

// SetErr makes every later call fail with err (nil restores normal
// behaviour). Safe to call while a server is using the store.
func (m *Memory) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// SetActive flips the isActive flag, which no API route can do.
func (m *Memory) SetActive(id string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.students[id]
	st.IsActive = active
	m.students[id] = st
}

// AdminCount returns how many admin records exist.
func (m *Memory) AdminCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.admins)
}

// Student returns the raw stored record, password included.
func (m *Memory) Student(id string) (types.Student, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.students[id]
	return st, ok
}

func (m *Memory) GetAdmin(_ context.Context, id string) (types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Admin{}, m.err
	}
	a, ok := m.admins[id]
	if !ok {
		return types.Admin{}, storage.ErrNotFound
	}
	return a, nil
}

func (m *Memory) GetAdminByUsername(_ context.Context, username string) (types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Admin{}, m.err
	}
	for _, a := range m.admins {
		if a.Username == username {
			return a, nil
		}
	}
	return types.Admin{}, storage.ErrNotFound
}

func (m *Memory) CreateAdmin(_ context.Context, admin types.Admin) (types.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Admin{}, m.err
	}
	for _, a := range m.admins {
		if a.Username == admin.Username {
			return types.Admin{}, storage.ErrDuplicate
		}
	}
	admin.ID = m.nextID()
	m.admins[admin.ID] = admin
	return admin, nil
}

func (m *Memory) find(match func(types.Student) bool) (types.Student, error) {
	if m.err != nil {
		return types.Student{}, m.err
	}
	for _, st := range m.students {
		if match(st) {
			return st, nil
		}
	}
	return types.Student{}, storage.ErrNotFound
}

func (m *Memory) GetStudent(_ context.Context, id string) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(st types.Student) bool { return st.ID == id })
}

func (m *Memory) GetStudentByStudentID(_ context.Context, studentID string) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(st types.Student) bool { return st.StudentID == studentID })
}

func (m *Memory) GetStudentByEmail(_ context.Context, email string) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.find(func(st types.Student) bool { return st.Email == email })
}

func (m *Memory) GetStudents(_ context.Context) ([]types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]types.Student, 0, len(m.students))
	for _, st := range m.students {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i].ID)
		b, _ := strconv.Atoi(out[j].ID)
		return a < b
	})
	return out, nil
}

func (m *Memory) CreateStudent(_ context.Context, in types.CreateStudent) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Student{}, m.err
	}
	for _, st := range m.students {
		if st.StudentID == in.StudentID || st.Email == in.Email {
			return types.Student{}, storage.ErrDuplicate
		}
	}
	now := time.Now().UTC()
	st := types.Student{
		ID:        m.nextID(),
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
	m.students[st.ID] = st
	return st, nil
}

func (m *Memory) UpdateStudent(_ context.Context, id string, patch types.UpdateStudent) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return types.Student{}, m.err
	}
	st, ok := m.students[id]
	if !ok {
		return types.Student{}, storage.ErrNotFound
	}
	if patch.Email != nil {
		for _, other := range m.students {
			if other.ID != id && other.Email == *patch.Email {
				return types.Student{}, storage.ErrDuplicate
			}
		}
		st.Email = *patch.Email
	}
	if patch.Name != nil {
		st.Name = *patch.Name
	}
	if patch.Phone != nil {
		st.Phone = patch.Phone
	}
	if patch.Age != nil {
		st.Age = patch.Age
	}
	st.UpdatedAt = time.Now().UTC()
	m.students[id] = st
	return st, nil
}

func (m *Memory) DeleteStudent(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.students[id]; !ok {
		return false, nil
	}
	delete(m.students, id)
	return true, nil
}

func (m *Memory) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return fmt.Errorf("ping: %w", m.err)
	}
	return nil
}

func (m *Memory) Close() error { return nil }
