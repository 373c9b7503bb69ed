// Package seed creates the fixed administrator account.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
)

// The single shared admin credential. Passwords are stored and compared
// in plaintext throughout this service.
const (
	AdminUsername = "admin"
	AdminPassword = "12345"
	AdminName     = "Administrator"
)

// EnsureAdmin returns the admin record, creating it first if it does
// not exist yet. Calling it repeatedly never creates a second admin: if
// a concurrent caller wins the insert, the unique username constraint
// rejects ours and the existing row is fetched instead.
func EnsureAdmin(ctx context.Context, store storage.Storage) (types.Admin, error) {
	admin, err := store.GetAdminByUsername(ctx, AdminUsername)
	if err == nil {
		return admin, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return types.Admin{}, fmt.Errorf("look up admin: %w", err)
	}

	admin, err = store.CreateAdmin(ctx, types.Admin{
		Username: AdminUsername,
		Password: AdminPassword,
		Name:     AdminName,
	})
	if errors.Is(err, storage.ErrDuplicate) {
		return store.GetAdminByUsername(ctx, AdminUsername)
	}
	if err != nil {
		return types.Admin{}, fmt.Errorf("create admin: %w", err)
	}

	slog.Info("default admin created", slog.String("id", admin.ID))
	return admin, nil
}
