package users

import (
	"fmt"

	"github.com/Spok95/factory-mix/internal/domain/errs"
)

// RequireAdmin allows admin and super_admin.
func RequireAdmin(a Actor, action string) error {
	if !a.Role.IsAdmin() {
		return fmt.Errorf("%w: %s requires admin role", errs.ErrForbidden, action)
	}
	return nil
}

// RequireAny allows any known role.
func RequireAny(a Actor, action string) error {
	if a.ID == 0 || !a.Role.Valid() {
		return fmt.Errorf("%w: %s requires an authenticated user", errs.ErrForbidden, action)
	}
	return nil
}
