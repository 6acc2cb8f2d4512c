package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/domain"
	apperrors "github.com/spec-kit/issue-tracker/pkg/util/errorutil"
)

// The guards below are evaluated by services per operation so they hold
// regardless of how the operation is reached.

// RequireActor ensures the operation runs on behalf of an active account.
func RequireActor(actor domain.Actor) error {
	if actor.ID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	if actor.Status != "" && actor.Status != domain.UserStatusActive {
		return apperrors.NewForbiddenReason("Account is not active", string(actor.Status))
	}
	return nil
}

// RequireAdmin ensures the actor holds the admin role.
func RequireAdmin(actor domain.Actor) error {
	if err := RequireActor(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("Admin role required")
	}
	return nil
}

// ForbidSelf rejects an operation the actor may not perform on their own account.
func ForbidSelf(actor domain.Actor, targetID, message string) error {
	if actor.ID == targetID {
		return apperrors.NewForbidden(message)
	}
	return nil
}

// RequireAdminRole rejects non-admin callers before the handler runs. It must
// be mounted after AuthMiddleware.Handle.
func RequireAdminRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, ok := ActorFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := RequireAdmin(actor); err != nil {
			return err
		}
		return c.Next()
	}
}
