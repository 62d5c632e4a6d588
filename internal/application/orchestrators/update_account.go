package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"outreach/internal/adapters/storage"
	"outreach/internal/domain/user"
)

// UserStoreForUpdate defines the store interface needed by UpdateAccount and DeleteUser.
type UserStoreForUpdate interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Update(ctx context.Context, u user.User) error
	Delete(ctx context.Context, id int64) error
}

// UpdateAccountInput carries input for the update orchestrator. Role and
// Password are honoured only for admin actors; an empty Password keeps the
// current one.
type UpdateAccountInput struct {
	UserID int64
	Actor  Actor
	ProfileInput
	Role     string `validate:"omitempty,oneof=participant admin" label:"role"`
	Password string `validate:"omitempty,min=8" label:"password"`
}

// UpdateAccountDeps holds dependencies for UpdateAccount.
type UpdateAccountDeps struct {
	UserStore UserStoreForUpdate
}

// ExecuteUpdateAccount updates a user's profile.
// PRE: Actor is authenticated
// POST: Profile fields replaced; role and password changed only by admins
// INVARIANT: Participants can only update themselves; email stays unique
func ExecuteUpdateAccount(ctx context.Context, input UpdateAccountInput, deps UpdateAccountDeps) (user.User, error) {
	if !input.Actor.IsAdmin() && input.UserID != input.Actor.UserID {
		return user.User{}, ErrNotFound
	}
	input.normalize()
	input.Role = strings.ToLower(strings.TrimSpace(input.Role))
	if err := validateInput(input); err != nil {
		return user.User{}, err
	}

	u, err := deps.UserStore.GetByID(ctx, input.UserID)
	if err != nil {
		return user.User{}, notFound(err)
	}
	if input.Email != u.Email {
		if other, err := deps.UserStore.GetByEmail(ctx, input.Email); err == nil && other.ID != u.ID {
			return user.User{}, ErrEmailAlreadyExists
		}
	}

	input.apply(&u)
	if input.Actor.IsAdmin() {
		if input.Role != "" {
			u.Role = input.Role
		}
		if input.Password != "" {
			if err := u.SetPassword(input.Password); err != nil {
				return user.User{}, err
			}
		}
	}
	if err := u.Validate(); err != nil {
		return user.User{}, err
	}

	if err := deps.UserStore.Update(ctx, u); err != nil {
		if storage.IsUniqueViolation(err) {
			return user.User{}, ErrEmailAlreadyExists
		}
		return user.User{}, notFound(err)
	}

	slog.Info("account_event", "event", "updated", "user_id", u.ID, "by", input.Actor.UserID)
	return u, nil
}

// ErrCannotDeleteSelf is returned when an admin tries to delete their own account.
var ErrCannotDeleteSelf = errors.New("you cannot delete your own account")

// DeleteUserInput carries input for the delete orchestrator.
type DeleteUserInput struct {
	UserID int64
	Actor  Actor
}

// ExecuteDeleteUser removes a user and, by cascade, their registrations,
// surveys, donations and milestones.
// PRE: Actor is an admin (enforced by the access policy)
// POST: User row is gone
func ExecuteDeleteUser(ctx context.Context, input DeleteUserInput, deps UpdateAccountDeps) error {
	if input.UserID == input.Actor.UserID {
		return ErrCannotDeleteSelf
	}
	u, err := deps.UserStore.GetByID(ctx, input.UserID)
	if err != nil {
		return notFound(err)
	}
	if u.Email == user.AnonymousDonorEmail {
		return fmt.Errorf("%w: the anonymous donor is reserved", ErrNotFound)
	}
	if err := deps.UserStore.Delete(ctx, u.ID); err != nil {
		return notFound(err)
	}
	slog.Info("account_event", "event", "deleted", "user_id", u.ID, "by", input.Actor.UserID)
	return nil
}
