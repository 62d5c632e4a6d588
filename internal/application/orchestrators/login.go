package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"outreach/internal/domain/user"
)

// UserStoreForLogin defines the store interface needed by Login.
type UserStoreForLogin interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdateLoginState(ctx context.Context, id int64, failedLogins int, lockedUntil time.Time) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries the result of a successful login.
type LoginResult struct {
	UserID int64
	Email  string
	Name   string
	Role   string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	UserStore UserStoreForLogin
	Now       func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed attempts, try again later")
)

// ExecuteLogin validates credentials and returns user info for session creation.
// PRE: Valid email and password provided
// POST: Returns user info on success, records failed login on failure
// INVARIANT: Account must not be locked
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (LoginResult, error) {
	email := user.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return LoginResult{}, ErrInvalidCredentials
	}
	now := nowFrom(deps.Now)

	u, err := deps.UserStore.GetByEmail(ctx, email)
	if err != nil {
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "not_found")
		return LoginResult{}, ErrInvalidCredentials
	}
	// The anonymous donor has no password and can never sign in.
	if u.Email == user.AnonymousDonorEmail {
		return LoginResult{}, ErrInvalidCredentials
	}

	if u.IsLocked(now) {
		slog.Info("auth_event", "event", "login_blocked", "email", email, "reason", "locked")
		return LoginResult{}, ErrAccountLocked
	}

	if err := u.CheckPassword(input.Password); err != nil {
		u.RecordFailedLogin(now)
		_ = deps.UserStore.UpdateLoginState(ctx, u.ID, u.FailedLogins, u.LockedUntil)
		slog.Info("auth_event", "event", "login_failed", "email", email, "reason", "wrong_password", "failed_logins", u.FailedLogins)
		return LoginResult{}, ErrInvalidCredentials
	}

	if u.FailedLogins > 0 || !u.LockedUntil.IsZero() {
		u.ResetFailedLogins()
		_ = deps.UserStore.UpdateLoginState(ctx, u.ID, 0, time.Time{})
	}

	slog.Info("auth_event", "event", "login_success", "email", email, "role", u.Role)

	return LoginResult{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.DisplayName(),
		Role:   u.Role,
	}, nil
}
