package user

import (
	"context"
	"time"

	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/user"
)

// Store persists User state.
type Store interface {
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByEmail(ctx context.Context, email string) (domain.User, error)
	Create(ctx context.Context, value domain.User) (int64, error)
	Update(ctx context.Context, value domain.User) error
	UpdateLoginState(ctx context.Context, id int64, failedLogins int, lockedUntil time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]domain.User, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListAll(ctx context.Context) ([]domain.User, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Search string
	Page   listutil.PageInfo
}
