package donation

import (
	"context"

	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/donation"
)

// Store persists Donation state.
type Store interface {
	Create(ctx context.Context, value domain.Donation) (int64, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]domain.Donation, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListAll(ctx context.Context) ([]domain.Donation, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Search string
	Page   listutil.PageInfo
}
