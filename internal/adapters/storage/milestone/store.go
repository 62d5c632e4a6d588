package milestone

import (
	"context"

	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/milestone"
)

// Store persists Milestone state.
type Store interface {
	GetByID(ctx context.Context, id int64) (domain.Milestone, error)
	Create(ctx context.Context, value domain.Milestone) (int64, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]domain.Milestone, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListAll(ctx context.Context) ([]domain.Milestone, error)
}

// UserMilestoneStore persists milestones awarded to users.
type UserMilestoneStore interface {
	Award(ctx context.Context, value domain.UserMilestone) error
	Revoke(ctx context.Context, userID, milestoneID int64) error
	ListByUser(ctx context.Context, userID int64) ([]domain.UserMilestone, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Search string
	Page   listutil.PageInfo
}
