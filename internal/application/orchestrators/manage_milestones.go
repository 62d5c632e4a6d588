package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach/internal/adapters/storage"
	"outreach/internal/domain/milestone"
)

// MilestoneStoreForManage defines the store interface needed by the milestone orchestrators.
type MilestoneStoreForManage interface {
	GetByID(ctx context.Context, id int64) (milestone.Milestone, error)
	Create(ctx context.Context, m milestone.Milestone) (int64, error)
	Delete(ctx context.Context, id int64) error
	Award(ctx context.Context, um milestone.UserMilestone) error
	Revoke(ctx context.Context, userID, milestoneID int64) error
}

// ManageMilestonesDeps holds dependencies for the milestone orchestrators.
type ManageMilestonesDeps struct {
	MilestoneStore MilestoneStoreForManage
	Now            func() time.Time
}

// ExecuteCreateMilestone adds a milestone to the catalog.
// PRE: Caller is an admin
// POST: Returns the new milestone ID
func ExecuteCreateMilestone(ctx context.Context, title string, deps ManageMilestonesDeps) (int64, error) {
	m := milestone.Milestone{Title: strings.TrimSpace(title)}
	if err := m.Validate(); err != nil {
		return 0, err
	}
	id, err := deps.MilestoneStore.Create(ctx, m)
	if err != nil {
		return 0, fmt.Errorf("create milestone: %w", err)
	}
	slog.Info("milestone_event", "event", "created", "milestone_id", id)
	return id, nil
}

// ExecuteDeleteMilestone removes a milestone and every award of it.
func ExecuteDeleteMilestone(ctx context.Context, id int64, deps ManageMilestonesDeps) error {
	if err := deps.MilestoneStore.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	slog.Info("milestone_event", "event", "deleted", "milestone_id", id)
	return nil
}

// AwardMilestoneInput carries input for awarding or revoking a milestone.
type AwardMilestoneInput struct {
	UserID      int64
	MilestoneID int64
}

// ExecuteAwardMilestone records that a user achieved a milestone. Awarding
// one the user already holds keeps the original date.
// POST: (user, milestone) pair exists
func ExecuteAwardMilestone(ctx context.Context, input AwardMilestoneInput, deps ManageMilestonesDeps) error {
	m, err := deps.MilestoneStore.GetByID(ctx, input.MilestoneID)
	if err != nil {
		return notFound(err)
	}
	um := milestone.UserMilestone{UserID: input.UserID, MilestoneID: m.ID, AchievedAt: nowFrom(deps.Now)}
	if err := um.Validate(); err != nil {
		return err
	}
	if err := deps.MilestoneStore.Award(ctx, um); err != nil {
		if storage.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}
	slog.Info("milestone_event", "event", "awarded", "user_id", input.UserID, "milestone_id", m.ID)
	return nil
}

// ExecuteRevokeMilestone removes a milestone from a user.
func ExecuteRevokeMilestone(ctx context.Context, input AwardMilestoneInput, deps ManageMilestonesDeps) error {
	if err := deps.MilestoneStore.Revoke(ctx, input.UserID, input.MilestoneID); err != nil {
		return notFound(err)
	}
	slog.Info("milestone_event", "event", "revoked", "user_id", input.UserID, "milestone_id", input.MilestoneID)
	return nil
}
