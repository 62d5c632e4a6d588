package projections

import (
	"context"

	"outreach/internal/adapters/storage/registration"
	domainMilestone "outreach/internal/domain/milestone"
	domainUser "outreach/internal/domain/user"
)

// UserProfileStore interface for single-user lookups.
type UserProfileStore interface {
	GetByID(ctx context.Context, id int64) (domainUser.User, error)
}

// UserMilestoneStore interface for a user's awarded milestones.
type UserMilestoneStore interface {
	ListByUser(ctx context.Context, userID int64) ([]domainMilestone.UserMilestone, error)
}

// MilestoneCatalogStore interface for the full milestone list.
type MilestoneCatalogStore interface {
	ListAll(ctx context.Context) ([]domainMilestone.Milestone, error)
}

// GetUserProfileQuery carries query parameters.
type GetUserProfileQuery struct {
	UserID int64
}

// GetUserProfileResult carries the admin edit view of a user.
type GetUserProfileResult struct {
	User          domainUser.User
	Milestones    []domainMilestone.UserMilestone
	Available     []domainMilestone.Milestone // catalog entries the user does not hold yet
	Registrations []registration.Row
	Errors        []string // secondary lists that could not be read
}

// GetUserProfileDeps holds dependencies for GetUserProfile.
type GetUserProfileDeps struct {
	UserStore          UserProfileStore
	UserMilestoneStore UserMilestoneStore
	MilestoneStore     MilestoneCatalogStore // optional: nil skips the award picker
	RegistrationStore  MyRegistrationsStore  // optional: nil skips history
}

// QueryGetUserProfile retrieves a user with their milestones and registration history.
// PRE: Valid user ID
// POST: Returns the store's error only when the user itself cannot be read;
// milestone and registration read errors leave those lists empty and are listed in Errors
func QueryGetUserProfile(ctx context.Context, query GetUserProfileQuery, deps GetUserProfileDeps) (GetUserProfileResult, error) {
	u, err := deps.UserStore.GetByID(ctx, query.UserID)
	if err != nil {
		return GetUserProfileResult{}, err
	}
	result := GetUserProfileResult{User: u}

	held := map[int64]bool{}
	if ms, err := deps.UserMilestoneStore.ListByUser(ctx, u.ID); err != nil {
		result.Errors = append(result.Errors, ReadFailed("milestones", err))
	} else {
		result.Milestones = ms
		for _, m := range ms {
			held[m.MilestoneID] = true
		}
	}

	if deps.MilestoneStore != nil {
		if all, err := deps.MilestoneStore.ListAll(ctx); err != nil {
			result.Errors = append(result.Errors, ReadFailed("milestone catalog", err))
		} else {
			for _, m := range all {
				if !held[m.ID] {
					result.Available = append(result.Available, m)
				}
			}
		}
	}

	if deps.RegistrationStore != nil {
		if rows, err := deps.RegistrationStore.ListByUser(ctx, u.ID); err != nil {
			result.Errors = append(result.Errors, ReadFailed("registrations", err))
		} else {
			result.Registrations = rows
		}
	}

	return result, nil
}
