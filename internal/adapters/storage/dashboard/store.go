package dashboard

import (
	"context"
	"time"

	eventdomain "outreach/internal/domain/event"
)

// Store answers the aggregate questions behind the dashboards. Every method
// wraps driver failures with storage.ErrStoreUnavailable.
type Store interface {
	TotalDonations(ctx context.Context) (int64, error)
	DonationsBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountUsers(ctx context.Context) (int, error)
	CountUpcomingOccurrences(ctx context.Context, now time.Time) (int, error)
	NextOccurrence(ctx context.Context, now time.Time) (*eventdomain.Occurrence, error)
	ListUpcomingRegistrations(ctx context.Context, userID int64, now time.Time) ([]UpcomingRegistration, error)
	CountUserMilestones(ctx context.Context, userID int64) (int, error)
	CountPendingSurveys(ctx context.Context, userID int64, now time.Time) (int, error)
}

// UpcomingRegistration is an active registration for an occurrence that has not started.
type UpcomingRegistration struct {
	RegistrationID int64
	OccurrenceID   int64
	OccurrenceName string
	StartAt        time.Time
	Location       string
}
