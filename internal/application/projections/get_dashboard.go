package projections

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"outreach/internal/adapters/storage/dashboard"
	"outreach/internal/domain/event"
)

// DashboardStore defines the aggregate queries needed by the dashboard projections.
type DashboardStore interface {
	TotalDonations(ctx context.Context) (int64, error)
	DonationsBetween(ctx context.Context, from, to time.Time) (int64, error)
	CountUsers(ctx context.Context) (int, error)
	CountUpcomingOccurrences(ctx context.Context, now time.Time) (int, error)
	NextOccurrence(ctx context.Context, now time.Time) (*event.Occurrence, error)
	ListUpcomingRegistrations(ctx context.Context, userID int64, now time.Time) ([]dashboard.UpcomingRegistration, error)
	CountUserMilestones(ctx context.Context, userID int64) (int, error)
	CountPendingSurveys(ctx context.Context, userID int64, now time.Time) (int, error)
}

// GetDashboardQuery carries input for the participant dashboard.
type GetDashboardQuery struct {
	UserID int64
}

// GetDashboardDeps holds dependencies for the dashboard projections.
type GetDashboardDeps struct {
	Store DashboardStore
}

// DashboardResult carries the participant dashboard.
type DashboardResult struct {
	UpcomingRegistrations []dashboard.UpcomingRegistration
	MilestoneCount        int
	PendingSurveys        int
	Errors                []string // one generic message per KPI that failed
}

// AdminDashboardResult carries the admin dashboard KPIs. Amounts are in cents.
type AdminDashboardResult struct {
	TotalDonations int64
	YearDonations  int64
	MonthDonations int64
	UserCount      int
	UpcomingCount  int
	NextOccurrence *event.Occurrence
	Year           int
	Month          time.Month
	Errors         []string
}

// kpiRunner runs KPI lookups concurrently. A failing KPI keeps its zero
// value, is logged, and adds "error fetching <name>" to the result; the
// others are unaffected.
type kpiRunner struct {
	g    *errgroup.Group
	ctx  context.Context
	mu   sync.Mutex
	errs []string
}

func newKPIRunner(ctx context.Context) *kpiRunner {
	g, gctx := errgroup.WithContext(ctx)
	return &kpiRunner{g: g, ctx: gctx}
}

func (k *kpiRunner) run(name string, fn func(ctx context.Context) error) {
	k.g.Go(func() error {
		if err := fn(k.ctx); err != nil {
			slog.Warn("dashboard_kpi_failed", "kpi", name, "error", err)
			k.mu.Lock()
			k.errs = append(k.errs, "error fetching "+name)
			k.mu.Unlock()
		}
		return nil
	})
}

// wait returns the collected messages in a stable order.
func (k *kpiRunner) wait(order []string) []string {
	_ = k.g.Wait()
	if len(k.errs) == 0 {
		return nil
	}
	failed := make(map[string]bool, len(k.errs))
	for _, e := range k.errs {
		failed[e] = true
	}
	out := make([]string, 0, len(k.errs))
	for _, name := range order {
		if msg := "error fetching " + name; failed[msg] {
			out = append(out, msg)
		}
	}
	return out
}

// YearWindow returns [Jan 1 of now's year, Jan 1 of the next year) in now's location.
func YearWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(1, 0, 0)
}

// MonthWindow returns [1st of now's month, 1st of the next month) in now's location.
func MonthWindow(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0)
}

// QueryGetDashboard aggregates the participant dashboard.
// PRE: UserID is the signed-in user
// POST: Never fails; KPIs that could not be read are zero and listed in Errors
func QueryGetDashboard(ctx context.Context, query GetDashboardQuery, deps GetDashboardDeps, now time.Time) (DashboardResult, error) {
	var result DashboardResult
	k := newKPIRunner(ctx)

	k.run("upcoming registrations", func(ctx context.Context) error {
		rows, err := deps.Store.ListUpcomingRegistrations(ctx, query.UserID, now)
		if err != nil {
			return err
		}
		result.UpcomingRegistrations = rows
		return nil
	})
	k.run("milestones", func(ctx context.Context) error {
		n, err := deps.Store.CountUserMilestones(ctx, query.UserID)
		if err != nil {
			return err
		}
		result.MilestoneCount = n
		return nil
	})
	k.run("pending surveys", func(ctx context.Context) error {
		n, err := deps.Store.CountPendingSurveys(ctx, query.UserID, now)
		if err != nil {
			return err
		}
		result.PendingSurveys = n
		return nil
	})

	result.Errors = k.wait([]string{"upcoming registrations", "milestones", "pending surveys"})
	return result, nil
}

// QueryGetAdminDashboard aggregates the admin KPIs: lifetime, year-to-date and
// month-to-date donations, user count and upcoming occurrences.
// POST: Never fails; KPIs that could not be read are zero and listed in Errors
func QueryGetAdminDashboard(ctx context.Context, deps GetDashboardDeps, now time.Time) (AdminDashboardResult, error) {
	result := AdminDashboardResult{Year: now.Year(), Month: now.Month()}
	yearFrom, yearTo := YearWindow(now)
	monthFrom, monthTo := MonthWindow(now)
	k := newKPIRunner(ctx)

	k.run("total donations", func(ctx context.Context) error {
		v, err := deps.Store.TotalDonations(ctx)
		if err != nil {
			return err
		}
		result.TotalDonations = v
		return nil
	})
	k.run("donations this year", func(ctx context.Context) error {
		v, err := deps.Store.DonationsBetween(ctx, yearFrom, yearTo)
		if err != nil {
			return err
		}
		result.YearDonations = v
		return nil
	})
	k.run("donations this month", func(ctx context.Context) error {
		v, err := deps.Store.DonationsBetween(ctx, monthFrom, monthTo)
		if err != nil {
			return err
		}
		result.MonthDonations = v
		return nil
	})
	k.run("users", func(ctx context.Context) error {
		n, err := deps.Store.CountUsers(ctx)
		if err != nil {
			return err
		}
		result.UserCount = n
		return nil
	})
	k.run("upcoming events", func(ctx context.Context) error {
		n, err := deps.Store.CountUpcomingOccurrences(ctx, now)
		if err != nil {
			return err
		}
		result.UpcomingCount = n
		return nil
	})
	k.run("next event", func(ctx context.Context) error {
		occ, err := deps.Store.NextOccurrence(ctx, now)
		if err != nil {
			return err
		}
		result.NextOccurrence = occ
		return nil
	})

	result.Errors = k.wait([]string{"total donations", "donations this year", "donations this month", "users", "upcoming events", "next event"})
	return result, nil
}
