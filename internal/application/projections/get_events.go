package projections

import (
	"context"
	"time"

	"outreach/internal/adapters/storage/event"
	"outreach/internal/adapters/storage/registration"
	"outreach/internal/application/listutil"
)

// GetEventsQuery carries input for the public events list.
type GetEventsQuery struct {
	Filter string // "upcoming" (default) or "past"
	Params listutil.ListParams
	UserID int64 // zero for anonymous visitors
}

// EventsResult is one page of the events list.
type EventsResult struct {
	ListResult[event.OccurrenceRow]
	Filter string
}

// QueryGetEvents lists upcoming (soonest first) or past (most recent first) occurrences.
// PRE: none
// POST: Filter is "upcoming" or "past"; read errors are reported in Errors
func QueryGetEvents(ctx context.Context, query GetEventsQuery, store OccurrenceListStore, now time.Time) (EventsResult, error) {
	when := event.WhenUpcoming
	if query.Filter == string(event.WhenPast) {
		when = event.WhenPast
	}
	filter := event.OccurrenceFilter{When: when, Now: now, Search: query.Params.Search, UserID: query.UserID}
	res, err := listPage(ctx, "events", query.Params,
		func(ctx context.Context) (int, error) { return store.CountOccurrences(ctx, filter) },
		func(ctx context.Context, p listutil.PageInfo) ([]event.OccurrenceRow, error) {
			filter.Page = p
			return store.ListOccurrences(ctx, filter)
		})
	if err != nil {
		return EventsResult{}, err
	}
	return EventsResult{ListResult: res, Filter: string(when)}, nil
}

// MyRegistrationsStore interface for a user's own registrations.
type MyRegistrationsStore interface {
	ListByUser(ctx context.Context, userID int64) ([]registration.Row, error)
}

// MyRegistration is a registration row with what the participant can do next.
type MyRegistration struct {
	registration.Row
	CanCancel bool
	SurveyDue bool
}

// MyRegistrationsResult is the signed-in user's registration list.
type MyRegistrationsResult struct {
	Registrations []MyRegistration
	Errors        []string
}

// QueryGetMyRegistrations lists the signed-in user's registrations.
// POST: Never fails; a read error yields an empty list and one message in Errors
func QueryGetMyRegistrations(ctx context.Context, userID int64, store MyRegistrationsStore, now time.Time) (MyRegistrationsResult, error) {
	rows, err := store.ListByUser(ctx, userID)
	if err != nil {
		return MyRegistrationsResult{Errors: []string{ReadFailed("registrations", err)}}, nil
	}
	out := make([]MyRegistration, len(rows))
	for i, r := range rows {
		out[i] = MyRegistration{
			Row:       r,
			CanCancel: r.IsActive() && r.StartAt.After(now),
			SurveyDue: r.SurveyDue(now),
		}
	}
	return MyRegistrationsResult{Registrations: out}, nil
}
