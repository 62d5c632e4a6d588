package projections

import (
	"context"

	"outreach/internal/adapters/storage/donation"
	"outreach/internal/adapters/storage/event"
	"outreach/internal/adapters/storage/milestone"
	"outreach/internal/adapters/storage/registration"
	"outreach/internal/adapters/storage/survey"
	"outreach/internal/adapters/storage/user"
	"outreach/internal/application/listutil"
	domainDonation "outreach/internal/domain/donation"
	domainEvent "outreach/internal/domain/event"
	domainMilestone "outreach/internal/domain/milestone"
	domainUser "outreach/internal/domain/user"
)

// UserListStore interface for user list queries.
type UserListStore interface {
	List(ctx context.Context, filter user.ListFilter) ([]domainUser.User, error)
	Count(ctx context.Context, filter user.ListFilter) (int, error)
}

// TemplateListStore interface for event template list queries.
type TemplateListStore interface {
	ListTemplates(ctx context.Context, filter event.ListFilter) ([]domainEvent.Template, error)
	CountTemplates(ctx context.Context, filter event.ListFilter) (int, error)
}

// OccurrenceListStore interface for event occurrence list queries.
type OccurrenceListStore interface {
	ListOccurrences(ctx context.Context, filter event.OccurrenceFilter) ([]event.OccurrenceRow, error)
	CountOccurrences(ctx context.Context, filter event.OccurrenceFilter) (int, error)
}

// RegistrationListStore interface for registration list queries.
type RegistrationListStore interface {
	List(ctx context.Context, filter registration.ListFilter) ([]registration.Row, error)
	Count(ctx context.Context, filter registration.ListFilter) (int, error)
}

// SurveyListStore interface for survey list queries.
type SurveyListStore interface {
	List(ctx context.Context, filter survey.ListFilter) ([]survey.Row, error)
	Count(ctx context.Context, filter survey.ListFilter) (int, error)
}

// MilestoneListStore interface for milestone list queries.
type MilestoneListStore interface {
	List(ctx context.Context, filter milestone.ListFilter) ([]domainMilestone.Milestone, error)
	Count(ctx context.Context, filter milestone.ListFilter) (int, error)
}

// DonationListStore interface for donation list queries.
type DonationListStore interface {
	List(ctx context.Context, filter donation.ListFilter) ([]domainDonation.Donation, error)
	Count(ctx context.Context, filter donation.ListFilter) (int, error)
}

// QueryListUsers returns one page of users matching the search.
func QueryListUsers(ctx context.Context, params listutil.ListParams, store UserListStore) (ListResult[domainUser.User], error) {
	filter := user.ListFilter{Search: params.Search}
	return listPage(ctx, "users", params,
		func(ctx context.Context) (int, error) { return store.Count(ctx, filter) },
		func(ctx context.Context, p listutil.PageInfo) ([]domainUser.User, error) {
			filter.Page = p
			return store.List(ctx, filter)
		})
}

// QueryListTemplates returns one page of event templates matching the search.
func QueryListTemplates(ctx context.Context, params listutil.ListParams, store TemplateListStore) (ListResult[domainEvent.Template], error) {
	filter := event.ListFilter{Search: params.Search}
	return listPage(ctx, "event templates", params,
		func(ctx context.Context) (int, error) { return store.CountTemplates(ctx, filter) },
		func(ctx context.Context, p listutil.PageInfo) ([]domainEvent.Template, error) {
			filter.Page = p
			return store.ListTemplates(ctx, filter)
		})
}

// QueryListOccurrences returns one page of all occurrences, newest first, for admins.
func QueryListOccurrences(ctx context.Context, params listutil.ListParams, store OccurrenceListStore) (ListResult[event.OccurrenceRow], error) {
	filter := event.OccurrenceFilter{When: event.WhenAll, Search: params.Search}
	return listPage(ctx, "event occurrences", params,
		func(ctx context.Context) (int, error) { return store.CountOccurrences(ctx, filter) },
		func(ctx context.Context, p listutil.PageInfo) ([]event.OccurrenceRow, error) {
			filter.Page = p
			return store.ListOccurrences(ctx, filter)
		})
}

// QueryListRegistrations returns one page of registrations matching the search.
func QueryListRegistrations(ctx context.Context, params listutil.ListParams, store RegistrationListStore) (ListResult[registration.Row], error) {
	filter := registration.ListFilter{Search: params.Search}
	return listPage(ctx, "registrations", params,
		func(ctx context.Context) (int, error) { return store.Count(ctx, filter) },
		func(ctx context.Context, p listutil.PageInfo) ([]registration.Row, error) {
			filter.Page = p
			return store.List(ctx, filter)
		})
}

// QueryListSurveys returns one page of surveys matching the search.
func QueryListSurveys(ctx context.Context, params listutil.ListParams, store SurveyListStore) (ListResult[survey.Row], error) {
	filter := survey.ListFilter{Search: params.Search}
	return listPage(ctx, "surveys", params,
		func(ctx context.Context) (int, error) { return store.Count(ctx, filter) },
		func(ctx context.Context, p listutil.PageInfo) ([]survey.Row, error) {
			filter.Page = p
			return store.List(ctx, filter)
		})
}

// QueryListMilestones returns one page of milestones matching the search.
func QueryListMilestones(ctx context.Context, params listutil.ListParams, store MilestoneListStore) (ListResult[domainMilestone.Milestone], error) {
	filter := milestone.ListFilter{Search: params.Search}
	return listPage(ctx, "milestones", params,
		func(ctx context.Context) (int, error) { return store.Count(ctx, filter) },
		func(ctx context.Context, p listutil.PageInfo) ([]domainMilestone.Milestone, error) {
			filter.Page = p
			return store.List(ctx, filter)
		})
}

// QueryListDonations returns one page of donations matching the search.
func QueryListDonations(ctx context.Context, params listutil.ListParams, store DonationListStore) (ListResult[domainDonation.Donation], error) {
	filter := donation.ListFilter{Search: params.Search}
	return listPage(ctx, "donations", params,
		func(ctx context.Context) (int, error) { return store.Count(ctx, filter) },
		func(ctx context.Context, p listutil.PageInfo) ([]domainDonation.Donation, error) {
			filter.Page = p
			return store.List(ctx, filter)
		})
}
