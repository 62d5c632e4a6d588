package event

import (
	"context"
	"time"

	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/event"
)

// TemplateStore persists event templates.
type TemplateStore interface {
	GetTemplate(ctx context.Context, id int64) (domain.Template, error)
	CreateTemplate(ctx context.Context, value domain.Template) (int64, error)
	UpdateTemplate(ctx context.Context, value domain.Template) error
	DeleteTemplate(ctx context.Context, id int64) error
	ListTemplates(ctx context.Context, filter ListFilter) ([]domain.Template, error)
	CountTemplates(ctx context.Context, filter ListFilter) (int, error)
	ListAllTemplates(ctx context.Context) ([]domain.Template, error)
}

// OccurrenceStore persists event occurrences.
type OccurrenceStore interface {
	GetOccurrence(ctx context.Context, id int64) (domain.Occurrence, error)
	CreateOccurrence(ctx context.Context, value domain.Occurrence) (int64, error)
	UpdateOccurrence(ctx context.Context, value domain.Occurrence) error
	DeleteOccurrence(ctx context.Context, id int64) error
	ListOccurrences(ctx context.Context, filter OccurrenceFilter) ([]OccurrenceRow, error)
	CountOccurrences(ctx context.Context, filter OccurrenceFilter) (int, error)
	ListAllOccurrences(ctx context.Context) ([]domain.Occurrence, error)
}

// ListFilter carries filtering parameters for template lists.
type ListFilter struct {
	Search string
	Page   listutil.PageInfo
}

// When selects occurrences relative to a reference time.
type When string

// When values
const (
	WhenAll      When = ""
	WhenUpcoming When = "upcoming" // start_at >= now, soonest first
	WhenPast     When = "past"     // start_at < now, most recent first
)

// OccurrenceFilter carries filtering parameters for occurrence lists.
type OccurrenceFilter struct {
	When   When
	Now    time.Time
	Search string
	Page   listutil.PageInfo
	UserID int64 // when non-zero, rows report whether this user holds a registration
}

// OccurrenceRow is an occurrence enriched for list views.
type OccurrenceRow struct {
	domain.Occurrence
	TemplateName      string
	TemplateType      string
	Description       string
	RegistrationCount int  // active (non-cancelled) registrations
	UserRegistered    bool // the filter's user has a registration row, cancelled or not
}

// SpotsLeft returns remaining capacity, or -1 when unlimited.
func (r OccurrenceRow) SpotsLeft() int {
	if r.Capacity == nil {
		return -1
	}
	if left := *r.Capacity - r.RegistrationCount; left > 0 {
		return left
	}
	return 0
}
