package registration

import (
	"context"
	"time"

	"outreach/internal/application/listutil"
	eventdomain "outreach/internal/domain/event"
	domain "outreach/internal/domain/registration"
)

// Store persists Registration state.
type Store interface {
	GetByID(ctx context.Context, id int64) (domain.Registration, error)
	// WithinTx runs fn in one write transaction; fn's reads see no concurrent writes.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
	SetStatus(ctx context.Context, id int64, status string) error
	MarkAttended(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]Row, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	ListByUser(ctx context.Context, userID int64) ([]Row, error)
}

// Tx is the view of the store available inside WithinTx.
type Tx interface {
	GetOccurrence(ctx context.Context, id int64) (eventdomain.Occurrence, error)
	Exists(ctx context.Context, userID, occurrenceID int64) (bool, error)
	CountActive(ctx context.Context, occurrenceID int64) (int, error)
	Insert(ctx context.Context, value domain.Registration) (int64, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Search string
	Page   listutil.PageInfo
}

// Row is a registration joined with its user, occurrence and survey state.
type Row struct {
	domain.Registration
	UserName       string
	UserEmail      string
	OccurrenceName string
	StartAt        time.Time
	EndAt          *time.Time
	Location       string
	HasSurvey      bool
}

// EndsAt returns the end of the occurrence, or its start when no end is set.
func (r Row) EndsAt() time.Time {
	if r.EndAt != nil {
		return *r.EndAt
	}
	return r.StartAt
}

// SurveyDue reports whether the participant can still submit a survey.
func (r Row) SurveyDue(now time.Time) bool {
	return r.IsActive() && !r.HasSurvey && r.EndsAt().Before(now)
}
