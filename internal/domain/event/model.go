package event

import (
	"errors"
	"strings"
	"time"
)

// Domain errors
var (
	ErrEmptyName        = errors.New("event name cannot be empty")
	ErrEmptyTemplate    = errors.New("occurrence must belong to a template")
	ErrMissingStart     = errors.New("occurrence start time is required")
	ErrEndBeforeStart   = errors.New("occurrence cannot end before it starts")
	ErrNegativeCapacity = errors.New("capacity cannot be negative")
)

// Template is the reusable definition of a kind of event.
type Template struct {
	ID                int64
	Name              string
	Type              string
	Description       string // Markdown
	RecurrencePattern string // free text, e.g. "Every other Saturday"
	DefaultCapacity   *int   // nil means unlimited
}

// Validate checks if the Template has valid data.
// PRE: Template struct is populated
// POST: Returns nil if valid, error otherwise
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if t.DefaultCapacity != nil && *t.DefaultCapacity < 0 {
		return ErrNegativeCapacity
	}
	return nil
}

// Occurrence is one scheduled, dated instance of a Template.
type Occurrence struct {
	ID                   int64
	TemplateID           int64
	Name                 string
	StartAt              time.Time
	EndAt                *time.Time
	Location             string
	Capacity             *int       // nil means unlimited
	RegistrationDeadline *time.Time // nil means open until start
}

// Validate checks if the Occurrence has valid data.
// A deadline later than the start is rejected at entry; the registration engine
// still checks both independently.
// PRE: Occurrence struct is populated
// POST: Returns nil if valid, error otherwise
func (o *Occurrence) Validate() error {
	if o.TemplateID == 0 {
		return ErrEmptyTemplate
	}
	if strings.TrimSpace(o.Name) == "" {
		return ErrEmptyName
	}
	if o.StartAt.IsZero() {
		return ErrMissingStart
	}
	if o.EndAt != nil && o.EndAt.Before(o.StartAt) {
		return ErrEndBeforeStart
	}
	if o.Capacity != nil && *o.Capacity < 0 {
		return ErrNegativeCapacity
	}
	return nil
}

// ApplyDefaults fills an empty name and capacity from the template.
// POST: Name and Capacity are set from t when unset on o
func (o *Occurrence) ApplyDefaults(t Template) {
	if strings.TrimSpace(o.Name) == "" {
		o.Name = t.Name
	}
	if o.Capacity == nil && t.DefaultCapacity != nil {
		c := *t.DefaultCapacity
		o.Capacity = &c
	}
}

// HasStarted reports whether the occurrence start is at or before now.
func (o *Occurrence) HasStarted(now time.Time) bool {
	return !o.StartAt.After(now)
}

// DeadlinePassed reports whether a registration deadline is set and already behind now.
func (o *Occurrence) DeadlinePassed(now time.Time) bool {
	return o.RegistrationDeadline != nil && o.RegistrationDeadline.Before(now)
}

// IsFull reports whether count active registrations exhaust a set capacity.
func (o *Occurrence) IsFull(count int) bool {
	return o.Capacity != nil && count >= *o.Capacity
}

// EndsAt returns the end time, falling back to the start when no end is recorded.
func (o *Occurrence) EndsAt() time.Time {
	if o.EndAt != nil {
		return *o.EndAt
	}
	return o.StartAt
}
