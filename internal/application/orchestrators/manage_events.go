package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"outreach/internal/domain/event"
)

// FormTimeLayout is the layout of an HTML datetime-local input.
const FormTimeLayout = "2006-01-02T15:04"

// TemplateStoreForManage defines the store interface needed to manage event templates.
type TemplateStoreForManage interface {
	GetTemplate(ctx context.Context, id int64) (event.Template, error)
	CreateTemplate(ctx context.Context, t event.Template) (int64, error)
	UpdateTemplate(ctx context.Context, t event.Template) error
	DeleteTemplate(ctx context.Context, id int64) error
}

// OccurrenceStoreForManage defines the store interface needed to manage event occurrences.
type OccurrenceStoreForManage interface {
	GetOccurrence(ctx context.Context, id int64) (event.Occurrence, error)
	CreateOccurrence(ctx context.Context, o event.Occurrence) (int64, error)
	UpdateOccurrence(ctx context.Context, o event.Occurrence) error
	DeleteOccurrence(ctx context.Context, id int64) error
}

// TemplateInput is the event template form. ID is zero on create.
type TemplateInput struct {
	ID                int64
	Name              string `validate:"required,max=200" label:"name"`
	Type              string `validate:"max=100" label:"type"`
	Description       string `validate:"max=10000" label:"description"`
	RecurrencePattern string `validate:"max=200" label:"recurrence pattern"`
	DefaultCapacity   string `validate:"omitempty,number" label:"default capacity"`
}

// OccurrenceInput is the event occurrence form. ID is zero on create. Times use FormTimeLayout.
type OccurrenceInput struct {
	ID                   int64
	TemplateID           int64  `validate:"gt=0" label:"event"`
	Name                 string `validate:"max=200" label:"name"`
	StartAt              string `validate:"required,datetime=2006-01-02T15:04" label:"start"`
	EndAt                string `validate:"omitempty,datetime=2006-01-02T15:04" label:"end"`
	Location             string `validate:"max=200" label:"location"`
	Capacity             string `validate:"omitempty,number" label:"capacity"`
	RegistrationDeadline string `validate:"omitempty,datetime=2006-01-02T15:04" label:"registration deadline"`
}

// ManageEventsDeps holds dependencies for the event admin orchestrators.
type ManageEventsDeps struct {
	TemplateStore   TemplateStoreForManage
	OccurrenceStore OccurrenceStoreForManage
	// Location interprets form times; nil means UTC.
	Location *time.Location
}

func (d ManageEventsDeps) location() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.UTC
}

// parseCapacity returns nil for an empty field.
func parseCapacity(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"capacity": "capacity must be a whole number"}}
	}
	return &n, nil
}

// parseFormTime returns nil for an empty field.
func parseFormTime(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(FormTimeLayout, s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ExecuteSaveTemplate creates or updates an event template.
// PRE: Caller is an admin
// POST: Returns the template ID
func ExecuteSaveTemplate(ctx context.Context, input TemplateInput, deps ManageEventsDeps) (int64, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Type = strings.TrimSpace(input.Type)
	if err := validateInput(input); err != nil {
		return 0, err
	}
	capacity, err := parseCapacity(input.DefaultCapacity)
	if err != nil {
		return 0, err
	}

	t := event.Template{
		ID:                input.ID,
		Name:              input.Name,
		Type:              input.Type,
		Description:       strings.TrimSpace(input.Description),
		RecurrencePattern: strings.TrimSpace(input.RecurrencePattern),
		DefaultCapacity:   capacity,
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}

	if t.ID == 0 {
		id, err := deps.TemplateStore.CreateTemplate(ctx, t)
		if err != nil {
			return 0, fmt.Errorf("create template: %w", err)
		}
		slog.Info("event_admin", "event", "template_created", "template_id", id)
		return id, nil
	}
	if err := deps.TemplateStore.UpdateTemplate(ctx, t); err != nil {
		return 0, notFound(err)
	}
	slog.Info("event_admin", "event", "template_updated", "template_id", t.ID)
	return t.ID, nil
}

// ExecuteDeleteTemplate deletes a template and, by cascade, its occurrences and their registrations.
func ExecuteDeleteTemplate(ctx context.Context, id int64, deps ManageEventsDeps) error {
	if err := deps.TemplateStore.DeleteTemplate(ctx, id); err != nil {
		return notFound(err)
	}
	slog.Info("event_admin", "event", "template_deleted", "template_id", id)
	return nil
}

// ExecuteSaveOccurrence creates or updates an occurrence. A blank name or
// capacity is inherited from the template.
// PRE: Caller is an admin
// POST: Returns the occurrence ID
func ExecuteSaveOccurrence(ctx context.Context, input OccurrenceInput, deps ManageEventsDeps) (int64, error) {
	if err := validateInput(input); err != nil {
		return 0, err
	}
	tmpl, err := deps.TemplateStore.GetTemplate(ctx, input.TemplateID)
	if err != nil {
		return 0, notFound(err)
	}

	loc := deps.location()
	start, err := parseFormTime(input.StartAt, loc)
	if err != nil {
		return 0, err
	}
	end, err := parseFormTime(input.EndAt, loc)
	if err != nil {
		return 0, err
	}
	deadline, err := parseFormTime(input.RegistrationDeadline, loc)
	if err != nil {
		return 0, err
	}
	capacity, err := parseCapacity(input.Capacity)
	if err != nil {
		return 0, err
	}

	o := event.Occurrence{
		ID:                   input.ID,
		TemplateID:           tmpl.ID,
		Name:                 strings.TrimSpace(input.Name),
		StartAt:              *start,
		EndAt:                end,
		Location:             strings.TrimSpace(input.Location),
		Capacity:             capacity,
		RegistrationDeadline: deadline,
	}
	o.ApplyDefaults(tmpl)
	if err := o.Validate(); err != nil {
		return 0, err
	}

	if o.ID == 0 {
		id, err := deps.OccurrenceStore.CreateOccurrence(ctx, o)
		if err != nil {
			return 0, fmt.Errorf("create occurrence: %w", err)
		}
		slog.Info("event_admin", "event", "occurrence_created", "occurrence_id", id, "template_id", tmpl.ID)
		return id, nil
	}
	if err := deps.OccurrenceStore.UpdateOccurrence(ctx, o); err != nil {
		return 0, notFound(err)
	}
	slog.Info("event_admin", "event", "occurrence_updated", "occurrence_id", o.ID)
	return o.ID, nil
}

// ExecuteDeleteOccurrence deletes an occurrence and, by cascade, its registrations and surveys.
func ExecuteDeleteOccurrence(ctx context.Context, id int64, deps ManageEventsDeps) error {
	if err := deps.OccurrenceStore.DeleteOccurrence(ctx, id); err != nil {
		return notFound(err)
	}
	slog.Info("event_admin", "event", "occurrence_deleted", "occurrence_id", id)
	return nil
}
