package orchestrators

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"outreach/internal/domain/donation"
	"outreach/internal/domain/event"
	"outreach/internal/domain/milestone"
)

// mockEventStore implements TemplateStoreForManage and OccurrenceStoreForManage.
type mockEventStore struct {
	templates   map[int64]event.Template
	occurrences map[int64]event.Occurrence
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{templates: map[int64]event.Template{}, occurrences: map[int64]event.Occurrence{}}
}

func errNoRows(what string) error { return fmt.Errorf("%s not found: %w", what, sql.ErrNoRows) }

func (m *mockEventStore) GetTemplate(_ context.Context, id int64) (event.Template, error) {
	t, ok := m.templates[id]
	if !ok {
		return event.Template{}, errNoRows("event template")
	}
	return t, nil
}

func (m *mockEventStore) CreateTemplate(_ context.Context, t event.Template) (int64, error) {
	t.ID = int64(len(m.templates) + 1)
	m.templates[t.ID] = t
	return t.ID, nil
}

func (m *mockEventStore) UpdateTemplate(_ context.Context, t event.Template) error {
	if _, ok := m.templates[t.ID]; !ok {
		return errNoRows("event template")
	}
	m.templates[t.ID] = t
	return nil
}

func (m *mockEventStore) DeleteTemplate(_ context.Context, id int64) error {
	if _, ok := m.templates[id]; !ok {
		return errNoRows("event template")
	}
	delete(m.templates, id)
	return nil
}

func (m *mockEventStore) GetOccurrence(_ context.Context, id int64) (event.Occurrence, error) {
	o, ok := m.occurrences[id]
	if !ok {
		return event.Occurrence{}, errNoRows("event occurrence")
	}
	return o, nil
}

func (m *mockEventStore) CreateOccurrence(_ context.Context, o event.Occurrence) (int64, error) {
	o.ID = int64(len(m.occurrences) + 1)
	m.occurrences[o.ID] = o
	return o.ID, nil
}

func (m *mockEventStore) UpdateOccurrence(_ context.Context, o event.Occurrence) error {
	if _, ok := m.occurrences[o.ID]; !ok {
		return errNoRows("event occurrence")
	}
	m.occurrences[o.ID] = o
	return nil
}

func (m *mockEventStore) DeleteOccurrence(_ context.Context, id int64) error {
	if _, ok := m.occurrences[id]; !ok {
		return errNoRows("event occurrence")
	}
	delete(m.occurrences, id)
	return nil
}

// TestExecuteSaveOccurrence_InheritsDefaults fills name and capacity from the template.
func TestExecuteSaveOccurrence_InheritsDefaults(t *testing.T) {
	store := newMockEventStore()
	deps := ManageEventsDeps{TemplateStore: store, OccurrenceStore: store}

	tid, err := ExecuteSaveTemplate(context.Background(), TemplateInput{Name: " Coding Club ", Type: "workshop", DefaultCapacity: "12"}, deps)
	if err != nil {
		t.Fatalf("save template: %v", err)
	}
	oid, err := ExecuteSaveOccurrence(context.Background(), OccurrenceInput{
		TemplateID: tid,
		StartAt:    "2026-04-04T10:00",
		EndAt:      "2026-04-04T12:00",
		Location:   "Library",
	}, deps)
	if err != nil {
		t.Fatalf("save occurrence: %v", err)
	}

	got := store.occurrences[oid]
	if got.Name != "Coding Club" {
		t.Errorf("name = %q, want template name", got.Name)
	}
	if got.Capacity == nil || *got.Capacity != 12 {
		t.Errorf("capacity = %v, want 12", got.Capacity)
	}
	want := time.Date(2026, 4, 4, 10, 0, 0, 0, time.UTC)
	if !got.StartAt.Equal(want) {
		t.Errorf("start = %v, want %v", got.StartAt, want)
	}

	// Explicit values win over defaults.
	oid, err = ExecuteSaveOccurrence(context.Background(), OccurrenceInput{
		TemplateID: tid, Name: "Coding Club: Games", StartAt: "2026-04-11T10:00", Capacity: "4",
	}, deps)
	if err != nil {
		t.Fatalf("save occurrence: %v", err)
	}
	if got := store.occurrences[oid]; got.Name != "Coding Club: Games" || *got.Capacity != 4 {
		t.Errorf("occurrence = %+v", got)
	}
}

// TestExecuteSaveOccurrence_DeadlineAfterStartStored accepts a deadline later
// than the start as entered.
func TestExecuteSaveOccurrence_DeadlineAfterStartStored(t *testing.T) {
	store := newMockEventStore()
	deps := ManageEventsDeps{TemplateStore: store, OccurrenceStore: store}
	tid, _ := ExecuteSaveTemplate(context.Background(), TemplateInput{Name: "Mentoring"}, deps)

	oid, err := ExecuteSaveOccurrence(context.Background(), OccurrenceInput{
		TemplateID: tid, StartAt: "2026-04-04T10:00", RegistrationDeadline: "2026-04-05T10:00",
	}, deps)
	if err != nil {
		t.Fatalf("save occurrence: %v", err)
	}
	want := time.Date(2026, 4, 5, 10, 0, 0, 0, time.UTC)
	if got := store.occurrences[oid].RegistrationDeadline; got == nil || !got.Equal(want) {
		t.Errorf("deadline = %v, want %v", got, want)
	}
}

// TestExecuteSaveOccurrence_Invalid rejects bad forms and unknown templates.
func TestExecuteSaveOccurrence_Invalid(t *testing.T) {
	store := newMockEventStore()
	deps := ManageEventsDeps{TemplateStore: store, OccurrenceStore: store}
	tid, _ := ExecuteSaveTemplate(context.Background(), TemplateInput{Name: "Mentoring"}, deps)

	tests := []struct {
		name  string
		input OccurrenceInput
		want  error
	}{
		{"unknown template", OccurrenceInput{TemplateID: 99, StartAt: "2026-04-04T10:00"}, ErrNotFound},
		{"end before start", OccurrenceInput{TemplateID: tid, StartAt: "2026-04-04T10:00", EndAt: "2026-04-04T09:00"}, event.ErrEndBeforeStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ExecuteSaveOccurrence(context.Background(), tt.input, deps); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	var ve *ValidationError
	if _, err := ExecuteSaveOccurrence(context.Background(), OccurrenceInput{TemplateID: tid, StartAt: "next tuesday"}, deps); !errors.As(err, &ve) {
		t.Errorf("err = %v, want *ValidationError", err)
	}
	if _, err := ExecuteSaveTemplate(context.Background(), TemplateInput{Name: "X", DefaultCapacity: "-1"}, deps); !errors.As(err, &ve) {
		t.Errorf("err = %v, want *ValidationError", err)
	}
}

// TestExecuteDeleteTemplate maps a miss to ErrNotFound.
func TestExecuteDeleteTemplate(t *testing.T) {
	store := newMockEventStore()
	deps := ManageEventsDeps{TemplateStore: store, OccurrenceStore: store}
	if err := ExecuteDeleteTemplate(context.Background(), 1, deps); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := ExecuteDeleteOccurrence(context.Background(), 1, deps); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// mockMilestoneStore implements MilestoneStoreForManage.
type mockMilestoneStore struct {
	milestones map[int64]milestone.Milestone
	awards     map[[2]int64]time.Time
}

func (m *mockMilestoneStore) GetByID(_ context.Context, id int64) (milestone.Milestone, error) {
	ms, ok := m.milestones[id]
	if !ok {
		return milestone.Milestone{}, errNoRows("milestone")
	}
	return ms, nil
}

func (m *mockMilestoneStore) Create(_ context.Context, ms milestone.Milestone) (int64, error) {
	ms.ID = int64(len(m.milestones) + 1)
	m.milestones[ms.ID] = ms
	return ms.ID, nil
}

func (m *mockMilestoneStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.milestones[id]; !ok {
		return errNoRows("milestone")
	}
	delete(m.milestones, id)
	return nil
}

func (m *mockMilestoneStore) Award(_ context.Context, um milestone.UserMilestone) error {
	key := [2]int64{um.UserID, um.MilestoneID}
	if _, ok := m.awards[key]; !ok {
		m.awards[key] = um.AchievedAt
	}
	return nil
}

func (m *mockMilestoneStore) Revoke(_ context.Context, userID, milestoneID int64) error {
	key := [2]int64{userID, milestoneID}
	if _, ok := m.awards[key]; !ok {
		return errNoRows("user milestone")
	}
	delete(m.awards, key)
	return nil
}

// TestMilestoneLifecycle creates, awards twice, and revokes.
func TestMilestoneLifecycle(t *testing.T) {
	store := &mockMilestoneStore{milestones: map[int64]milestone.Milestone{}, awards: map[[2]int64]time.Time{}}
	first := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	deps := ManageMilestonesDeps{MilestoneStore: store, Now: func() time.Time { return first }}

	if _, err := ExecuteCreateMilestone(context.Background(), "   ", deps); !errors.Is(err, milestone.ErrEmptyTitle) {
		t.Errorf("err = %v, want ErrEmptyTitle", err)
	}
	id, err := ExecuteCreateMilestone(context.Background(), "First workshop", deps)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := ExecuteAwardMilestone(context.Background(), AwardMilestoneInput{UserID: 7, MilestoneID: id}, deps); err != nil {
		t.Fatalf("award: %v", err)
	}
	deps.Now = func() time.Time { return first.AddDate(0, 1, 0) }
	if err := ExecuteAwardMilestone(context.Background(), AwardMilestoneInput{UserID: 7, MilestoneID: id}, deps); err != nil {
		t.Fatalf("award again: %v", err)
	}
	if got := store.awards[[2]int64{7, id}]; !got.Equal(first) {
		t.Errorf("achieved_at = %v, want original %v", got, first)
	}

	if err := ExecuteAwardMilestone(context.Background(), AwardMilestoneInput{UserID: 7, MilestoneID: 99}, deps); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := ExecuteRevokeMilestone(context.Background(), AwardMilestoneInput{UserID: 7, MilestoneID: id}, deps); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := ExecuteRevokeMilestone(context.Background(), AwardMilestoneInput{UserID: 7, MilestoneID: id}, deps); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// mockDonationStore implements DonationStoreForRecord.
type mockDonationStore struct {
	saved []donation.Donation
}

func (m *mockDonationStore) Create(_ context.Context, d donation.Donation) (int64, error) {
	d.ID = int64(len(m.saved) + 1)
	m.saved = append(m.saved, d)
	return d.ID, nil
}

func (m *mockDonationStore) Delete(_ context.Context, id int64) error {
	for i, d := range m.saved {
		if d.ID == id {
			m.saved = append(m.saved[:i], m.saved[i+1:]...)
			return nil
		}
	}
	return errNoRows("donation")
}

// TestExecuteRecordDonation covers attribution, parsing and dates.
func TestExecuteRecordDonation(t *testing.T) {
	now := time.Date(2026, 6, 15, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name      string
		input     RecordDonationInput
		wantUser  int64
		wantCents int64
		wantAt    time.Time
		wantErr   error
	}{
		{"anonymous", RecordDonationInput{Amount: "25"}, 1, 2500, now, nil},
		{"signed in", RecordDonationInput{UserID: 7, Amount: "$1,234.5"}, 7, 123450, now, nil},
		{"backdated", RecordDonationInput{UserID: 7, Amount: "10.00", DonatedOn: "2026-01-31"}, 7, 1000, time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC), nil},
		{"zero", RecordDonationInput{Amount: "0"}, 0, 0, time.Time{}, donation.ErrNonPositive},
		{"three decimals", RecordDonationInput{Amount: "1.005"}, 0, 0, time.Time{}, donation.ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockDonationStore{}
			deps := RecordDonationDeps{DonationStore: store, AnonymousDonorID: 1, Now: func() time.Time { return now }}
			got, err := ExecuteRecordDonation(context.Background(), tt.input, deps)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if len(store.saved) != 0 {
					t.Error("nothing should be saved on error")
				}
				return
			}
			if got.UserID != tt.wantUser || got.AmountCents != tt.wantCents || !got.DonatedAt.Equal(tt.wantAt) {
				t.Errorf("donation = %+v", got)
			}
		})
	}
}

// TestExecuteDeleteDonation maps a miss to ErrNotFound.
func TestExecuteDeleteDonation(t *testing.T) {
	store := &mockDonationStore{}
	deps := RecordDonationDeps{DonationStore: store, AnonymousDonorID: 1}
	d, err := ExecuteRecordDonation(context.Background(), RecordDonationInput{Amount: "5"}, deps)
	if err != nil {
		t.Fatal(err)
	}
	if err := ExecuteDeleteDonation(context.Background(), d.ID, deps); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ExecuteDeleteDonation(context.Background(), d.ID, deps); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
