package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"outreach/internal/adapters/storage"
	"outreach/internal/domain/donation"
)

// DonationStoreForRecord defines the store interface needed by the donation orchestrators.
type DonationStoreForRecord interface {
	Create(ctx context.Context, d donation.Donation) (int64, error)
	Delete(ctx context.Context, id int64) error
}

// RecordDonationInput carries input for the donation orchestrator. A zero
// UserID attributes the donation to the anonymous donor. DonatedOn is an
// optional YYYY-MM-DD date; it defaults to now.
type RecordDonationInput struct {
	UserID    int64
	Amount    string `validate:"required" label:"amount"`
	DonatedOn string `validate:"omitempty,datetime=2006-01-02" label:"date"`
}

// RecordDonationDeps holds dependencies for RecordDonation.
type RecordDonationDeps struct {
	DonationStore    DonationStoreForRecord
	AnonymousDonorID int64
	Now              func() time.Time
}

// ExecuteRecordDonation books a donation. No payment is taken.
// PRE: Amount is user input
// POST: Returns the stored donation with its ID
func ExecuteRecordDonation(ctx context.Context, input RecordDonationInput, deps RecordDonationDeps) (donation.Donation, error) {
	input.Amount = strings.TrimSpace(input.Amount)
	input.DonatedOn = strings.TrimSpace(input.DonatedOn)
	if err := validateInput(input); err != nil {
		return donation.Donation{}, err
	}
	cents, err := donation.ParseAmount(input.Amount)
	if err != nil {
		return donation.Donation{}, err
	}

	d := donation.Donation{UserID: input.UserID, AmountCents: cents, DonatedAt: nowFrom(deps.Now)}
	if d.UserID == 0 {
		d.UserID = deps.AnonymousDonorID
	}
	if input.DonatedOn != "" {
		on, err := time.Parse("2006-01-02", input.DonatedOn)
		if err != nil {
			return donation.Donation{}, err
		}
		d.DonatedAt = on
	}
	if err := d.Validate(); err != nil {
		return donation.Donation{}, err
	}

	id, err := deps.DonationStore.Create(ctx, d)
	if err != nil {
		if storage.IsForeignKeyViolation(err) {
			return donation.Donation{}, ErrNotFound
		}
		return donation.Donation{}, fmt.Errorf("create donation: %w", err)
	}
	d.ID = id

	slog.Info("donation_event", "event", "recorded", "donation_id", id, "user_id", d.UserID,
		"anonymous", d.UserID == deps.AnonymousDonorID, "amount_cents", d.AmountCents)
	return d, nil
}

// ExecuteDeleteDonation removes a donation record.
func ExecuteDeleteDonation(ctx context.Context, id int64, deps RecordDonationDeps) error {
	if err := deps.DonationStore.Delete(ctx, id); err != nil {
		return notFound(err)
	}
	slog.Info("donation_event", "event", "deleted", "donation_id", id)
	return nil
}
