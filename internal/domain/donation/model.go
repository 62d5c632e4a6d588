package donation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxAmountCents caps a single recorded donation at one million.
const MaxAmountCents int64 = 100_000_000

// Domain errors
var (
	ErrInvalidAmount  = errors.New("amount must be a number with at most two decimals")
	ErrNonPositive    = errors.New("amount must be greater than zero")
	ErrAmountTooLarge = errors.New("amount exceeds the maximum single donation")
	ErrEmptyUser      = errors.New("donation must reference a donor")
)

// Donation is a bookkeeping record of money given by a user. No payment is processed.
type Donation struct {
	ID          int64
	UserID      int64
	DonorName   string // populated by list queries
	DonorEmail  string // populated by list queries
	AmountCents int64
	DonatedAt   time.Time
}

// Validate checks if the Donation has valid data.
// PRE: Donation struct is populated
// POST: Returns nil if valid, error otherwise
func (d *Donation) Validate() error {
	if d.UserID == 0 {
		return ErrEmptyUser
	}
	if d.AmountCents <= 0 {
		return ErrNonPositive
	}
	if d.AmountCents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

// Amount renders the donation with two decimals.
func (d Donation) Amount() string {
	return FormatCents(d.AmountCents)
}

// ParseAmount converts a decimal string such as "12.5" or "1,000.00" to cents.
// PRE: s is user input
// POST: Returns a positive cent value or a domain error
func ParseAmount(s string) (int64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if hasFrac && (len(frac) == 0 || len(frac) > 2) {
		return 0, ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}
	w, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	f, err := strconv.ParseInt(frac, 10, 64)
	if err != nil || f < 0 {
		return 0, ErrInvalidAmount
	}
	if w < 0 {
		return 0, ErrNonPositive
	}
	if w > MaxAmountCents/100 {
		return 0, ErrAmountTooLarge
	}
	cents := w*100 + f
	if cents <= 0 {
		return 0, ErrNonPositive
	}
	if cents > MaxAmountCents {
		return 0, ErrAmountTooLarge
	}
	return cents, nil
}

// FormatCents renders cents as a decimal with two places, e.g. 1250 -> "12.50".
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
