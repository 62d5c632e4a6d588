package projections

import (
	"context"
	"math"

	"outreach/internal/adapters/storage/survey"
)

// SurveySummaryStore interface for aggregate survey queries.
type SurveySummaryStore interface {
	Summary(ctx context.Context) (survey.Summary, error)
}

// AnalyticsResult is the public survey analytics page.
type AnalyticsResult struct {
	survey.Summary
	NPS            float64 // promoters% minus detractors%, one decimal
	PromoterShare  float64 // percentages, one decimal
	PassiveShare   float64
	DetractorShare float64
	Errors         []string
}

// QueryGetAnalytics aggregates every submitted survey. No individual
// response is exposed.
// POST: Never fails; a read error yields zero figures and one message in Errors
func QueryGetAnalytics(ctx context.Context, store SurveySummaryStore) (AnalyticsResult, error) {
	s, err := store.Summary(ctx)
	if err != nil {
		return AnalyticsResult{Errors: []string{ReadFailed("survey results", err)}}, nil
	}
	res := AnalyticsResult{Summary: s, NPS: round1(s.NPS())}
	if s.Responses > 0 {
		n := float64(s.Responses)
		res.PromoterShare = round1(float64(s.Promoters) * 100 / n)
		res.PassiveShare = round1(float64(s.Passives) * 100 / n)
		res.DetractorShare = round1(float64(s.Detractors) * 100 / n)
	}
	return res, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
