package survey

import (
	"context"

	"outreach/internal/application/listutil"
	domain "outreach/internal/domain/survey"
)

// Store persists Survey state.
type Store interface {
	GetByRegistration(ctx context.Context, registrationID int64) (domain.Survey, error)
	Create(ctx context.Context, value domain.Survey) (int64, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter ListFilter) ([]Row, error)
	Count(ctx context.Context, filter ListFilter) (int, error)
	Summary(ctx context.Context) (Summary, error)
}

// ListFilter carries filtering parameters for List operations.
type ListFilter struct {
	Search string
	Page   listutil.PageInfo
}

// Row is a survey joined with who answered it and for which occurrence.
type Row struct {
	domain.Survey
	UserName       string
	OccurrenceName string
}

// Summary aggregates every stored survey.
type Summary struct {
	Responses         int
	AvgSatisfaction   float64
	AvgUsefulness     float64
	AvgInstructor     float64
	AvgRecommendation float64
	AvgOverall        float64
	Promoters         int
	Passives          int
	Detractors        int
}

// NPS returns the net promoter score (percentage promoters minus detractors).
func (s Summary) NPS() float64 {
	if s.Responses == 0 {
		return 0
	}
	return float64(s.Promoters-s.Detractors) * 100 / float64(s.Responses)
}
