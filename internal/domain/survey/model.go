package survey

import (
	"errors"
	"time"
)

// NPS buckets derived from the recommendation score.
const (
	BucketPromoter  = "Promoter"
	BucketPassive   = "Passive"
	BucketDetractor = "Detractor"
)

// Score bounds for every sub-score.
const (
	MinScore = 1
	MaxScore = 5
)

// ErrScoreOutOfRange is returned when a sub-score falls outside [MinScore, MaxScore].
var ErrScoreOutOfRange = errors.New("scores must be between 1 and 5")

// Scores are the four sub-scores a participant gives after an event.
type Scores struct {
	Satisfaction   int
	Usefulness     int
	Instructor     int
	Recommendation int
}

// Validate checks every sub-score is in range.
func (s Scores) Validate() error {
	for _, v := range []int{s.Satisfaction, s.Usefulness, s.Instructor, s.Recommendation} {
		if v < MinScore || v > MaxScore {
			return ErrScoreOutOfRange
		}
	}
	return nil
}

// Overall is the unrounded arithmetic mean of the four sub-scores.
func (s Scores) Overall() float64 {
	return float64(s.Satisfaction+s.Usefulness+s.Instructor+s.Recommendation) / 4
}

// Bucket classifies the recommendation score: >=4 Promoter, <3 Detractor, otherwise Passive.
// This is a fixed rule on the 1-5 scale, not the 0-10 NPS scale.
func (s Scores) Bucket() string {
	switch {
	case s.Recommendation >= 4:
		return BucketPromoter
	case s.Recommendation < 3:
		return BucketDetractor
	default:
		return BucketPassive
	}
}

// Survey is the post-event feedback attached to one registration.
type Survey struct {
	ID             int64
	RegistrationID int64
	Scores
	OverallScore float64
	NPSBucket    string
	Comments     string
	SubmittedAt  time.Time
}

// New builds a scored survey for a registration.
// PRE: scores have been validated
// POST: OverallScore and NPSBucket are derived from scores
func New(registrationID int64, scores Scores, comments string, now time.Time) Survey {
	return Survey{
		RegistrationID: registrationID,
		Scores:         scores,
		OverallScore:   scores.Overall(),
		NPSBucket:      scores.Bucket(),
		Comments:       comments,
		SubmittedAt:    now,
	}
}
