package rating

import (
	"context"
	"errors"
	"math"
	"time"

	"instrent/internal/domain/shared/events"
)

var (
	ErrInvalidScore = errors.New("rating: score must be between 1 and 5 in half-point steps")
	ErrNotFound     = errors.New("rating: aggregator not found")
)

type SubjectKind string

const (
	KindItem SubjectKind = "ITEM"
	KindUser SubjectKind = "USER"
)

// Aggregator maintains a running mean over folded scores. The stored mean is
// never rounded; rounding happens only in Snapshot for display.
type Aggregator struct {
	SubjectID string
	Kind      SubjectKind
	Count     int64
	Mean      float64
	Version   int64
	events.EventRecorder
}

type Repository interface {
	BySubject(ctx context.Context, kind SubjectKind, subjectID string) (*Aggregator, error)
	Save(ctx context.Context, aggregator *Aggregator) error
}

func NewAggregator(kind SubjectKind, subjectID string) *Aggregator {
	return &Aggregator{SubjectID: subjectID, Kind: kind}
}

// ValidScore accepts scores in [1, 5] with half-point granularity.
func ValidScore(score float64) bool {
	if score < 1 || score > 5 {
		return false
	}
	doubled := score * 2
	return doubled == math.Trunc(doubled)
}

// Fold appends one score. The incremental update is equivalent to recomputing
// the arithmetic mean but never accumulates a running sum, so precision holds
// over arbitrarily long histories.
func (a *Aggregator) Fold(score float64, now time.Time) error {
	if !ValidScore(score) {
		return ErrInvalidScore
	}
	a.Mean += (score - a.Mean) / float64(a.Count+1)
	a.Count++
	a.Record(ScoreFolded{SubjectID: a.SubjectID, Kind: a.Kind, Score: score, Count: a.Count, Mean: a.Mean, At: now.UTC()})
	return nil
}

// Snapshot returns the count and the mean rounded to one decimal digit.
func (a *Aggregator) Snapshot() (int64, float64) {
	return a.Count, math.Round(a.Mean*10) / 10
}

// Clone returns a copy without pending events.
func (a *Aggregator) Clone() *Aggregator {
	return &Aggregator{SubjectID: a.SubjectID, Kind: a.Kind, Count: a.Count, Mean: a.Mean, Version: a.Version}
}
