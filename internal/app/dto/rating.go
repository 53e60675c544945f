package dto

import (
	domainrating "instrent/internal/domain/rating"
)

type RatingSummary struct {
	SubjectID string  `json:"subject_id"`
	Kind      string  `json:"kind"`
	Count     int64   `json:"count"`
	Mean      float64 `json:"mean"`
}

// MapRating uses the aggregator snapshot, so the mean is already rounded for
// display.
func MapRating(aggregator *domainrating.Aggregator) RatingSummary {
	if aggregator == nil {
		return RatingSummary{}
	}
	count, mean := aggregator.Snapshot()
	return RatingSummary{
		SubjectID: aggregator.SubjectID,
		Kind:      string(aggregator.Kind),
		Count:     count,
		Mean:      mean,
	}
}
