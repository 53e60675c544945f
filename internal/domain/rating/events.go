package rating

import "time"

type ScoreFolded struct {
	SubjectID string
	Kind      SubjectKind
	Score     float64
	Count     int64
	Mean      float64
	At        time.Time
}

func (e ScoreFolded) EventName() string     { return "rating.folded" }
func (e ScoreFolded) AggregateID() string   { return e.SubjectID }
func (e ScoreFolded) OccurredAt() time.Time { return e.At }
