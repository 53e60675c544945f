package availability

import (
	"time"

	"instrent/internal/domain/shared/daterange"
)

type CalendarBlocked struct {
	ItemID    string
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	At        time.Time
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return e.ItemID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarReleased struct {
	ItemID    string
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	At        time.Time
}

func (e CalendarReleased) EventName() string     { return "calendar.released" }
func (e CalendarReleased) AggregateID() string   { return e.ItemID }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	ItemID string
	Range  daterange.DateRange
	At     time.Time
}

func (e OverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return e.ItemID }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
