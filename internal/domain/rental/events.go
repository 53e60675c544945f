package rental

import (
	"time"

	"instrent/internal/domain/items"
	"instrent/internal/domain/shared/daterange"
	"instrent/internal/domain/shared/money"
)

type RequestSubmitted struct {
	RequestID RequestID
	ItemID    items.ItemID
	RenterID  string
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e RequestSubmitted) EventName() string     { return "request.submitted" }
func (e RequestSubmitted) AggregateID() string   { return string(e.RequestID) }
func (e RequestSubmitted) OccurredAt() time.Time { return e.At }

type RequestAccepted struct {
	RequestID RequestID
	ItemID    items.ItemID
	Range     daterange.DateRange
	Total     money.Money
	At        time.Time
}

func (e RequestAccepted) EventName() string     { return "request.accepted" }
func (e RequestAccepted) AggregateID() string   { return string(e.RequestID) }
func (e RequestAccepted) OccurredAt() time.Time { return e.At }

type RequestRejected struct {
	RequestID RequestID
	ItemID    items.ItemID
	Reason    string
	At        time.Time
}

func (e RequestRejected) EventName() string     { return "request.rejected" }
func (e RequestRejected) AggregateID() string   { return string(e.RequestID) }
func (e RequestRejected) OccurredAt() time.Time { return e.At }

type RequestCancelled struct {
	RequestID RequestID
	ItemID    items.ItemID
	Range     daterange.DateRange
	At        time.Time
}

func (e RequestCancelled) EventName() string     { return "request.cancelled" }
func (e RequestCancelled) AggregateID() string   { return string(e.RequestID) }
func (e RequestCancelled) OccurredAt() time.Time { return e.At }

type RequestCompleted struct {
	RequestID RequestID
	ItemID    items.ItemID
	RenterID  string
	Score     float64
	At        time.Time
}

func (e RequestCompleted) EventName() string     { return "request.completed" }
func (e RequestCompleted) AggregateID() string   { return string(e.RequestID) }
func (e RequestCompleted) OccurredAt() time.Time { return e.At }
