package items

import (
	"time"

	"instrent/internal/domain/shared/money"
)

type ItemListed struct {
	ItemID    ItemID
	OwnerID   string
	DailyRate money.Money
	At        time.Time
}

func (e ItemListed) EventName() string     { return "item.listed" }
func (e ItemListed) AggregateID() string   { return string(e.ItemID) }
func (e ItemListed) OccurredAt() time.Time { return e.At }
