package dto

import (
	"time"

	domainavailability "instrent/internal/domain/availability"
)

type CalendarBlock struct {
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
}

type Calendar struct {
	ItemID string          `json:"item_id"`
	Blocks []CalendarBlock `json:"blocks"`
}

func MapCalendar(calendar *domainavailability.Calendar) Calendar {
	if calendar == nil {
		return Calendar{}
	}
	blocks := make([]CalendarBlock, 0, len(calendar.Blocks))
	for _, block := range calendar.Blocks {
		blocks = append(blocks, CalendarBlock{
			Start:     block.Range.Start,
			End:       block.Range.End,
			Reason:    string(block.Reason),
			Reference: block.Reference,
		})
	}
	return Calendar{ItemID: string(calendar.ItemID), Blocks: blocks}
}
