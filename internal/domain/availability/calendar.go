package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"instrent/internal/domain/items"
	"instrent/internal/domain/shared/daterange"
	"instrent/internal/domain/shared/events"
)

var (
	ErrConflict = errors.New("availability: range conflicts with an existing block")
)

type BlockReason string

const (
	ReasonBooking    BlockReason = "BOOKING"
	ReasonOwnerBlock BlockReason = "OWNER_BLOCK"
)

// Block is one reserved interval. Request-originated blocks carry the request
// id as Reference so a later cancellation can release exactly this block;
// adjacent blocks are deliberately never merged.
type Block struct {
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

// Calendar is the per-item set of blocked ranges, kept sorted by start so the
// overlap probe only has to inspect one neighbor. Version backs the optimistic
// save at the store: check-and-insert is a single compare-and-swap.
type Calendar struct {
	ItemID  items.ItemID
	Blocks  []Block
	Version int64
	events.EventRecorder
}

type Repository interface {
	ByItem(ctx context.Context, id items.ItemID) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(id items.ItemID) *Calendar {
	return &Calendar{ItemID: id}
}

// IsFree reports whether r overlaps no stored block. Blocks are disjoint and
// sorted by start, so only the last block starting before r.End can overlap.
func (c *Calendar) IsFree(r daterange.DateRange) bool {
	idx := sort.Search(len(c.Blocks), func(i int) bool {
		return !c.Blocks[i].Range.Start.Before(r.End)
	})
	if idx == 0 {
		return true
	}
	return !c.Blocks[idx-1].Range.Overlaps(r)
}

// Block inserts r under the given reference. The overlap recheck here is
// mandatory even when the caller already probed IsFree: a concurrent
// acceptance may have landed between the probe and this call.
func (c *Calendar) Block(reference string, r daterange.DateRange, reason BlockReason, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if reason == "" {
		reason = ReasonOwnerBlock
	}
	if !c.IsFree(r) {
		c.Record(OverbookingPrevented{ItemID: string(c.ItemID), Range: r, At: now.UTC()})
		return ErrConflict
	}
	idx := sort.Search(len(c.Blocks), func(i int) bool {
		return c.Blocks[i].Range.Start.After(r.Start)
	})
	block := Block{Range: r, Reason: reason, Reference: reference, CreatedAt: now.UTC()}
	c.Blocks = append(c.Blocks, Block{})
	copy(c.Blocks[idx+1:], c.Blocks[idx:])
	c.Blocks[idx] = block
	c.Record(CalendarBlocked{ItemID: string(c.ItemID), Range: r, Reason: reason, Reference: reference, At: now.UTC()})
	return nil
}

// Unblock removes the block stored under reference. Removing an absent
// reference is a no-op so cancellation stays idempotent.
func (c *Calendar) Unblock(reference string, now time.Time) {
	for i, block := range c.Blocks {
		if block.Reference == reference {
			c.Blocks = append(c.Blocks[:i], c.Blocks[i+1:]...)
			c.Record(CalendarReleased{ItemID: string(c.ItemID), Range: block.Range, Reason: block.Reason, Reference: reference, At: now.UTC()})
			return
		}
	}
}

// HasReference reports whether a block exists under the given reference.
func (c *Calendar) HasReference(reference string) bool {
	for _, block := range c.Blocks {
		if block.Reference == reference {
			return true
		}
	}
	return false
}

// Clone returns a deep copy without pending events. Store implementations
// hand out clones so callers mutate a snapshot, not shared state.
func (c *Calendar) Clone() *Calendar {
	blocks := make([]Block, len(c.Blocks))
	copy(blocks, c.Blocks)
	return &Calendar{ItemID: c.ItemID, Blocks: blocks, Version: c.Version}
}
