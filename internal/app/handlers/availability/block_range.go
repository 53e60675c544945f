package availability

import (
	"context"
	"errors"
	"time"

	"instrent/internal/app/commands"
	"instrent/internal/app/dto"
	"instrent/internal/app/outbox"
	"instrent/internal/app/uow"
	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrange "instrent/internal/domain/shared/daterange"
)

const (
	blockRangeKey   = "availability.block"
	releaseRangeKey = "availability.release"
)

var ErrUnitOfWorkRequired = errors.New("availability: unit of work required")

// BlockRangeCommand lets an owner block dates without a rental request, e.g.
// while the instrument is in repair.
type BlockRangeCommand struct {
	Reference string
	ItemID    string
	OwnerID   string
	Start     time.Time
	End       time.Time
}

func (c BlockRangeCommand) Key() string { return blockRangeKey }

type BlockRangeHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *BlockRangeHandler) Handle(ctx context.Context, cmd BlockRangeCommand) (dto.Calendar, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.Calendar{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.Calendar{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	dr, err := domainrange.New(cmd.Start, cmd.End)
	if err != nil {
		return dto.Calendar{}, err
	}

	item, err := unit.Items().ByID(ctx, domainitems.ItemID(cmd.ItemID))
	if err != nil {
		return dto.Calendar{}, err
	}
	if cmd.OwnerID != "" && item.OwnerID != cmd.OwnerID {
		return dto.Calendar{}, errors.New("availability: only the owner can block the calendar")
	}

	calendar, err := unit.Availability().ByItem(ctx, item.ID)
	if err != nil {
		return dto.Calendar{}, err
	}
	now := time.Now().UTC()
	if err := calendar.Block(cmd.Reference, dr, domainavailability.ReasonOwnerBlock, now); err != nil {
		return dto.Calendar{}, err
	}
	if err := unit.Availability().Save(ctx, calendar); err != nil {
		if errors.Is(err, uow.ErrConcurrentUpdate) {
			return dto.Calendar{}, domainavailability.ErrConflict
		}
		return dto.Calendar{}, err
	}

	pending := calendar.PendingEvents()
	calendar.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return dto.Calendar{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.Calendar{}, err
		}
		committed = true
	}

	return dto.MapCalendar(calendar), nil
}

func (h *BlockRangeHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

// ReleaseRangeCommand removes an owner block by its reference. Releasing an
// unknown reference is a no-op.
type ReleaseRangeCommand struct {
	ItemID    string
	Reference string
}

func (c ReleaseRangeCommand) Key() string { return releaseRangeKey }

type ReleaseRangeHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *ReleaseRangeHandler) Handle(ctx context.Context, cmd ReleaseRangeCommand) (dto.Calendar, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.Calendar{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.Calendar{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	calendar, err := unit.Availability().ByItem(ctx, domainitems.ItemID(cmd.ItemID))
	if err != nil {
		return dto.Calendar{}, err
	}
	calendar.Unblock(cmd.Reference, time.Now().UTC())
	if err := unit.Availability().Save(ctx, calendar); err != nil {
		return dto.Calendar{}, err
	}

	pending := calendar.PendingEvents()
	calendar.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return dto.Calendar{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.Calendar{}, err
		}
		committed = true
	}

	return dto.MapCalendar(calendar), nil
}

func (h *ReleaseRangeHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[BlockRangeCommand, dto.Calendar] = (*BlockRangeHandler)(nil)
var _ commands.Handler[ReleaseRangeCommand, dto.Calendar] = (*ReleaseRangeHandler)(nil)
