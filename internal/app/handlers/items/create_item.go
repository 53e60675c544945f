package items

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
	"instrent/internal/domain/shared/money"
)

const createItemKey = "items.create"

var ErrUnitOfWorkRequired = errors.New("items: unit of work required")

type CreateItemCommand struct {
	CommandID       string
	OwnerID         string
	Name            string
	DailyRateAmount int64
	Currency        string
}

func (c CreateItemCommand) Key() string { return createItemKey }

type CreateItemHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

// Handle registers the item and its empty availability calendar in one unit
// of work.
func (h *CreateItemHandler) Handle(ctx context.Context, cmd CreateItemCommand) (dto.Item, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.Item{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.Item{}, err
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

	rate, err := money.New(cmd.DailyRateAmount, cmd.Currency)
	if err != nil {
		return dto.Item{}, err
	}
	item, err := domainitems.New(domainitems.CreateParams{
		ID:        domainitems.ItemID(cmd.CommandID),
		OwnerID:   cmd.OwnerID,
		Name:      cmd.Name,
		DailyRate: rate,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return dto.Item{}, err
	}

	if err := unit.Items().Save(ctx, item); err != nil {
		return dto.Item{}, err
	}
	if err := unit.Availability().Save(ctx, domainavailability.NewCalendar(item.ID)); err != nil {
		return dto.Item{}, err
	}

	pending := item.PendingEvents()
	item.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return dto.Item{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.Item{}, err
		}
		committed = true
	}

	return dto.MapItem(item), nil
}

func (h *CreateItemHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CreateItemCommand, dto.Item] = (*CreateItemHandler)(nil)
