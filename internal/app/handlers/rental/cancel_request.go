package rental

import (
	"context"
	"time"

	"instrent/internal/app/commands"
	"instrent/internal/app/dto"
	"instrent/internal/app/outbox"
	"instrent/internal/app/uow"
	domainrental "instrent/internal/domain/rental"
	"instrent/internal/domain/shared/events"
)

const cancelRequestKey = "rental.cancel"

// CancelRequestCommand releases the calendar block of an accepted request,
// e.g. on mutual agreement, and moves it to the CANCELLED terminal state.
type CancelRequestCommand struct {
	RequestID string
	Now       time.Time
}

func (c CancelRequestCommand) Key() string { return cancelRequestKey }

type CancelRequestHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *CancelRequestHandler) Handle(ctx context.Context, cmd CancelRequestCommand) (dto.Request, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.Request{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.Request{}, err
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

	now := cmd.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	request, err := unit.Requests().ByID(ctx, domainrental.RequestID(cmd.RequestID))
	if err != nil {
		return dto.Request{}, err
	}
	calendar, err := unit.Availability().ByItem(ctx, request.ItemID)
	if err != nil {
		return dto.Request{}, err
	}

	if err := request.Cancel(calendar, now); err != nil {
		return dto.Request{}, err
	}
	if err := unit.Availability().Save(ctx, calendar); err != nil {
		return dto.Request{}, err
	}
	if err := unit.Requests().Save(ctx, request); err != nil {
		return dto.Request{}, err
	}

	var pending []events.DomainEvent
	pending = append(pending, calendar.PendingEvents()...)
	pending = append(pending, request.PendingEvents()...)
	calendar.ClearEvents()
	request.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return dto.Request{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.Request{}, err
		}
		committed = true
	}

	return dto.MapRequest(request), nil
}

func (h *CancelRequestHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[CancelRequestCommand, dto.Request] = (*CancelRequestHandler)(nil)
