package rental

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"instrent/internal/app/commands"
	"instrent/internal/app/dto"
	"instrent/internal/app/outbox"
	"instrent/internal/app/uow"
	domainavailability "instrent/internal/domain/availability"
	domainrental "instrent/internal/domain/rental"
	"instrent/internal/domain/shared/events"
)

const decideRequestKey = "rental.decide"

// DecideRequestCommand resolves a pending request: accept blocks the live
// calendar inside the same unit of work, reject records the reason. An accept
// that loses the slot surfaces the conflict and leaves the request pending.
type DecideRequestCommand struct {
	RequestID string
	Accept    bool
	Reason    string
	Now       time.Time
}

func (c DecideRequestCommand) Key() string { return decideRequestKey }

type DecideRequestHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *DecideRequestHandler) Handle(ctx context.Context, cmd DecideRequestCommand) (dto.Request, error) {
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

	var pending []events.DomainEvent
	if cmd.Accept {
		calendar, err := unit.Availability().ByItem(ctx, request.ItemID)
		if err != nil {
			return dto.Request{}, err
		}
		if err := request.Accept(calendar, now); err != nil {
			return dto.Request{}, err
		}
		if err := unit.Availability().Save(ctx, calendar); err != nil {
			if errors.Is(err, uow.ErrConcurrentUpdate) {
				// Another acceptance consumed the interval between our load
				// and save. Same outcome as losing the in-memory recheck.
				return dto.Request{}, domainavailability.ErrConflict
			}
			return dto.Request{}, err
		}
		pending = append(pending, calendar.PendingEvents()...)
		calendar.ClearEvents()
	} else {
		if err := request.Reject(cmd.Reason, now); err != nil {
			return dto.Request{}, err
		}
	}

	if err := unit.Requests().Save(ctx, request); err != nil {
		return dto.Request{}, err
	}
	pending = append(pending, request.PendingEvents()...)
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

	if h.Logger != nil {
		h.Logger.Info("request decided", "request_id", request.ID, "item_id", request.ItemID, "status", request.Status)
	}

	return dto.MapRequest(request), nil
}

func (h *DecideRequestHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[DecideRequestCommand, dto.Request] = (*DecideRequestHandler)(nil)
