package rental

import (
	"context"
	"errors"
	"time"

	"instrent/internal/app/commands"
	"instrent/internal/app/middleware"
	"instrent/internal/app/outbox"
	"instrent/internal/app/uow"
	domainitems "instrent/internal/domain/items"
	domainrental "instrent/internal/domain/rental"
	domainrange "instrent/internal/domain/shared/daterange"
)

const submitRequestKey = "rental.submit"

var ErrUnitOfWorkRequired = errors.New("rental: unit of work required")

// SubmitRequestCommand creates a pending reservation request. It deliberately
// never touches the calendar: a pending request reserves nothing, competing
// requests on the same interval are resolved first-accept-wins at decision
// time.
type SubmitRequestCommand struct {
	CommandID       string
	ItemID          string
	RenterID        string
	Start           time.Time
	End             time.Time
	IdempotencyKeyV string
}

func (c SubmitRequestCommand) Key() string { return submitRequestKey }

func (c SubmitRequestCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SubmitRequestCommand) ResultPrototype() any { return &SubmitRequestResult{} }

type SubmitRequestResult struct {
	RequestID   string `json:"request_id"`
	TotalAmount int64  `json:"total_amount"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
}

type SubmitRequestHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
}

func (h *SubmitRequestHandler) Handle(ctx context.Context, cmd SubmitRequestCommand) (*SubmitRequestResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return nil, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return nil, err
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
		return nil, err
	}

	item, err := unit.Items().ByID(ctx, domainitems.ItemID(cmd.ItemID))
	if err != nil {
		return nil, err
	}
	if !item.Available {
		return nil, domainitems.ErrUnavailable
	}

	request, err := domainrental.NewRequest(domainrental.CreateParams{
		ID:        domainrental.RequestID(cmd.CommandID),
		ItemID:    item.ID,
		RenterID:  cmd.RenterID,
		OwnerID:   item.OwnerID,
		Range:     dr,
		UnitPrice: item.DailyRate,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Requests().Save(ctx, request); err != nil {
		return nil, err
	}

	pending := request.PendingEvents()
	request.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return nil, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}

	return &SubmitRequestResult{
		RequestID:   string(request.ID),
		TotalAmount: request.Total.Amount,
		Currency:    request.Total.Currency,
		Status:      string(request.Status),
	}, nil
}

func (h *SubmitRequestHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[SubmitRequestCommand, *SubmitRequestResult] = (*SubmitRequestHandler)(nil)
var _ middleware.IdempotentCommand = (*SubmitRequestCommand)(nil)
