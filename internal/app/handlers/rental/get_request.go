package rental

import (
	"context"

	"instrent/internal/app/dto"
	"instrent/internal/app/queries"
	"instrent/internal/app/uow"
	domainitems "instrent/internal/domain/items"
	domainrental "instrent/internal/domain/rental"
)

const (
	getRequestKey   = "rental.get"
	listRequestsKey = "rental.list"
)

type GetRequestQuery struct {
	RequestID string
}

func (q GetRequestQuery) Key() string { return getRequestKey }

type GetRequestHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetRequestHandler) Handle(ctx context.Context, q GetRequestQuery) (dto.Request, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.Request{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.Request{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	request, err := unit.Requests().ByID(ctx, domainrental.RequestID(q.RequestID))
	if err != nil {
		return dto.Request{}, err
	}
	return dto.MapRequest(request), nil
}

// ListRequestsQuery returns an item's requests, optionally filtered by
// status.
type ListRequestsQuery struct {
	ItemID string
	Status string
}

func (q ListRequestsQuery) Key() string { return listRequestsKey }

type ListRequestsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListRequestsHandler) Handle(ctx context.Context, q ListRequestsQuery) (dto.RequestCollection, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.RequestCollection{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.RequestCollection{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	status := domainrental.Status(q.Status)
	if status != "" && !domainrental.KnownStatus(status) {
		return dto.RequestCollection{}, domainrental.ErrInvalidState
	}
	requests, err := unit.Requests().ListByItem(ctx, domainitems.ItemID(q.ItemID), status)
	if err != nil {
		return dto.RequestCollection{}, err
	}
	return dto.MapRequests(requests), nil
}

var _ queries.Handler[GetRequestQuery, dto.Request] = (*GetRequestHandler)(nil)
var _ queries.Handler[ListRequestsQuery, dto.RequestCollection] = (*ListRequestsHandler)(nil)
