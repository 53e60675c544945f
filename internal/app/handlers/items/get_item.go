package items

import (
	"context"

	"instrent/internal/app/dto"
	"instrent/internal/app/queries"
	"instrent/internal/app/uow"
	domainitems "instrent/internal/domain/items"
)

const getItemKey = "items.get"

type GetItemQuery struct {
	ItemID string
}

func (q GetItemQuery) Key() string { return getItemKey }

type GetItemHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetItemHandler) Handle(ctx context.Context, q GetItemQuery) (dto.Item, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		if h.UoWFactory == nil {
			return dto.Item{}, uow.ErrUnitOfWorkMissing
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
		if err != nil {
			return dto.Item{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		defer unit.Rollback(ctx)
	}

	item, err := unit.Items().ByID(ctx, domainitems.ItemID(q.ItemID))
	if err != nil {
		return dto.Item{}, err
	}
	return dto.MapItem(item), nil
}

var _ queries.Handler[GetItemQuery, dto.Item] = (*GetItemHandler)(nil)
