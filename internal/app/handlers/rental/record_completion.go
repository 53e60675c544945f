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
	domainrating "instrent/internal/domain/rating"
	domainrental "instrent/internal/domain/rental"
	"instrent/internal/domain/shared/events"
)

const recordCompletionKey = "rental.complete"

// RecordCompletionCommand folds the renter's score into the item and renter
// aggregators once the accepted rental has ended. Each request id folds at
// most once; a repeat call replays the stored outcome without touching the
// aggregators.
type RecordCompletionCommand struct {
	RequestID string
	Score     float64
	Now       time.Time
}

func (c RecordCompletionCommand) Key() string { return recordCompletionKey }

type RecordCompletionResult struct {
	Request    dto.Request       `json:"request"`
	ItemRating dto.RatingSummary `json:"item_rating"`
	UserRating dto.RatingSummary `json:"user_rating"`
}

type RecordCompletionHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
}

func (h *RecordCompletionHandler) Handle(ctx context.Context, cmd RecordCompletionCommand) (RecordCompletionResult, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return RecordCompletionResult{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return RecordCompletionResult{}, err
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
	if !domainrating.ValidScore(cmd.Score) {
		return RecordCompletionResult{}, domainrating.ErrInvalidScore
	}

	request, err := unit.Requests().ByID(ctx, domainrental.RequestID(cmd.RequestID))
	if err != nil {
		return RecordCompletionResult{}, err
	}

	if request.Rated {
		// Already folded for this request id; report current state only.
		itemAgg, err := h.loadAggregator(ctx, unit, domainrating.KindItem, string(request.ItemID))
		if err != nil {
			return RecordCompletionResult{}, err
		}
		userAgg, err := h.loadAggregator(ctx, unit, domainrating.KindUser, request.RenterID)
		if err != nil {
			return RecordCompletionResult{}, err
		}
		if managed {
			if err := unit.Commit(ctx); err != nil {
				return RecordCompletionResult{}, err
			}
			committed = true
		}
		return RecordCompletionResult{
			Request:    dto.MapRequest(request),
			ItemRating: dto.MapRating(itemAgg),
			UserRating: dto.MapRating(userAgg),
		}, nil
	}

	if err := request.MarkRated(cmd.Score, now); err != nil {
		return RecordCompletionResult{}, err
	}

	itemAgg, err := h.loadAggregator(ctx, unit, domainrating.KindItem, string(request.ItemID))
	if err != nil {
		return RecordCompletionResult{}, err
	}
	userAgg, err := h.loadAggregator(ctx, unit, domainrating.KindUser, request.RenterID)
	if err != nil {
		return RecordCompletionResult{}, err
	}
	if err := itemAgg.Fold(cmd.Score, now); err != nil {
		return RecordCompletionResult{}, err
	}
	if err := userAgg.Fold(cmd.Score, now); err != nil {
		return RecordCompletionResult{}, err
	}
	if err := unit.Ratings().Save(ctx, itemAgg); err != nil {
		return RecordCompletionResult{}, err
	}
	if err := unit.Ratings().Save(ctx, userAgg); err != nil {
		return RecordCompletionResult{}, err
	}

	item, err := unit.Items().ByID(ctx, request.ItemID)
	if err != nil {
		return RecordCompletionResult{}, err
	}
	count, mean := itemAgg.Snapshot()
	item.UpdateRating(mean, count, now)
	if err := unit.Items().Save(ctx, item); err != nil {
		return RecordCompletionResult{}, err
	}

	if err := unit.Requests().Save(ctx, request); err != nil {
		return RecordCompletionResult{}, err
	}

	var pending []events.DomainEvent
	pending = append(pending, request.PendingEvents()...)
	pending = append(pending, itemAgg.PendingEvents()...)
	pending = append(pending, userAgg.PendingEvents()...)
	request.ClearEvents()
	itemAgg.ClearEvents()
	userAgg.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), pending); err != nil {
		return RecordCompletionResult{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return RecordCompletionResult{}, err
		}
		committed = true
	}

	if h.Logger != nil {
		h.Logger.Info("completion recorded", "request_id", request.ID, "item_id", request.ItemID, "score", cmd.Score)
	}

	return RecordCompletionResult{
		Request:    dto.MapRequest(request),
		ItemRating: dto.MapRating(itemAgg),
		UserRating: dto.MapRating(userAgg),
	}, nil
}

func (h *RecordCompletionHandler) loadAggregator(ctx context.Context, unit uow.UnitOfWork, kind domainrating.SubjectKind, subjectID string) (*domainrating.Aggregator, error) {
	aggregator, err := unit.Ratings().BySubject(ctx, kind, subjectID)
	if err != nil {
		if errors.Is(err, domainrating.ErrNotFound) {
			return domainrating.NewAggregator(kind, subjectID), nil
		}
		return nil, err
	}
	return aggregator, nil
}

func (h *RecordCompletionHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

var _ commands.Handler[RecordCompletionCommand, RecordCompletionResult] = (*RecordCompletionHandler)(nil)
