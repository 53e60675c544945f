package memory

import (
	"context"
	"errors"

	"instrent/internal/app/uow"
	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrating "instrent/internal/domain/rating"
	domainrental "instrent/internal/domain/rental"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	ItemsRepo    domainitems.Repository
	CalendarRepo domainavailability.Repository
	RequestsRepo domainrental.Repository
	RatingsRepo  domainrating.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// NewFactory builds a factory over fresh repositories; handy for tests.
func NewFactory() Factory {
	return Factory{
		ItemsRepo:    NewItemRepository(),
		CalendarRepo: NewCalendarRepository(),
		RequestsRepo: NewRequestRepository(),
		RatingsRepo:  NewRatingRepository(),
	}
}

// Begin starts a lightweight transaction boundary. No isolation is provided
// beyond the per-save version checks, matching the application ports.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.ItemsRepo == nil || f.CalendarRepo == nil || f.RequestsRepo == nil || f.RatingsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		items:        f.ItemsRepo,
		availability: f.CalendarRepo,
		requests:     f.RequestsRepo,
		ratings:      f.RatingsRepo,
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	items        domainitems.Repository
	availability domainavailability.Repository
	requests     domainrental.Repository
	ratings      domainrating.Repository
}

func (u *Unit) Items() domainitems.Repository {
	return u.items
}

func (u *Unit) Availability() domainavailability.Repository {
	return u.availability
}

func (u *Unit) Requests() domainrental.Repository {
	return u.requests
}

func (u *Unit) Ratings() domainrating.Repository {
	return u.ratings
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
