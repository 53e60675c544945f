package uow

import (
	"context"
	"errors"

	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrating "instrent/internal/domain/rating"
	domainrental "instrent/internal/domain/rental"
)

// ErrConcurrentUpdate is returned by repository saves when the persisted
// version no longer matches the loaded one. It is never retried internally.
var ErrConcurrentUpdate = errors.New("uow: concurrent update detected")

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Items() domainitems.Repository
	Availability() domainavailability.Repository
	Requests() domainrental.Repository
	Ratings() domainrating.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
