package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"instrent/internal/app/uow"
	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrating "instrent/internal/domain/rating"
	domainrental "instrent/internal/domain/rental"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	ItemsRepo    domainitems.Repository
	CalendarRepo domainavailability.Repository
	RequestsRepo domainrental.Repository
	RatingsRepo  domainrating.Repository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Begin starts a MongoDB session/transaction.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:      session,
		items:        f.ItemsRepo,
		availability: f.CalendarRepo,
		requests:     f.RequestsRepo,
		ratings:      f.RatingsRepo,
	}, nil
}

type Unit struct {
	session mongo.Session

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
	defer u.session.EndSession(ctx)
	return u.session.CommitTransaction(ctx)
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext makes the Mongo session available to downstream repositories.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}
