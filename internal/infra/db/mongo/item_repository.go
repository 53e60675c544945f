package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainitems "instrent/internal/domain/items"
	"instrent/internal/domain/shared/money"
)

type ItemRepository struct {
	col *mongo.Collection
}

func NewItemRepository(db *mongo.Database) *ItemRepository {
	return &ItemRepository{col: db.Collection("agg_item")}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitems.ItemID) (*domainitems.Item, error) {
	var doc itemDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainitems.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ItemRepository) Save(ctx context.Context, item *domainitems.Item) error {
	doc := newItemDocument(item)
	doc.Version = item.Version + 1
	if err := saveWithVersion(ctx, r.col, doc.ID, item.Version, doc); err != nil {
		return err
	}
	item.Version = doc.Version
	return nil
}

type itemDocument struct {
	ID          string  `bson:"_id"`
	OwnerID     string  `bson:"owner_id"`
	Name        string  `bson:"name"`
	RateAmount  int64   `bson:"rate_amount"`
	Currency    string  `bson:"currency"`
	Available   bool    `bson:"available"`
	RatingMean  float64 `bson:"rating_mean"`
	RatingCount int64   `bson:"rating_count"`
	CreatedAt   int64   `bson:"created_at"`
	UpdatedAt   int64   `bson:"updated_at"`
	Version     int64   `bson:"version"`
}

func newItemDocument(item *domainitems.Item) itemDocument {
	return itemDocument{
		ID:          string(item.ID),
		OwnerID:     item.OwnerID,
		Name:        item.Name,
		RateAmount:  item.DailyRate.Amount,
		Currency:    item.DailyRate.Currency,
		Available:   item.Available,
		RatingMean:  item.RatingMean,
		RatingCount: item.RatingCount,
		CreatedAt:   item.CreatedAt.UnixMilli(),
		UpdatedAt:   item.UpdatedAt.UnixMilli(),
		Version:     item.Version,
	}
}

func (d itemDocument) toAggregate() (*domainitems.Item, error) {
	if d.OwnerID == "" {
		return nil, malformed("agg_item", d.ID, "owner_id")
	}
	rate, err := money.New(d.RateAmount, d.Currency)
	if err != nil {
		return nil, malformed("agg_item", d.ID, "currency")
	}
	return &domainitems.Item{
		ID:          domainitems.ItemID(d.ID),
		OwnerID:     d.OwnerID,
		Name:        d.Name,
		DailyRate:   rate,
		Available:   d.Available,
		RatingMean:  d.RatingMean,
		RatingCount: d.RatingCount,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}, nil
}
