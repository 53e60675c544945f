package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainitems "instrent/internal/domain/items"
	domainrental "instrent/internal/domain/rental"
	domainrange "instrent/internal/domain/shared/daterange"
	"instrent/internal/domain/shared/money"
)

type RequestRepository struct {
	col *mongo.Collection
}

func NewRequestRepository(db *mongo.Database) *RequestRepository {
	col := db.Collection("agg_request")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "item_id", Value: 1}, {Key: "status", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &RequestRepository{col: col}
}

func (r *RequestRepository) ByID(ctx context.Context, id domainrental.RequestID) (*domainrental.Request, error) {
	var doc requestDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrental.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *RequestRepository) Save(ctx context.Context, request *domainrental.Request) error {
	doc := newRequestDocument(request)
	doc.Version = request.Version + 1
	if err := saveWithVersion(ctx, r.col, doc.ID, request.Version, doc); err != nil {
		return err
	}
	request.Version = doc.Version
	return nil
}

func (r *RequestRepository) ListByItem(ctx context.Context, itemID domainitems.ItemID, status domainrental.Status) ([]*domainrental.Request, error) {
	filter := bson.M{"item_id": itemID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []*domainrental.Request
	for cursor.Next(ctx) {
		var doc requestDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		request, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, request)
	}
	return out, cursor.Err()
}

type requestDocument struct {
	ID              string  `bson:"_id"`
	ItemID          string  `bson:"item_id"`
	RenterID        string  `bson:"renter_id"`
	OwnerID         string  `bson:"owner_id"`
	Start           int64   `bson:"start"`
	End             int64   `bson:"end"`
	UnitAmount      int64   `bson:"unit_amount"`
	TotalAmount     int64   `bson:"total_amount"`
	Currency        string  `bson:"currency"`
	Status          string  `bson:"status"`
	RejectionReason string  `bson:"rejection_reason"`
	Rated           bool    `bson:"rated"`
	CreatedAt       int64   `bson:"created_at"`
	DecidedAt       int64   `bson:"decided_at"`
	Version         int64   `bson:"version"`
}

func newRequestDocument(request *domainrental.Request) requestDocument {
	doc := requestDocument{
		ID:              string(request.ID),
		ItemID:          string(request.ItemID),
		RenterID:        request.RenterID,
		OwnerID:         request.OwnerID,
		Start:           request.Range.Start.UnixMilli(),
		End:             request.Range.End.UnixMilli(),
		UnitAmount:      request.UnitPrice.Amount,
		TotalAmount:     request.Total.Amount,
		Currency:        request.UnitPrice.Currency,
		Status:          string(request.Status),
		RejectionReason: request.RejectionReason,
		Rated:           request.Rated,
		CreatedAt:       request.CreatedAt.UnixMilli(),
		Version:         request.Version,
	}
	if !request.DecidedAt.IsZero() {
		doc.DecidedAt = request.DecidedAt.UnixMilli()
	}
	return doc
}

func (d requestDocument) toAggregate() (*domainrental.Request, error) {
	status := domainrental.Status(d.Status)
	if !domainrental.KnownStatus(status) {
		return nil, malformed("agg_request", d.ID, "status")
	}
	dr, err := domainrange.New(timestampToTime(d.Start), timestampToTime(d.End))
	if err != nil {
		return nil, malformed("agg_request", d.ID, "range")
	}
	unit, err := money.New(d.UnitAmount, d.Currency)
	if err != nil {
		return nil, malformed("agg_request", d.ID, "currency")
	}
	request := &domainrental.Request{
		ID:              domainrental.RequestID(d.ID),
		ItemID:          domainitems.ItemID(d.ItemID),
		RenterID:        d.RenterID,
		OwnerID:         d.OwnerID,
		Range:           dr,
		UnitPrice:       unit,
		Total:           money.Money{Amount: d.TotalAmount, Currency: unit.Currency},
		Status:          status,
		RejectionReason: d.RejectionReason,
		Rated:           d.Rated,
		CreatedAt:       timestampToTime(d.CreatedAt),
		Version:         d.Version,
	}
	if d.DecidedAt != 0 {
		request.DecidedAt = timestampToTime(d.DecidedAt)
	}
	return request, nil
}
