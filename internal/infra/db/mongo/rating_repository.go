package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainrating "instrent/internal/domain/rating"
)

type RatingRepository struct {
	col *mongo.Collection
}

func NewRatingRepository(db *mongo.Database) *RatingRepository {
	return &RatingRepository{col: db.Collection("agg_rating")}
}

func aggregatorID(kind domainrating.SubjectKind, subjectID string) string {
	return string(kind) + ":" + subjectID
}

func (r *RatingRepository) BySubject(ctx context.Context, kind domainrating.SubjectKind, subjectID string) (*domainrating.Aggregator, error) {
	var doc ratingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": aggregatorID(kind, subjectID)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrating.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *RatingRepository) Save(ctx context.Context, aggregator *domainrating.Aggregator) error {
	doc := newRatingDocument(aggregator)
	doc.Version = aggregator.Version + 1
	if err := saveWithVersion(ctx, r.col, doc.ID, aggregator.Version, doc); err != nil {
		return err
	}
	aggregator.Version = doc.Version
	return nil
}

type ratingDocument struct {
	ID        string  `bson:"_id"`
	SubjectID string  `bson:"subject_id"`
	Kind      string  `bson:"kind"`
	Count     int64   `bson:"count"`
	Mean      float64 `bson:"mean"`
	Version   int64   `bson:"version"`
}

func newRatingDocument(aggregator *domainrating.Aggregator) ratingDocument {
	return ratingDocument{
		ID:        aggregatorID(aggregator.Kind, aggregator.SubjectID),
		SubjectID: aggregator.SubjectID,
		Kind:      string(aggregator.Kind),
		Count:     aggregator.Count,
		Mean:      aggregator.Mean,
		Version:   aggregator.Version,
	}
}

func (d ratingDocument) toAggregate() (*domainrating.Aggregator, error) {
	kind := domainrating.SubjectKind(d.Kind)
	if kind != domainrating.KindItem && kind != domainrating.KindUser {
		return nil, malformed("agg_rating", d.ID, "kind")
	}
	if d.Count < 0 {
		return nil, malformed("agg_rating", d.ID, "count")
	}
	return &domainrating.Aggregator{
		SubjectID: d.SubjectID,
		Kind:      kind,
		Count:     d.Count,
		Mean:      d.Mean,
		Version:   d.Version,
	}, nil
}
