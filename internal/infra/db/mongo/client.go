package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"instrent/internal/app/uow"
)

// ErrMalformedDocument signals a stored document that cannot be decoded into
// its aggregate; decoding fails fast instead of defaulting fields.
var ErrMalformedDocument = errors.New("mongo: malformed document")

type Client struct {
	DB *mongo.Database
}

func New(uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

// saveWithVersion performs the optimistic compare-and-swap every aggregate
// save goes through: the update matches only when the stored version equals
// the loaded one.
func saveWithVersion(ctx context.Context, col *mongo.Collection, id string, loadedVersion int64, doc any) error {
	filter := map[string]any{"_id": id, "version": loadedVersion}
	update := map[string]any{"$set": doc}
	opts := options.Update().SetUpsert(loadedVersion == 0)
	res, err := col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return uow.ErrConcurrentUpdate
	}
	return nil
}

func malformed(collection, id, field string) error {
	return fmt.Errorf("%w: %s/%s missing or invalid %s", ErrMalformedDocument, collection, id, field)
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
