package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrange "instrent/internal/domain/shared/daterange"
)

type CalendarRepository struct {
	col *mongo.Collection
}

func NewCalendarRepository(db *mongo.Database) *CalendarRepository {
	return &CalendarRepository{col: db.Collection("agg_calendar")}
}

func (r *CalendarRepository) ByItem(ctx context.Context, id domainitems.ItemID) (*domainavailability.Calendar, error) {
	var doc calendarDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainitems.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *CalendarRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	doc := newCalendarDocument(calendar)
	doc.Version = calendar.Version + 1
	if err := saveWithVersion(ctx, r.col, doc.ID, calendar.Version, doc); err != nil {
		return err
	}
	calendar.Version = doc.Version
	return nil
}

type calendarDocument struct {
	ID      string          `bson:"_id"`
	Blocks  []blockDocument `bson:"blocks"`
	Version int64           `bson:"version"`
}

type blockDocument struct {
	Start     int64  `bson:"start"`
	End       int64  `bson:"end"`
	Reason    string `bson:"reason"`
	Reference string `bson:"reference"`
	CreatedAt int64  `bson:"created_at"`
}

func newCalendarDocument(calendar *domainavailability.Calendar) calendarDocument {
	blocks := make([]blockDocument, 0, len(calendar.Blocks))
	for _, block := range calendar.Blocks {
		blocks = append(blocks, blockDocument{
			Start:     block.Range.Start.UnixMilli(),
			End:       block.Range.End.UnixMilli(),
			Reason:    string(block.Reason),
			Reference: block.Reference,
			CreatedAt: block.CreatedAt.UnixMilli(),
		})
	}
	return calendarDocument{ID: string(calendar.ItemID), Blocks: blocks, Version: calendar.Version}
}

func (d calendarDocument) toAggregate() (*domainavailability.Calendar, error) {
	calendar := &domainavailability.Calendar{
		ItemID:  domainitems.ItemID(d.ID),
		Blocks:  make([]domainavailability.Block, 0, len(d.Blocks)),
		Version: d.Version,
	}
	for _, block := range d.Blocks {
		dr, err := domainrange.New(timestampToTime(block.Start), timestampToTime(block.End))
		if err != nil {
			return nil, malformed("agg_calendar", d.ID, "block range")
		}
		if block.Reference == "" {
			return nil, malformed("agg_calendar", d.ID, "block reference")
		}
		calendar.Blocks = append(calendar.Blocks, domainavailability.Block{
			Range:     dr,
			Reason:    domainavailability.BlockReason(block.Reason),
			Reference: block.Reference,
			CreatedAt: timestampToTime(block.CreatedAt),
		})
	}
	return calendar, nil
}
