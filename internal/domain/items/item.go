package items

import (
	"context"
	"errors"
	"strings"
	"time"

	"instrent/internal/domain/shared/events"
	"instrent/internal/domain/shared/money"
)

var (
	ErrNotFound    = errors.New("items: not found")
	ErrUnavailable = errors.New("items: item is not available for rental")
	ErrInvalidName = errors.New("items: name required")
)

type ItemID string

// Item is an instrument offered for rental. Rating fields are a denormalized
// copy of the item aggregator snapshot, written back after each fold.
type Item struct {
	ID          ItemID
	OwnerID     string
	Name        string
	DailyRate   money.Money
	Available   bool
	RatingMean  float64
	RatingCount int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Version     int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ItemID) (*Item, error)
	Save(ctx context.Context, item *Item) error
}

type CreateParams struct {
	ID        ItemID
	OwnerID   string
	Name      string
	DailyRate money.Money
	CreatedAt time.Time
}

func New(params CreateParams) (*Item, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if params.OwnerID == "" {
		return nil, errors.New("items: owner id required")
	}
	if err := params.DailyRate.EnsurePositive(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	item := &Item{
		ID:        params.ID,
		OwnerID:   params.OwnerID,
		Name:      name,
		DailyRate: params.DailyRate,
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	item.Record(ItemListed{ItemID: item.ID, OwnerID: item.OwnerID, DailyRate: item.DailyRate, At: now})
	return item, nil
}

func (i *Item) UpdateRating(mean float64, count int64, now time.Time) {
	i.RatingMean = mean
	i.RatingCount = count
	i.UpdatedAt = now.UTC()
}

func (i *Item) SetAvailable(available bool, now time.Time) {
	i.Available = available
	i.UpdatedAt = now.UTC()
}
