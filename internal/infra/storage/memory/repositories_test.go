package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"instrent/internal/app/uow"
	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrating "instrent/internal/domain/rating"
	"instrent/internal/domain/shared/daterange"
	"instrent/internal/domain/shared/money"
)

var testTime = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestItem(t *testing.T) *domainitems.Item {
	t.Helper()
	item, err := domainitems.New(domainitems.CreateParams{
		ID:        "item-1",
		OwnerID:   "owner-1",
		Name:      "Roland TD-17",
		DailyRate: money.Must(2000, "EUR"),
		CreatedAt: testTime,
	})
	require.NoError(t, err)
	return item
}

func TestItemRepositorySaveBumpsVersion(t *testing.T) {
	repo := NewItemRepository()
	ctx := context.Background()
	item := newTestItem(t)

	require.NoError(t, repo.Save(ctx, item))
	assert.Equal(t, int64(1), item.Version)

	loaded, err := repo.ByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Empty(t, loaded.PendingEvents(), "stored snapshots carry no events")
}

func TestItemRepositoryNotFound(t *testing.T) {
	repo := NewItemRepository()
	_, err := repo.ByID(context.Background(), "nope")
	assert.ErrorIs(t, err, domainitems.ErrNotFound)
}

func TestItemRepositoryConcurrentUpdate(t *testing.T) {
	repo := NewItemRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, newTestItem(t)))

	first, err := repo.ByID(ctx, "item-1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "item-1")
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, first))
	assert.ErrorIs(t, repo.Save(ctx, second), uow.ErrConcurrentUpdate)
}

func TestCalendarRepositorySnapshotIsolation(t *testing.T) {
	repo := NewCalendarRepository()
	ctx := context.Background()

	cal := domainavailability.NewCalendar("item-1")
	require.NoError(t, repo.Save(ctx, cal))

	loaded, err := repo.ByItem(ctx, "item-1")
	require.NoError(t, err)

	dr, err := daterange.New(testTime, testTime.Add(48*time.Hour))
	require.NoError(t, err)
	require.NoError(t, loaded.Block("req-1", dr, domainavailability.ReasonBooking, testTime))

	stored, err := repo.ByItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Empty(t, stored.Blocks, "mutations on a snapshot must not leak until saved")

	require.NoError(t, repo.Save(ctx, loaded))
	stored, err = repo.ByItem(ctx, "item-1")
	require.NoError(t, err)
	assert.Len(t, stored.Blocks, 1)
}

func TestCalendarRepositoryLosingWriterGetsConcurrentUpdate(t *testing.T) {
	repo := NewCalendarRepository()
	ctx := context.Background()
	require.NoError(t, repo.Save(ctx, domainavailability.NewCalendar("item-1")))

	first, err := repo.ByItem(ctx, "item-1")
	require.NoError(t, err)
	second, err := repo.ByItem(ctx, "item-1")
	require.NoError(t, err)

	drA, err := daterange.New(testTime, testTime.Add(48*time.Hour))
	require.NoError(t, err)
	drB, err := daterange.New(testTime.Add(24*time.Hour), testTime.Add(72*time.Hour))
	require.NoError(t, err)

	require.NoError(t, first.Block("req-a", drA, domainavailability.ReasonBooking, testTime))
	require.NoError(t, second.Block("req-b", drB, domainavailability.ReasonBooking, testTime))

	require.NoError(t, repo.Save(ctx, first))
	assert.ErrorIs(t, repo.Save(ctx, second), uow.ErrConcurrentUpdate)

	stored, err := repo.ByItem(ctx, "item-1")
	require.NoError(t, err)
	require.Len(t, stored.Blocks, 1)
	assert.Equal(t, "req-a", stored.Blocks[0].Reference)
}

func TestRatingRepositoryRoundTrip(t *testing.T) {
	repo := NewRatingRepository()
	ctx := context.Background()

	_, err := repo.BySubject(ctx, domainrating.KindItem, "item-1")
	assert.ErrorIs(t, err, domainrating.ErrNotFound)

	agg := domainrating.NewAggregator(domainrating.KindItem, "item-1")
	require.NoError(t, agg.Fold(4.5, testTime))
	require.NoError(t, repo.Save(ctx, agg))

	loaded, err := repo.BySubject(ctx, domainrating.KindItem, "item-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), loaded.Count)
	assert.Equal(t, 4.5, loaded.Mean)

	// same subject id under a different kind is a distinct aggregator
	_, err = repo.BySubject(ctx, domainrating.KindUser, "item-1")
	assert.ErrorIs(t, err, domainrating.ErrNotFound)
}
