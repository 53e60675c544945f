package rental_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	itemsapp "instrent/internal/app/handlers/items"
	rentalapp "instrent/internal/app/handlers/rental"
	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrental "instrent/internal/domain/rental"
	"instrent/internal/infra/storage/memory"
)

func day(n int) time.Time {
	return time.Date(2026, 3, n, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	factory memory.Factory
	outbox  *memory.Outbox

	create   *itemsapp.CreateItemHandler
	submit   *rentalapp.SubmitRequestHandler
	decide   *rentalapp.DecideRequestHandler
	cancel   *rentalapp.CancelRequestHandler
	complete *rentalapp.RecordCompletionHandler
	get      *rentalapp.GetRequestHandler
	list     *rentalapp.ListRequestsHandler
}

func newFixture() *fixture {
	factory := memory.NewFactory()
	ob := memory.NewOutbox()
	return &fixture{
		factory:  factory,
		outbox:   ob,
		create:   &itemsapp.CreateItemHandler{UoWFactory: factory, Outbox: ob},
		submit:   &rentalapp.SubmitRequestHandler{UoWFactory: factory, Outbox: ob},
		decide:   &rentalapp.DecideRequestHandler{UoWFactory: factory, Outbox: ob},
		cancel:   &rentalapp.CancelRequestHandler{UoWFactory: factory, Outbox: ob},
		complete: &rentalapp.RecordCompletionHandler{UoWFactory: factory, Outbox: ob},
		get:      &rentalapp.GetRequestHandler{UoWFactory: factory},
		list:     &rentalapp.ListRequestsHandler{UoWFactory: factory},
	}
}

func (f *fixture) newItem(t *testing.T, dailyRate int64) string {
	t.Helper()
	item, err := f.create.Handle(context.Background(), itemsapp.CreateItemCommand{
		CommandID:       "item-" + t.Name(),
		OwnerID:         "owner-1",
		Name:            "Gibson Les Paul",
		DailyRateAmount: dailyRate,
		Currency:        "EUR",
	})
	require.NoError(t, err)
	return item.ID
}

func (f *fixture) newRequest(t *testing.T, id, itemID string, startDay, endDay int) *rentalapp.SubmitRequestResult {
	t.Helper()
	result, err := f.submit.Handle(context.Background(), rentalapp.SubmitRequestCommand{
		CommandID: id,
		ItemID:    itemID,
		RenterID:  "renter-" + id,
		Start:     day(startDay),
		End:       day(endDay),
	})
	require.NoError(t, err)
	return result
}

func TestSubmitComputesTotal(t *testing.T) {
	f := newFixture()
	itemID := f.newItem(t, 1000)

	result := f.newRequest(t, "req-a", itemID, 1, 3)
	assert.Equal(t, "PENDING", result.Status)
	assert.Equal(t, int64(2000), result.TotalAmount, "two whole days at the daily rate")
	assert.Equal(t, "EUR", result.Currency)
}

func TestSubmitDoesNotTouchCalendar(t *testing.T) {
	f := newFixture()
	itemID := f.newItem(t, 1000)

	f.newRequest(t, "req-a", itemID, 1, 3)
	f.newRequest(t, "req-b", itemID, 2, 4)

	cal, err := f.factory.CalendarRepo.ByItem(context.Background(), domainitems.ItemID(itemID))
	require.NoError(t, err)
	assert.Empty(t, cal.Blocks, "pending requests reserve nothing")
}

func TestOverlappingRequestsResolvedAtDecision(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	itemID := f.newItem(t, 1000)

	a := f.newRequest(t, "req-a", itemID, 1, 3)
	b := f.newRequest(t, "req-b", itemID, 2, 4)
	assert.Equal(t, "PENDING", b.Status, "overlapping submissions are both legal")

	accepted, err := f.decide.Handle(ctx, rentalapp.DecideRequestCommand{
		RequestID: a.RequestID, Accept: true, Now: day(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", accepted.Status)

	_, err = f.decide.Handle(ctx, rentalapp.DecideRequestCommand{
		RequestID: b.RequestID, Accept: true, Now: day(1),
	})
	assert.ErrorIs(t, err, domainavailability.ErrConflict)

	got, err := f.get.Handle(ctx, rentalapp.GetRequestQuery{RequestID: b.RequestID})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", got.Status, "losing request stays pending after the conflict")

	rejected, err := f.decide.Handle(ctx, rentalapp.DecideRequestCommand{
		RequestID: b.RequestID, Accept: false, Reason: "dates taken", Now: day(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "REJECTED", rejected.Status)
	assert.Equal(t, "dates taken", rejected.RejectionReason)
}

func TestConcurrentAcceptExactlyOneWins(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	itemID := f.newItem(t, 1000)

	a := f.newRequest(t, "req-a", itemID, 1, 3)
	b := f.newRequest(t, "req-b", itemID, 2, 4)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i, id := range []string{a.RequestID, b.RequestID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = f.decide.Handle(ctx, rentalapp.DecideRequestCommand{
				RequestID: id, Accept: true, Now: day(1),
			})
		}(i, id)
	}
	wg.Wait()

	conflicts := 0
	for _, err := range errs {
		if err != nil {
			require.ErrorIs(t, err, domainavailability.ErrConflict)
			conflicts++
		}
	}
	assert.Equal(t, 1, conflicts, "exactly one acceptance wins the interval")
}

func TestCancelReleasesInterval(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	itemID := f.newItem(t, 1000)

	a := f.newRequest(t, "req-a", itemID, 1, 3)
	_, err := f.decide.Handle(ctx, rentalapp.DecideRequestCommand{RequestID: a.RequestID, Accept: true, Now: day(1)})
	require.NoError(t, err)

	cancelled, err := f.cancel.Handle(ctx, rentalapp.CancelRequestCommand{RequestID: a.RequestID, Now: day(1)})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)

	// the freed interval can be accepted again
	b := f.newRequest(t, "req-b", itemID, 1, 3)
	accepted, err := f.decide.Handle(ctx, rentalapp.DecideRequestCommand{RequestID: b.RequestID, Accept: true, Now: day(1)})
	require.NoError(t, err)
	assert.Equal(t, "ACCEPTED", accepted.Status)
}

func TestRecordCompletionFoldsBothAggregators(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	itemID := f.newItem(t, 1000)

	a := f.newRequest(t, "req-a", itemID, 1, 3)
	_, err := f.decide.Handle(ctx, rentalapp.DecideRequestCommand{RequestID: a.RequestID, Accept: true, Now: day(1)})
	require.NoError(t, err)

	// the range has not ended yet
	_, err = f.complete.Handle(ctx, rentalapp.RecordCompletionCommand{RequestID: a.RequestID, Score: 4.5, Now: day(2)})
	assert.ErrorIs(t, err, domainrental.ErrInvalidState)

	result, err := f.complete.Handle(ctx, rentalapp.RecordCompletionCommand{RequestID: a.RequestID, Score: 4.5, Now: day(3)})
	require.NoError(t, err)
	assert.True(t, result.Request.Rated)
	assert.Equal(t, int64(1), result.ItemRating.Count)
	assert.Equal(t, 4.5, result.ItemRating.Mean)
	assert.Equal(t, int64(1), result.UserRating.Count)
	assert.Equal(t, 4.5, result.UserRating.Mean)

	// repeating the call must not fold again, even with a different score
	again, err := f.complete.Handle(ctx, rentalapp.RecordCompletionCommand{RequestID: a.RequestID, Score: 1.0, Now: day(4)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), again.ItemRating.Count)
	assert.Equal(t, 4.5, again.ItemRating.Mean)
}

func TestRecordCompletionRejectsInvalidScore(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	itemID := f.newItem(t, 1000)

	a := f.newRequest(t, "req-a", itemID, 1, 3)
	_, err := f.decide.Handle(ctx, rentalapp.DecideRequestCommand{RequestID: a.RequestID, Accept: true, Now: day(1)})
	require.NoError(t, err)

	for _, score := range []float64{0, 0.5, 5.5, 4.25} {
		_, err := f.complete.Handle(ctx, rentalapp.RecordCompletionCommand{RequestID: a.RequestID, Score: score, Now: day(3)})
		assert.Error(t, err, "score %v", score)
	}
}

func TestListRequestsByStatus(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	itemID := f.newItem(t, 1000)

	a := f.newRequest(t, "req-a", itemID, 1, 3)
	f.newRequest(t, "req-b", itemID, 5, 7)
	_, err := f.decide.Handle(ctx, rentalapp.DecideRequestCommand{RequestID: a.RequestID, Accept: true, Now: day(1)})
	require.NoError(t, err)

	accepted, err := f.list.Handle(ctx, rentalapp.ListRequestsQuery{ItemID: itemID, Status: "ACCEPTED"})
	require.NoError(t, err)
	require.Len(t, accepted.Items, 1)
	assert.Equal(t, a.RequestID, accepted.Items[0].ID)

	pending, err := f.list.Handle(ctx, rentalapp.ListRequestsQuery{ItemID: itemID, Status: "PENDING"})
	require.NoError(t, err)
	assert.Len(t, pending.Items, 1)

	all, err := f.list.Handle(ctx, rentalapp.ListRequestsQuery{ItemID: itemID})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)

	_, err = f.list.Handle(ctx, rentalapp.ListRequestsQuery{ItemID: itemID, Status: "BOGUS"})
	assert.Error(t, err)
}

func TestOutboxReceivesLifecycleEvents(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	itemID := f.newItem(t, 1000)

	a := f.newRequest(t, "req-a", itemID, 1, 3)
	_, err := f.decide.Handle(ctx, rentalapp.DecideRequestCommand{RequestID: a.RequestID, Accept: true, Now: day(1)})
	require.NoError(t, err)

	names := make(map[string]int)
	for _, rec := range f.outbox.Records() {
		names[rec.Name]++
	}
	assert.Equal(t, 1, names["item.listed"])
	assert.Equal(t, 1, names["request.submitted"])
	assert.Equal(t, 1, names["request.accepted"])
	assert.Equal(t, 1, names["calendar.blocked"])
}
