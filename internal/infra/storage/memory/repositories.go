package memory

import (
	"context"
	"sort"
	"sync"

	"instrent/internal/app/uow"
	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrating "instrent/internal/domain/rating"
	domainrental "instrent/internal/domain/rental"
	"instrent/internal/domain/shared/events"
)

// The memory repositories mirror the document-store contract: reads hand out
// snapshots and saves are conditional on the loaded version, so concurrent
// writers race exactly as they would against the real store.

type ItemRepository struct {
	mu    sync.RWMutex
	items map[domainitems.ItemID]*domainitems.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{items: make(map[domainitems.ItemID]*domainitems.Item)}
}

func (r *ItemRepository) ByID(ctx context.Context, id domainitems.ItemID) (*domainitems.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok {
		return nil, domainitems.ErrNotFound
	}
	cp := *item
	cp.EventRecorder = events.EventRecorder{}
	return &cp, nil
}

func (r *ItemRepository) Save(ctx context.Context, item *domainitems.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[item.ID]; ok && stored.Version != item.Version {
		return uow.ErrConcurrentUpdate
	}
	cp := *item
	cp.EventRecorder = events.EventRecorder{}
	cp.Version = item.Version + 1
	r.items[item.ID] = &cp
	item.Version = cp.Version
	return nil
}

type CalendarRepository struct {
	mu        sync.RWMutex
	calendars map[domainitems.ItemID]*domainavailability.Calendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{calendars: make(map[domainitems.ItemID]*domainavailability.Calendar)}
}

func (r *CalendarRepository) ByItem(ctx context.Context, id domainitems.ItemID) (*domainavailability.Calendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	calendar, ok := r.calendars[id]
	if !ok {
		return nil, domainitems.ErrNotFound
	}
	return calendar.Clone(), nil
}

func (r *CalendarRepository) Save(ctx context.Context, calendar *domainavailability.Calendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.calendars[calendar.ItemID]; ok && stored.Version != calendar.Version {
		return uow.ErrConcurrentUpdate
	}
	cp := calendar.Clone()
	cp.Version = calendar.Version + 1
	r.calendars[calendar.ItemID] = cp
	calendar.Version = cp.Version
	return nil
}

type RequestRepository struct {
	mu       sync.RWMutex
	requests map[domainrental.RequestID]*domainrental.Request
}

func NewRequestRepository() *RequestRepository {
	return &RequestRepository{requests: make(map[domainrental.RequestID]*domainrental.Request)}
}

func (r *RequestRepository) ByID(ctx context.Context, id domainrental.RequestID) (*domainrental.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	request, ok := r.requests[id]
	if !ok {
		return nil, domainrental.ErrNotFound
	}
	cp := *request
	cp.EventRecorder = events.EventRecorder{}
	return &cp, nil
}

func (r *RequestRepository) Save(ctx context.Context, request *domainrental.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.requests[request.ID]; ok && stored.Version != request.Version {
		return uow.ErrConcurrentUpdate
	}
	cp := *request
	cp.EventRecorder = events.EventRecorder{}
	cp.Version = request.Version + 1
	r.requests[request.ID] = &cp
	request.Version = cp.Version
	return nil
}

func (r *RequestRepository) ListByItem(ctx context.Context, itemID domainitems.ItemID, status domainrental.Status) ([]*domainrental.Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainrental.Request, 0)
	for _, request := range r.requests {
		if request.ItemID != itemID {
			continue
		}
		if status != "" && request.Status != status {
			continue
		}
		cp := *request
		cp.EventRecorder = events.EventRecorder{}
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

type RatingRepository struct {
	mu          sync.RWMutex
	aggregators map[string]*domainrating.Aggregator
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{aggregators: make(map[string]*domainrating.Aggregator)}
}

func ratingKey(kind domainrating.SubjectKind, subjectID string) string {
	return string(kind) + ":" + subjectID
}

func (r *RatingRepository) BySubject(ctx context.Context, kind domainrating.SubjectKind, subjectID string) (*domainrating.Aggregator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	aggregator, ok := r.aggregators[ratingKey(kind, subjectID)]
	if !ok {
		return nil, domainrating.ErrNotFound
	}
	return aggregator.Clone(), nil
}

func (r *RatingRepository) Save(ctx context.Context, aggregator *domainrating.Aggregator) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ratingKey(aggregator.Kind, aggregator.SubjectID)
	if stored, ok := r.aggregators[key]; ok && stored.Version != aggregator.Version {
		return uow.ErrConcurrentUpdate
	}
	cp := aggregator.Clone()
	cp.Version = aggregator.Version + 1
	r.aggregators[key] = cp
	aggregator.Version = cp.Version
	return nil
}
