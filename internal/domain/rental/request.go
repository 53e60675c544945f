package rental

import (
	"context"
	"errors"
	"time"

	"instrent/internal/domain/availability"
	"instrent/internal/domain/items"
	"instrent/internal/domain/shared/daterange"
	"instrent/internal/domain/shared/events"
	"instrent/internal/domain/shared/money"
)

var (
	ErrInvalidState = errors.New("rental: invalid state transition")
	ErrNotFound     = errors.New("rental: request not found")
)

type RequestID string

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusAccepted  Status = "ACCEPTED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// KnownStatus reports whether s is one of the closed status set. Store
// decoders use it to fail fast on corrupted documents.
func KnownStatus(s Status) bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Request is the reservation lifecycle aggregate. It starts PENDING and is
// decided exactly once: PENDING -> ACCEPTED or PENDING -> REJECTED. An
// accepted request may later move to CANCELLED, releasing its calendar block.
// A pending request reserves nothing, so competing requests on the same
// interval are legal and resolved first-accept-wins at decision time.
type Request struct {
	ID              RequestID
	ItemID          items.ItemID
	RenterID        string
	OwnerID         string
	Range           daterange.DateRange
	UnitPrice       money.Money
	Total           money.Money
	Status          Status
	RejectionReason string
	Rated           bool
	CreatedAt       time.Time
	DecidedAt       time.Time
	Version         int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id RequestID) (*Request, error)
	Save(ctx context.Context, request *Request) error
	ListByItem(ctx context.Context, itemID items.ItemID, status Status) ([]*Request, error)
}

type CreateParams struct {
	ID        RequestID
	ItemID    items.ItemID
	RenterID  string
	OwnerID   string
	Range     daterange.DateRange
	UnitPrice money.Money
	CreatedAt time.Time
}

func NewRequest(params CreateParams) (*Request, error) {
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if params.RenterID == "" {
		return nil, errors.New("rental: renter id required")
	}
	if params.RenterID == params.OwnerID {
		return nil, errors.New("rental: owner cannot rent own item")
	}
	if err := params.UnitPrice.EnsurePositive(); err != nil {
		return nil, err
	}
	now := params.CreatedAt.UTC()
	r := &Request{
		ID:        params.ID,
		ItemID:    params.ItemID,
		RenterID:  params.RenterID,
		OwnerID:   params.OwnerID,
		Range:     params.Range,
		UnitPrice: params.UnitPrice,
		Total:     params.UnitPrice.Multiply(int64(params.Range.WholeDays())),
		Status:    StatusPending,
		CreatedAt: now,
	}
	r.Record(RequestSubmitted{RequestID: r.ID, ItemID: r.ItemID, RenterID: r.RenterID, Range: r.Range, Total: r.Total, At: now})
	return r, nil
}

// Accept blocks the calendar under this request's id and marks the request
// accepted. When the block fails the slot was just taken by a competing
// acceptance: the conflict propagates and the request stays PENDING so the
// owner keeps the decision, it is never auto-rejected.
func (r *Request) Accept(calendar *availability.Calendar, now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidState
	}
	if err := calendar.Block(string(r.ID), r.Range, availability.ReasonBooking, now); err != nil {
		return err
	}
	r.Status = StatusAccepted
	r.DecidedAt = now.UTC()
	r.Record(RequestAccepted{RequestID: r.ID, ItemID: r.ItemID, Range: r.Range, Total: r.Total, At: r.DecidedAt})
	return nil
}

func (r *Request) Reject(reason string, now time.Time) error {
	if r.Status != StatusPending {
		return ErrInvalidState
	}
	r.Status = StatusRejected
	r.RejectionReason = reason
	r.DecidedAt = now.UTC()
	r.Record(RequestRejected{RequestID: r.ID, ItemID: r.ItemID, Reason: reason, At: r.DecidedAt})
	return nil
}

// Cancel releases the calendar block for an accepted request. Unblock is
// idempotent so cancelling twice after a partial failure is safe.
func (r *Request) Cancel(calendar *availability.Calendar, now time.Time) error {
	if r.Status != StatusAccepted {
		return ErrInvalidState
	}
	calendar.Unblock(string(r.ID), now)
	r.Status = StatusCancelled
	r.DecidedAt = now.UTC()
	r.Record(RequestCancelled{RequestID: r.ID, ItemID: r.ItemID, Range: r.Range, At: r.DecidedAt})
	return nil
}

// CompletionDue reports whether the rental can be rated: accepted and the
// requested range fully in the past.
func (r *Request) CompletionDue(now time.Time) bool {
	return r.Status == StatusAccepted && r.Range.EndedBy(now)
}

// MarkRated flags the request so each id triggers at most one fold per
// aggregator.
func (r *Request) MarkRated(score float64, now time.Time) error {
	if !r.CompletionDue(now) {
		return ErrInvalidState
	}
	if r.Rated {
		return nil
	}
	r.Rated = true
	r.Record(RequestCompleted{RequestID: r.ID, ItemID: r.ItemID, RenterID: r.RenterID, Score: score, At: now.UTC()})
	return nil
}
