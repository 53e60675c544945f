package dto

import (
	"time"

	domainrental "instrent/internal/domain/rental"
)

// Request is the public reservation request payload.
type Request struct {
	ID              string     `json:"id"`
	ItemID          string     `json:"item_id"`
	RenterID        string     `json:"renter_id"`
	OwnerID         string     `json:"owner_id"`
	Start           time.Time  `json:"start"`
	End             time.Time  `json:"end"`
	UnitPrice       MoneyDTO   `json:"unit_price"`
	Total           MoneyDTO   `json:"total"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	Rated           bool       `json:"rated"`
	CreatedAt       time.Time  `json:"created_at"`
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
}

type RequestCollection struct {
	Items []Request `json:"items"`
}

func MapRequest(request *domainrental.Request) Request {
	if request == nil {
		return Request{}
	}
	out := Request{
		ID:              string(request.ID),
		ItemID:          string(request.ItemID),
		RenterID:        request.RenterID,
		OwnerID:         request.OwnerID,
		Start:           request.Range.Start,
		End:             request.Range.End,
		UnitPrice:       MapMoney(request.UnitPrice),
		Total:           MapMoney(request.Total),
		Status:          string(request.Status),
		RejectionReason: request.RejectionReason,
		Rated:           request.Rated,
		CreatedAt:       request.CreatedAt,
	}
	if !request.DecidedAt.IsZero() {
		decided := request.DecidedAt
		out.DecidedAt = &decided
	}
	return out
}

func MapRequests(requests []*domainrental.Request) RequestCollection {
	items := make([]Request, 0, len(requests))
	for _, request := range requests {
		items = append(items, MapRequest(request))
	}
	return RequestCollection{Items: items}
}
