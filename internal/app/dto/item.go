package dto

import (
	"time"

	domainitems "instrent/internal/domain/items"
	"instrent/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Item is the public item payload, rating fields included per the listing
// record shape.
type Item struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	DailyRate   MoneyDTO  `json:"daily_rate"`
	Available   bool      `json:"available"`
	RatingMean  float64   `json:"rating_mean"`
	RatingCount int64     `json:"rating_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{Amount: value.Amount, Currency: value.Currency}
}

func MapItem(item *domainitems.Item) Item {
	if item == nil {
		return Item{}
	}
	return Item{
		ID:          string(item.ID),
		OwnerID:     item.OwnerID,
		Name:        item.Name,
		DailyRate:   MapMoney(item.DailyRate),
		Available:   item.Available,
		RatingMean:  item.RatingMean,
		RatingCount: item.RatingCount,
		CreatedAt:   item.CreatedAt,
	}
}
