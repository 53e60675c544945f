package ginserver

import (
	"errors"
	"net/http"

	gin "github.com/gin-gonic/gin"

	domainavailability "instrent/internal/domain/availability"
	domainitems "instrent/internal/domain/items"
	domainrating "instrent/internal/domain/rating"
	domainrental "instrent/internal/domain/rental"
	domainrange "instrent/internal/domain/shared/daterange"
	"instrent/internal/domain/shared/money"
)

// respondError maps the engine's error taxonomy onto HTTP statuses. Every
// failure is terminal for the call; conflicts surface so the caller can pick
// a different outcome.
func respondError(c *gin.Context, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, domainitems.ErrNotFound), errors.Is(err, domainrental.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domainavailability.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, domainrental.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, domainrange.ErrInvalidRange),
		errors.Is(err, domainrating.ErrInvalidScore),
		errors.Is(err, money.ErrNonPositive),
		errors.Is(err, money.ErrInvalidCurrency):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, domainitems.ErrUnavailable):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
