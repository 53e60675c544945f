package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"instrent/internal/app/commands"
	"instrent/internal/app/dto"
	rentalapp "instrent/internal/app/handlers/rental"
	"instrent/internal/app/queries"
)

type RequestHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type submitRequestRequest struct {
	ItemID   string    `json:"item_id" binding:"required"`
	RenterID string    `json:"renter_id" binding:"required"`
	Start    time.Time `json:"start" binding:"required"`
	End      time.Time `json:"end" binding:"required"`
}

func (h RequestHandler) Submit(c *gin.Context) {
	var req submitRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rentalapp.SubmitRequestCommand{
		CommandID:       uuid.NewString(),
		ItemID:          req.ItemID,
		RenterID:        req.RenterID,
		Start:           req.Start,
		End:             req.End,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[rentalapp.SubmitRequestCommand, *rentalapp.SubmitRequestResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

type decideRequestRequest struct {
	Accept bool   `json:"accept"`
	Reason string `json:"reason"`
}

func (h RequestHandler) Decide(c *gin.Context) {
	var req decideRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rentalapp.DecideRequestCommand{
		RequestID: c.Param("id"),
		Accept:    req.Accept,
		Reason:    req.Reason,
		Now:       time.Now().UTC(),
	}
	result, err := commands.Dispatch[rentalapp.DecideRequestCommand, dto.Request](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RequestHandler) Cancel(c *gin.Context) {
	cmd := rentalapp.CancelRequestCommand{
		RequestID: c.Param("id"),
		Now:       time.Now().UTC(),
	}
	result, err := commands.Dispatch[rentalapp.CancelRequestCommand, dto.Request](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type recordCompletionRequest struct {
	Score float64 `json:"score" binding:"required"`
}

func (h RequestHandler) Complete(c *gin.Context) {
	var req recordCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := rentalapp.RecordCompletionCommand{
		RequestID: c.Param("id"),
		Score:     req.Score,
		Now:       time.Now().UTC(),
	}
	result, err := commands.Dispatch[rentalapp.RecordCompletionCommand, rentalapp.RecordCompletionResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RequestHandler) Get(c *gin.Context) {
	q := rentalapp.GetRequestQuery{RequestID: c.Param("id")}
	result, err := queries.Ask[rentalapp.GetRequestQuery, dto.Request](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h RequestHandler) ListByItem(c *gin.Context) {
	q := rentalapp.ListRequestsQuery{
		ItemID: c.Param("id"),
		Status: c.Query("status"),
	}
	result, err := queries.Ask[rentalapp.ListRequestsQuery, dto.RequestCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ RequestHTTP = RequestHandler{}
