package ginserver

import (
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"instrent/internal/app/commands"
	"instrent/internal/app/dto"
	availabilityapp "instrent/internal/app/handlers/availability"
	"instrent/internal/app/queries"
)

type AvailabilityHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

func (h AvailabilityHandler) Calendar(c *gin.Context) {
	q := availabilityapp.GetCalendarQuery{ItemID: c.Param("id")}
	result, err := queries.Ask[availabilityapp.GetCalendarQuery, dto.Calendar](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type blockRangeRequest struct {
	OwnerID string    `json:"owner_id" binding:"required"`
	Start   time.Time `json:"start" binding:"required"`
	End     time.Time `json:"end" binding:"required"`
}

func (h AvailabilityHandler) Block(c *gin.Context) {
	var req blockRangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := availabilityapp.BlockRangeCommand{
		Reference: uuid.NewString(),
		ItemID:    c.Param("id"),
		OwnerID:   req.OwnerID,
		Start:     req.Start,
		End:       req.End,
	}
	result, err := commands.Dispatch[availabilityapp.BlockRangeCommand, dto.Calendar](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h AvailabilityHandler) Release(c *gin.Context) {
	cmd := availabilityapp.ReleaseRangeCommand{
		ItemID:    c.Param("id"),
		Reference: c.Param("ref"),
	}
	result, err := commands.Dispatch[availabilityapp.ReleaseRangeCommand, dto.Calendar](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ AvailabilityHTTP = AvailabilityHandler{}
