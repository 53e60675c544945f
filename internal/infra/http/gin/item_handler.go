package ginserver

import (
	"net/http"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"instrent/internal/app/commands"
	"instrent/internal/app/dto"
	itemsapp "instrent/internal/app/handlers/items"
	"instrent/internal/app/queries"
)

type ItemHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type createItemRequest struct {
	OwnerID         string `json:"owner_id" binding:"required"`
	Name            string `json:"name" binding:"required"`
	DailyRateAmount int64  `json:"daily_rate_amount" binding:"required"`
	Currency        string `json:"currency" binding:"required"`
}

func (h ItemHandler) Create(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := itemsapp.CreateItemCommand{
		CommandID:       uuid.NewString(),
		OwnerID:         req.OwnerID,
		Name:            req.Name,
		DailyRateAmount: req.DailyRateAmount,
		Currency:        req.Currency,
	}
	result, err := commands.Dispatch[itemsapp.CreateItemCommand, dto.Item](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ItemHandler) Get(c *gin.Context) {
	q := itemsapp.GetItemQuery{ItemID: c.Param("id")}
	result, err := queries.Ask[itemsapp.GetItemQuery, dto.Item](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

var _ ItemHTTP = ItemHandler{}
