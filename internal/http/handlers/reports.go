package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Totals(c *gin.Context) {
	totals, err := h.Engine.Totals(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"totals": totals})
}

func (h *Handler) DailyReport(c *gin.Context) {
	days, _ := strconv.Atoi(c.DefaultQuery("days", "7"))
	if days > 90 {
		days = 90
	}

	rows, err := h.Engine.DailyReport(c.Request.Context(), days)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": rows})
}
