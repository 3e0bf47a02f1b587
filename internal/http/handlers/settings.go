package handlers

import (
	"net/http"
	"strconv"

	"storebot/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListSettings(c *gin.Context) {
	settings, err := h.Engine.Settings().All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": settings})
}

type setSettingRequest struct {
	Value string `json:"value"`
}

func (h *Handler) SetSetting(c *gin.Context) {
	key := c.Param("key")
	var req setSettingRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if err := h.Engine.Settings().Set(c.Request.Context(), key, req.Value); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

func (h *Handler) ListVIPLevels(c *gin.Context) {
	levels, err := h.Engine.VIP().List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vip_levels": levels})
}

func (h *Handler) UpsertVIPLevel(c *gin.Context) {
	level, err := strconv.Atoi(c.Param("level"))
	if err != nil || level < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid level"})
		return
	}
	var lvl domain.VIPLevel
	if err := c.BindJSON(&lvl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	lvl.Level = level
	if lvl.SpendThreshold < 0 || lvl.DiscountPercent.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "threshold and discount must be non-negative"})
		return
	}

	if err := h.Engine.VIP().Upsert(c.Request.Context(), &lvl); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"vip_level": lvl})
}
