package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"storebot/internal/domain"
	"storebot/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// Pending queues and settlement endpoints. Settlement notes record which
// operator decided; the same service calls back the review-chat buttons, so a
// request settled in the dashboard cannot be settled twice from the chat.

func (h *Handler) PendingRequests(c *gin.Context) {
	ctx := c.Request.Context()

	topups, err := h.Engine.Topups().ListPending(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	orders, err := h.Engine.Orders().ListPending(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	redemptions, err := h.Engine.Redemptions().ListPending(ctx)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topups":      topups,
		"orders":      orders,
		"redemptions": redemptions,
	})
}

type settleRequest struct {
	Note string `json:"note"`
}

func (h *Handler) settleNote(c *gin.Context) (string, bool) {
	var req settleRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return "", false
	}
	note := req.Note
	if note == "" {
		note = fmt.Sprintf("via dashboard by %d", middleware.OperatorID(c))
	}
	return note, true
}

func requestID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) ApproveTopup(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	note, ok := h.settleNote(c)
	if !ok {
		return
	}

	req, err := h.Engine.ApproveTopup(c.Request.Context(), id, note)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.Settlements.WithLabelValues(string(domain.KindTopup), string(req.Status)).Inc()
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func (h *Handler) RejectTopup(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	note, ok := h.settleNote(c)
	if !ok {
		return
	}

	req, err := h.Engine.RejectTopup(c.Request.Context(), id, note)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.Settlements.WithLabelValues(string(domain.KindTopup), string(req.Status)).Inc()
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func (h *Handler) CompleteOrder(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	note, ok := h.settleNote(c)
	if !ok {
		return
	}

	req, err := h.Engine.CompleteOrder(c.Request.Context(), id, note)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.Settlements.WithLabelValues(string(domain.KindOrder), string(req.Status)).Inc()
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func (h *Handler) FailOrder(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	note, ok := h.settleNote(c)
	if !ok {
		return
	}

	req, err := h.Engine.FailOrder(c.Request.Context(), id, note)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.Settlements.WithLabelValues(string(domain.KindOrder), string(req.Status)).Inc()
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func (h *Handler) ApproveRedemption(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	note, ok := h.settleNote(c)
	if !ok {
		return
	}

	req, err := h.Engine.ApproveRedemption(c.Request.Context(), id, note)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.Settlements.WithLabelValues(string(domain.KindRedemption), string(req.Status)).Inc()
	c.JSON(http.StatusOK, gin.H{"request": req})
}

func (h *Handler) RejectRedemption(c *gin.Context) {
	id, ok := requestID(c)
	if !ok {
		return
	}
	note, ok := h.settleNote(c)
	if !ok {
		return
	}

	req, err := h.Engine.RejectRedemption(c.Request.Context(), id, note)
	if err != nil {
		fail(c, err)
		return
	}
	middleware.Settlements.WithLabelValues(string(domain.KindRedemption), string(req.Status)).Inc()
	c.JSON(http.StatusOK, gin.H{"request": req})
}
