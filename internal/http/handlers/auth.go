package handlers

import (
	"encoding/json"
	"net/http"

	"storebot/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData string `json:"init_data"`
}

// Auth issues a dashboard session for operators. The caller proves their
// Telegram identity with WebApp init_data; only configured operator IDs get a
// token.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if len(req.InitData) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	values, ok := service.ValidateTelegramInitData(req.InitData, h.Cfg.BotToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
		return
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
		return
	}

	var tgUser struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(userRaw), &tgUser); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user json"})
		return
	}

	if !h.Cfg.IsAdmin(tgUser.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not an operator"})
		return
	}

	token, err := service.GenerateJWT(tgUser.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"operator": gin.H{
			"tg_id":    tgUser.ID,
			"username": tgUser.Username,
		},
	})
}
