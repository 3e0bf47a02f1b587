package handlers

import (
	"errors"
	"net/http"

	"storebot/internal/config"
	"storebot/internal/service"

	"github.com/gin-gonic/gin"
)

// Handler carries the shared dependencies for all dashboard endpoints.
type Handler struct {
	Engine *service.Engine
	Cfg    *config.Config
}

func NewHandler(engine *service.Engine, cfg *config.Config) *Handler {
	return &Handler{Engine: engine, Cfg: cfg}
}

// fail maps service errors onto HTTP status codes.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrAlreadySettled):
		c.JSON(http.StatusConflict, gin.H{"error": "request already settled"})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInsufficientFunds),
		errors.Is(err, service.ErrInsufficientPoints):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
