package middleware

import (
	"net/http"
	"strings"

	"storebot/internal/service"

	"github.com/gin-gonic/gin"
)

// JWT validates the Bearer token and stores the operator's Telegram ID in the
// context under "operator_id".
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		operatorID, err := service.ParseJWT(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("operator_id", operatorID)
		c.Next()
	}
}

// OperatorID reads the authenticated operator's Telegram ID from the context.
func OperatorID(c *gin.Context) int64 {
	v, _ := c.Get("operator_id")
	id, _ := v.(int64)
	return id
}
