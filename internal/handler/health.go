package handler

import (
	"github.com/gin-gonic/gin"
)

// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} Response
// @Router /health [get]
func Health(c *gin.Context) {
	ok(c, gin.H{"status": "ok"})
}
