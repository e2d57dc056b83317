package httpapi

import (
	"net/http"

	"voice-dispatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

func (h Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"name": h.Name, "version": h.Version, "status": "running"})
}

func (h Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "voice-dispatch"})
}

// Healthz also checks that Postgres answers.
func (h Handlers) Healthz(c *gin.Context) {
	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			logger.FromGin(c).Warn("database ping failed", "err", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
