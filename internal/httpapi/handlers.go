package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"voice-dispatch/internal/agents"
	"voice-dispatch/internal/auth"
	"voice-dispatch/internal/calls"
	"voice-dispatch/internal/retell"
	"voice-dispatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Name    string
	Version string

	Identity   *auth.IdentityClient
	Agents     *agents.Service
	Calls      *calls.Service
	Dispatcher *calls.Dispatcher

	// Ping checks the database for /healthz. Nil skips the check.
	Ping func(ctx context.Context) error
}

// currentUser reads the identity injected by auth.RequireAccessToken.
func currentUser(c *gin.Context) (auth.Identity, bool) {
	id, err := auth.IdentityFrom(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return auth.Identity{}, false
	}
	return id, true
}

// writeError maps service errors onto status codes. Unknown errors are logged
// and answered with a generic 500.
func writeError(c *gin.Context, err error) {
	log := logger.FromGin(c)
	var apiErr *retell.APIError

	switch {
	case errors.Is(err, agents.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Agent not found"})
	case errors.Is(err, calls.ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Call not found"})
	case errors.Is(err, agents.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": detail(err, agents.ErrInvalidArgument)})
	case errors.Is(err, calls.ErrInvalidArgument):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": detail(err, calls.ErrInvalidArgument)})
	case errors.Is(err, calls.ErrNoRemoteCall):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "call has no voice platform id"})
	case errors.As(err, &apiErr):
		log.Error("voice platform request failed", "status", apiErr.StatusCode, "body", apiErr.Body)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "voice platform request failed"})
	default:
		log.Error("request failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// detail strips the sentinel prefix so clients see only the field message.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return "invalid request"
	}
	return msg
}
