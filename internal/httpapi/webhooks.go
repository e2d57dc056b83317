package httpapi

import (
	"io"
	"net/http"

	"voice-dispatch/internal/calls"
	"voice-dispatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

// RetellWebhook receives call lifecycle events from the voice platform.
// Deliveries that cannot be applied answer 200 with a status "error" body so
// the platform does not retry them; only processing failures answer 500.
func (h Handlers) RetellWebhook(c *gin.Context) {
	log := logger.FromGin(c)

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		log.Warn("webhook body read failed", "err", err)
		c.JSON(http.StatusOK, calls.DispatchResult{Status: calls.DispatchStatusError, Message: "unreadable body"})
		return
	}
	ev, err := calls.ParseWebhook(body)
	if err != nil {
		log.Warn("webhook body rejected", "err", err)
		c.JSON(http.StatusOK, calls.DispatchResult{Status: calls.DispatchStatusError, Message: "invalid json"})
		return
	}

	res, err := h.Dispatcher.Dispatch(c.Request.Context(), ev)
	if err != nil {
		log.Error("webhook processing failed", "event_type", ev.Type, "retell_call_id", ev.CallID, "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, calls.DispatchResult{Status: calls.DispatchStatusError, Message: "webhook processing failed"})
		return
	}
	c.JSON(http.StatusOK, res)
}
