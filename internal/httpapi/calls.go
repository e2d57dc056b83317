package httpapi

import (
	"net/http"

	"voice-dispatch/internal/calls"

	"github.com/gin-gonic/gin"
)

type phoneCallRequest struct {
	AgentConfigurationID string `json:"agent_configuration_id"`
	DriverName           string `json:"driver_name"`
	PhoneNumber          string `json:"phone_number"`
	LoadNumber           string `json:"load_number"`
}

type webCallRequest struct {
	AgentConfigurationID string `json:"agent_configuration_id"`
	DriverName           string `json:"driver_name"`
	LoadNumber           string `json:"load_number"`
}

func (h Handlers) CreatePhoneCall(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	var req phoneCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.AgentConfigurationID == "" || req.DriverName == "" || req.PhoneNumber == "" || req.LoadNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_configuration_id, driver_name, phone_number, load_number required"})
		return
	}

	call, err := h.Calls.CreatePhoneCall(c.Request.Context(), id.UserID, calls.PhoneCallRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, call)
}

func (h Handlers) CreateWebCall(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	var req webCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.AgentConfigurationID == "" || req.DriverName == "" || req.LoadNumber == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "agent_configuration_id, driver_name, load_number required"})
		return
	}

	sess, err := h.Calls.CreateWebCall(c.Request.Context(), id.UserID, calls.WebCallRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h Handlers) ListCalls(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.Calls.List(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetCall accepts a local id or a voice platform call id.
func (h Handlers) GetCall(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	call, err := h.Calls.Get(c.Request.Context(), id.UserID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h Handlers) GetFullCall(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	full, err := h.Calls.GetFull(c.Request.Context(), id.UserID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, full)
}

func (h Handlers) RefreshCall(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	call, err := h.Calls.Refresh(c.Request.Context(), id.UserID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

func (h Handlers) DeleteCall(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.Calls.Delete(c.Request.Context(), id.UserID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
