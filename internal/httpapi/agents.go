package httpapi

import (
	"net/http"

	"voice-dispatch/internal/agents"

	"github.com/gin-gonic/gin"
)

func (h Handlers) CreateAgent(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	var in agents.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	a, err := h.Agents.Create(c.Request.Context(), id.UserID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h Handlers) ListAgents(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := h.Agents.List(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) GetAgent(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	a, err := h.Agents.Get(c.Request.Context(), id.UserID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) UpdateAgent(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	var in agents.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	a, err := h.Agents.Update(c.Request.Context(), id.UserID, c.Param("id"), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h Handlers) DeleteAgent(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.Agents.Delete(c.Request.Context(), id.UserID, c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
