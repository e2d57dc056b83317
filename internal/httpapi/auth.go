package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"voice-dispatch/internal/auth"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if !strings.Contains(req.Email, "@") || req.Password == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	reg, err := h.Identity.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	var rejected *auth.RejectedError
	switch {
	case errors.Is(err, auth.ErrIdentityUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "registration not available"})
		return
	case errors.As(err, &rejected):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": rejected.Message})
		return
	case err != nil:
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, reg)
}

func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	sess, err := h.Identity.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	switch {
	case errors.Is(err, auth.ErrIdentityUnavailable):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "login not available"})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Incorrect email or password"})
		return
	case err != nil:
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h Handlers) Me(c *gin.Context) {
	id, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, id)
}
