package httpapi

import "github.com/gin-gonic/gin"

// Mount registers every route. authMW guards everything except health,
// register/login and the voice platform webhook.
func (h Handlers) Mount(r gin.IRouter, authMW gin.HandlerFunc) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Healthz)

	// Public: the platform does not sign deliveries.
	r.POST("/webhooks/retell", h.RetellWebhook)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.GET("/me", authMW, h.Me)
	}

	agentsGroup := r.Group("/agents", authMW)
	{
		agentsGroup.POST("", h.CreateAgent)
		agentsGroup.GET("", h.ListAgents)
		agentsGroup.GET("/:id", h.GetAgent)
		agentsGroup.PATCH("/:id", h.UpdateAgent)
		agentsGroup.DELETE("/:id", h.DeleteAgent)
	}

	callsGroup := r.Group("/calls", authMW)
	{
		callsGroup.POST("/phone", h.CreatePhoneCall)
		callsGroup.POST("/web", h.CreateWebCall)
		callsGroup.GET("", h.ListCalls)
		callsGroup.GET("/:id", h.GetCall)
		callsGroup.GET("/:id/full", h.GetFullCall)
		callsGroup.POST("/:id/refresh", h.RefreshCall)
		callsGroup.DELETE("/:id", h.DeleteCall)
	}
}
