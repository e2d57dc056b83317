package main

import (
	"context"
	"database/sql"
	"time"

	"voice-dispatch/internal/agents"
	"voice-dispatch/internal/auth"
	"voice-dispatch/internal/calls"
	"voice-dispatch/internal/config"
	"voice-dispatch/internal/events"
	"voice-dispatch/internal/httpapi"
	"voice-dispatch/internal/retell"
	"voice-dispatch/pkg/utils"

	"github.com/gin-gonic/gin"
)

// buildHandlers wires services to their Postgres repositories and the voice platform client.
func buildHandlers(cfg config.Config, db *sql.DB, pub events.Publisher) (httpapi.Handlers, error) {
	rc, err := retell.NewClient(cfg.Retell)
	if err != nil {
		return httpapi.Handlers{}, err
	}

	agentSvc := agents.NewService(agents.NewPostgresRepo(db), rc)
	callSvc := calls.NewService(calls.NewPostgresRepo(db), rc, agentSvc, events.NewService(pub))

	return httpapi.Handlers{
		Name:       "voice-dispatch",
		Version:    Version,
		Identity:   auth.NewIdentityClient(cfg.Supabase, cfg.Retell.Timeout),
		Agents:     agentSvc,
		Calls:      callSvc,
		Dispatcher: calls.NewDispatcher(callSvc),
		Ping:       func(ctx context.Context) error { return utils.HealthCheck(ctx, db, 2*time.Second) },
	}, nil
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, h httpapi.Handlers) error {
	v, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return err
	}
	h.Mount(r, auth.RequireAccessToken(v))
	return nil
}
