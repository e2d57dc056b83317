package agents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	agents map[string]Agent
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{agents: map[string]Agent{}}
}

func (r *MemoryRepo) Create(ctx context.Context, a Agent) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[a.ID] = a
	return a, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id, userID string) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok || a.UserID != userID {
		return Agent{}, ErrNotFound
	}
	return a, nil
}

func (r *MemoryRepo) ListActive(ctx context.Context, userID string) ([]Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Agent{}
	for _, a := range r.agents {
		if a.UserID == userID && a.IsActive {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, a Agent) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.agents[a.ID]
	if !ok || prev.UserID != a.UserID {
		return Agent{}, ErrNotFound
	}
	a.RetellAgentID = prev.RetellAgentID
	a.RetellLLMID = prev.RetellLLMID
	r.agents[a.ID] = a
	return a, nil
}

func (r *MemoryRepo) Deactivate(ctx context.Context, id, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok || a.UserID != userID {
		return ErrNotFound
	}
	a.IsActive = false
	a.UpdatedAt = at
	r.agents[id] = a
	return nil
}

func (r *MemoryRepo) SetRemoteIDs(ctx context.Context, id, agentID, llmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.agents[id]
	if !ok {
		return ErrNotFound
	}
	a.RetellAgentID = &agentID
	a.RetellLLMID = &llmID
	r.agents[id] = a
	return nil
}
