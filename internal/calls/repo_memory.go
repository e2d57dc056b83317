package calls

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests. Transcript and results
// writes follow the same conflict rules as the Postgres statements.
type MemoryRepo struct {
	mu          sync.Mutex
	calls       map[string]Call
	transcripts map[string]Transcript
	results     map[string]Results
	now         func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		calls:       map[string]Call{},
		transcripts: map[string]Transcript{},
		results:     map[string]Results{},
		now:         time.Now,
	}
}

func (r *MemoryRepo) Create(ctx context.Context, c Call) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.UpdatedAt = c.CreatedAt
	r.calls[c.ID] = c
	return c, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id, userID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok || (userID != "" && c.UserID != userID) {
		return Call{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryRepo) GetByRemoteID(ctx context.Context, remoteID, userID string) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c.remoteID() == remoteID && (userID == "" || c.UserID == userID) {
			return c, nil
		}
	}
	return Call{}, ErrNotFound
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Call{}
	for _, c := range r.calls {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, id string, status CallStatus, times *CallTimes) (Call, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok {
		return Call{}, ErrNotFound
	}
	c.Status = status
	if times != nil {
		if times.StartedAt != nil {
			c.StartedAt = times.StartedAt
		}
		if times.EndedAt != nil {
			c.EndedAt = times.EndedAt
		}
		if times.DurationSeconds != nil {
			c.DurationSeconds = times.DurationSeconds
		}
	}
	c.UpdatedAt = r.now().UTC()
	r.calls[id] = c
	return c, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.calls[id]
	if !ok || c.UserID != userID {
		return ErrNotFound
	}
	delete(r.calls, id)
	delete(r.transcripts, id)
	delete(r.results, id)
	return nil
}

func (r *MemoryRepo) InsertTranscriptIfAbsent(ctx context.Context, t Transcript) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.transcripts[t.CallID]; ok {
		return false, nil
	}
	r.transcripts[t.CallID] = t
	return true, nil
}

func (r *MemoryRepo) UpsertResults(ctx context.Context, res Results) (Results, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.results[res.CallID]; ok {
		res.ID = prev.ID
		res.CreatedAt = prev.CreatedAt
	} else {
		res.CreatedAt = res.UpdatedAt
	}
	r.results[res.CallID] = res
	return res, nil
}

func (r *MemoryRepo) GetTranscript(ctx context.Context, callID string) (*Transcript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transcripts[callID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *MemoryRepo) GetResults(ctx context.Context, callID string) (*Results, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[callID]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

// TranscriptCount and ResultsCount expose row counts for assertions.
func (r *MemoryRepo) TranscriptCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.transcripts)
}

func (r *MemoryRepo) ResultsCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}
