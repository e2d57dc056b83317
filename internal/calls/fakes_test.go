package calls

import (
	"context"
	"errors"
	"sync"
	"time"

	"voice-dispatch/internal/events"
	"voice-dispatch/internal/retell"
)

type fakeRemote struct {
	mu       sync.Mutex
	details  *retell.CallDetails
	getErr   error
	getCalls int
	phone    retell.PhoneCall
	web      retell.WebCall
	placeErr error
	metadata map[string]string
	agentIDs []string
}

func (f *fakeRemote) CreatePhoneCall(ctx context.Context, agentID, toNumber string, metadata map[string]string) (retell.PhoneCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agentIDs = append(f.agentIDs, agentID)
	f.metadata = metadata
	return f.phone, f.placeErr
}

func (f *fakeRemote) CreateWebCall(ctx context.Context, agentID string, metadata map[string]string) (retell.WebCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agentIDs = append(f.agentIDs, agentID)
	f.metadata = metadata
	return f.web, f.placeErr
}

func (f *fakeRemote) GetCall(ctx context.Context, callID string) (*retell.CallDetails, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	return f.details, f.getErr
}

var errAgentMissing = errors.New("agent missing")

type fakeAgents struct {
	remoteID string
	owner    string
}

func (f fakeAgents) EnsureRemoteAgent(ctx context.Context, userID, agentConfigurationID string) (string, error) {
	if userID != f.owner {
		return "", errAgentMissing
	}
	return f.remoteID, nil
}

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	repo   *MemoryRepo
	remote *fakeRemote
	pub    *events.MemoryPublisher
	svc    *Service
	disp   *Dispatcher
}

func newHarness() *harness {
	h := &harness{
		repo:   NewMemoryRepo(),
		remote: &fakeRemote{},
		pub:    events.NewMemoryPublisher(),
	}
	h.svc = NewService(h.repo, h.remote, fakeAgents{remoteID: "agent_remote", owner: "u1"}, events.NewService(h.pub))
	h.svc.clock = func() time.Time { return testNow }
	h.disp = NewDispatcher(h.svc)
	return h
}

// seedCall stores an initiated call owned by u1 with the given platform id.
func (h *harness) seedCall(id, remoteID string) Call {
	c := Call{
		ID:          id,
		UserID:      "u1",
		CallType:    CallTypePhone,
		DriverName:  "Mike",
		PhoneNumber: "+15550001111",
		LoadNumber:  "L-1",
		Status:      CallStatusInitiated,
		InitiatedAt: testNow,
		CreatedAt:   testNow,
	}
	if remoteID != "" {
		c.RetellCallID = &remoteID
	}
	c, _ = h.repo.Create(context.Background(), c)
	return c
}

func intPtr(n int) *int { return &n }
