package calls

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"voice-dispatch/internal/events"
	"voice-dispatch/internal/retell"
	"voice-dispatch/pkg/logger"

	"github.com/google/uuid"
)

// listLimit caps GET /calls.
const listLimit = 100

// remoteIDPrefix marks platform call ids; anything else is a local id.
const remoteIDPrefix = "call_"

// RemoteCalls is the part of the voice platform client the call lifecycle needs.
type RemoteCalls interface {
	CreatePhoneCall(ctx context.Context, agentID, toNumber string, metadata map[string]string) (retell.PhoneCall, error)
	CreateWebCall(ctx context.Context, agentID string, metadata map[string]string) (retell.WebCall, error)
	GetCall(ctx context.Context, callID string) (*retell.CallDetails, error)
}

// AgentProvisioner resolves an owned agent configuration to its platform agent id,
// creating the platform agent on first use.
type AgentProvisioner interface {
	EnsureRemoteAgent(ctx context.Context, userID, agentConfigurationID string) (string, error)
}

type Service struct {
	repo   Repository
	remote RemoteCalls
	agents AgentProvisioner
	events *events.Service
	clock  func() time.Time
}

func NewService(repo Repository, remote RemoteCalls, agents AgentProvisioner, ev *events.Service) *Service {
	if ev == nil {
		ev = events.NewService(nil)
	}
	return &Service{repo: repo, remote: remote, agents: agents, events: ev, clock: time.Now}
}

type PhoneCallRequest struct {
	AgentConfigurationID string
	DriverName           string
	PhoneNumber          string
	LoadNumber           string
}

type WebCallRequest struct {
	AgentConfigurationID string
	DriverName           string
	LoadNumber           string
}

// WebCallSession is what a browser needs to join a web call.
type WebCallSession struct {
	AccessToken string `json:"access_token"`
	CallID      string `json:"call_id"`
}

func callMetadata(driverName, loadNumber string) map[string]string {
	return map[string]string{
		"driver_name": driverName,
		"load_number": loadNumber,
	}
}

// CreatePhoneCall dials the driver and records the call as initiated.
func (s *Service) CreatePhoneCall(ctx context.Context, userID string, req PhoneCallRequest) (Call, error) {
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if userID == "" || req.AgentConfigurationID == "" || req.DriverName == "" || req.PhoneNumber == "" || req.LoadNumber == "" {
		return Call{}, ErrInvalidArgument
	}

	agentID, err := s.agents.EnsureRemoteAgent(ctx, userID, req.AgentConfigurationID)
	if err != nil {
		return Call{}, err
	}

	pc, err := s.remote.CreatePhoneCall(ctx, agentID, req.PhoneNumber, callMetadata(req.DriverName, req.LoadNumber))
	if err != nil {
		return Call{}, err
	}

	return s.record(ctx, userID, req.AgentConfigurationID, CallTypePhone, req.DriverName, req.PhoneNumber, req.LoadNumber, pc.CallID)
}

// CreateWebCall opens a browser call and records it with the WEB_CALL placeholder number.
func (s *Service) CreateWebCall(ctx context.Context, userID string, req WebCallRequest) (WebCallSession, error) {
	if userID == "" || req.AgentConfigurationID == "" || req.DriverName == "" || req.LoadNumber == "" {
		return WebCallSession{}, ErrInvalidArgument
	}

	agentID, err := s.agents.EnsureRemoteAgent(ctx, userID, req.AgentConfigurationID)
	if err != nil {
		return WebCallSession{}, err
	}

	wc, err := s.remote.CreateWebCall(ctx, agentID, callMetadata(req.DriverName, req.LoadNumber))
	if err != nil {
		return WebCallSession{}, err
	}

	if _, err := s.record(ctx, userID, req.AgentConfigurationID, CallTypeWeb, req.DriverName, WebCallPhoneNumber, req.LoadNumber, wc.CallID); err != nil {
		return WebCallSession{}, err
	}
	return WebCallSession{AccessToken: wc.AccessToken, CallID: wc.CallID}, nil
}

func (s *Service) record(ctx context.Context, userID, agentConfigID string, typ CallType, driver, phone, load, remoteID string) (Call, error) {
	now := s.clock().UTC()
	c := Call{
		ID:                   uuid.NewString(),
		UserID:               userID,
		AgentConfigurationID: &agentConfigID,
		CallType:             typ,
		DriverName:           driver,
		PhoneNumber:          phone,
		LoadNumber:           load,
		Status:               CallStatusInitiated,
		InitiatedAt:          now,
		CreatedAt:            now,
	}
	if remoteID != "" {
		c.RetellCallID = &remoteID
	}

	created, err := s.repo.Create(ctx, c)
	if err != nil {
		// The platform call exists at this point; log enough to reconcile it by hand.
		logger.From(ctx).Error("call insert failed", "retell_call_id", remoteID, "user_id", userID, "err", err)
		return Call{}, fmt.Errorf("store call: %w", err)
	}
	return created, nil
}

func (s *Service) List(ctx context.Context, userID string) ([]Call, error) {
	return s.repo.ListByUser(ctx, userID, listLimit)
}

// Get resolves ref as a platform call id when it carries the call_ prefix,
// otherwise as a local id. Both are scoped to userID.
func (s *Service) Get(ctx context.Context, userID, ref string) (Call, error) {
	if strings.HasPrefix(ref, remoteIDPrefix) {
		return s.repo.GetByRemoteID(ctx, ref, userID)
	}
	if _, err := uuid.Parse(ref); err != nil {
		return Call{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, ref, userID)
}

func (s *Service) GetFull(ctx context.Context, userID, ref string) (FullCall, error) {
	c, err := s.Get(ctx, userID, ref)
	if err != nil {
		return FullCall{}, err
	}
	t, err := s.repo.GetTranscript(ctx, c.ID)
	if err != nil {
		return FullCall{}, err
	}
	res, err := s.repo.GetResults(ctx, c.ID)
	if err != nil {
		return FullCall{}, err
	}
	return FullCall{Call: c, Transcript: t, Results: res}, nil
}

// Refresh pulls the call from the platform and reconciles it the same way a
// call_ended webhook would. A call unknown to the platform is returned unchanged.
func (s *Service) Refresh(ctx context.Context, userID, ref string) (Call, error) {
	c, err := s.Get(ctx, userID, ref)
	if err != nil {
		return Call{}, err
	}
	if c.remoteID() == "" {
		return Call{}, ErrNoRemoteCall
	}

	d, err := s.remote.GetCall(ctx, c.remoteID())
	if err != nil {
		return Call{}, err
	}
	if d == nil {
		return c, nil
	}

	status, ok := StatusForRemote(d.Status)
	if !ok {
		status = c.Status
	}
	updated, err := s.ApplyStatus(ctx, c, status, timesFromDetails(d))
	if err != nil {
		return Call{}, err
	}
	s.persistDetails(ctx, updated, d)
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, userID, ref string) error {
	c, err := s.Get(ctx, userID, ref)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, c.ID, userID)
}

// ApplyStatus writes status (and times, when given) to the call and announces
// the change. Publishing never fails the update.
func (s *Service) ApplyStatus(ctx context.Context, c Call, status CallStatus, times *CallTimes) (Call, error) {
	updated, err := s.repo.UpdateStatus(ctx, c.ID, status, times)
	if err != nil {
		return Call{}, fmt.Errorf("update call %s: %w", c.ID, err)
	}
	if updated.Status != c.Status {
		if err := s.events.CallStatusChanged(ctx, updated.ID, updated.remoteID(), updated.UserID, string(updated.Status)); err != nil {
			logger.From(ctx).Warn("call event publish failed", "call_id", updated.ID, "err", err)
		}
	}
	return updated, nil
}

// persistDetails stores the transcript and results carried by d. Each write
// fails independently and only logs.
func (s *Service) persistDetails(ctx context.Context, c Call, d *retell.CallDetails) {
	s.saveTranscript(ctx, c, d)
	if d.HasAnalysis() {
		s.saveResults(ctx, c, d.CallAnalysis)
	}
}

func (s *Service) saveTranscript(ctx context.Context, c Call, d *retell.CallDetails) bool {
	log := logger.From(ctx)
	if d.Transcript == "" {
		log.Warn("no transcript text available", "call_id", c.ID)
		return false
	}
	written, err := s.repo.InsertTranscriptIfAbsent(ctx, Transcript{
		ID:             uuid.NewString(),
		CallID:         c.ID,
		Transcript:     d.Transcript,
		TranscriptJSON: d.TranscriptObject,
		CreatedAt:      s.clock().UTC(),
	})
	if err != nil {
		log.Error("transcript save failed", "call_id", c.ID, "err", err)
		return false
	}
	if !written {
		log.Info("transcript already stored", "call_id", c.ID)
	}
	return written
}

func (s *Service) saveResults(ctx context.Context, c Call, analysis json.RawMessage) bool {
	log := logger.From(ctx)
	res, err := NormalizeAnalysis(c.ID, analysis)
	if err != nil {
		log.Error("call analysis rejected", "call_id", c.ID, "err", err)
		return false
	}
	res.ID = uuid.NewString()
	res.UpdatedAt = s.clock().UTC()
	if _, err := s.repo.UpsertResults(ctx, res); err != nil {
		log.Error("results save failed", "call_id", c.ID, "err", err)
		return false
	}
	return true
}

func timesFromDetails(d *retell.CallDetails) *CallTimes {
	t := &CallTimes{DurationSeconds: d.DurationSeconds}
	if ts, ok := retell.ParseISO(d.StartedAt); ok {
		t.StartedAt = &ts
	}
	if ts, ok := retell.ParseISO(d.EndedAt); ok {
		t.EndedAt = &ts
	}
	return t
}
