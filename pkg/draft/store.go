// Package draft owns the single in-progress agent configuration and its
// identity lifecycle: local-only until the first successful create, then
// permanently bound to the backend-assigned ID.
package draft

import (
	"context"
	"log/slog"

	"github.com/agentforge/agentforge/pkg/models"
)

// API is the slice of the backend the store needs.
type API interface {
	CreateAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error)
	UpdateAgent(ctx context.Context, id string, agent *models.Agent) (*models.Agent, error)
}

// Store holds one draft at a time. It is written to only by the wizard, on a
// single goroutine; no internal locking is needed.
type Store struct {
	api     API
	logger  *slog.Logger
	actorID string

	agent          *models.Agent
	persistedID    string
	originalStatus models.AgentStatus
	ownerCaptured  bool
}

// NewStore creates a draft store for the given actor.
func NewStore(api API, actorID string, logger *slog.Logger) *Store {
	return &Store{
		api:     api,
		actorID: actorID,
		logger:  logger.With("module", "draft"),
	}
}

// Begin starts a fresh local-only draft of the given kind. Any previous
// draft, including its persisted identity, is dropped: choosing a kind is
// the start of a new configuration, never a mutation of an old one.
func (s *Store) Begin(kind models.AgentKind) *models.Agent {
	s.agent = &models.Agent{
		Kind:   kind,
		Status: models.AgentStatusDraft,
	}
	s.persistedID = ""
	s.originalStatus = ""
	s.ownerCaptured = false

	return s.agent
}

// BeginEdit loads an existing persisted agent for editing. If the agent was
// published its original status is retained so a cancelled edit can restore
// it; the working copy is demoted to draft for the duration of the session.
func (s *Store) BeginEdit(agent *models.Agent) *models.Agent {
	s.agent = agent
	s.persistedID = agent.ID
	s.ownerCaptured = agent.OwnerID != ""
	s.originalStatus = ""

	if agent.Status == models.AgentStatusPublished {
		s.originalStatus = models.AgentStatusPublished
		agent.Status = models.AgentStatusDraft
	}

	return s.agent
}

// Draft returns the working configuration, or nil when no draft is active.
func (s *Store) Draft() *models.Agent {
	return s.agent
}

// PersistedID returns the backend identity, if the draft has one.
func (s *Store) PersistedID() (string, bool) {
	return s.persistedID, s.persistedID != ""
}

// EditingPublished reports whether this session is editing an agent that was
// published before the edit began.
func (s *Store) EditingPublished() bool {
	return s.originalStatus == models.AgentStatusPublished
}

// Persist writes the draft to the backend. Without a persisted ID it issues
// a create and captures the returned identity and ownership; with one it
// issues an update scoped to that ID, so repeated calls can never produce a
// second entity. A draft whose goal is still empty is skipped outright: the
// backend is never asked to store an empty shell.
func (s *Store) Persist(ctx context.Context) error {
	if s.agent == nil || s.agent.Goal == "" {
		return nil
	}

	if s.persistedID == "" {
		created, err := s.api.CreateAgent(ctx, s.agent)
		if err != nil {
			return err
		}

		s.persistedID = created.ID
		s.agent.ID = created.ID
		s.captureOwnership(created)

		s.logger.Info("Draft persisted", "agent_id", s.persistedID)

		return nil
	}

	updated, err := s.api.UpdateAgent(ctx, s.persistedID, s.agent)
	if err != nil {
		return err
	}

	// Ownership established from the client-side fallback is provisional;
	// a backend response that carries the authoritative owner repairs it.
	if s.agent.OwnerAssumed && updated != nil && updated.OwnerID != "" {
		s.agent.OwnerID = updated.OwnerID
		s.agent.CreatedBy = updated.CreatedBy
		s.agent.OwnerAssumed = false
	}

	return nil
}

// captureOwnership records ownership exactly once, from the first create
// response. When the backend response lacks an owner the current actor is
// assumed, flagged as provisional.
func (s *Store) captureOwnership(created *models.Agent) {
	if s.ownerCaptured {
		return
	}

	s.ownerCaptured = true

	if created.OwnerID != "" {
		s.agent.OwnerID = created.OwnerID
		s.agent.CreatedBy = created.CreatedBy

		return
	}

	s.agent.OwnerID = s.actorID
	s.agent.CreatedBy = s.actorID
	s.agent.OwnerAssumed = true
}

// OriginalStatus returns the status the agent held before this edit session.
func (s *Store) OriginalStatus() models.AgentStatus {
	return s.originalStatus
}

// Discard drops the draft and its session identity. This is the only path
// that clears a persisted ID.
func (s *Store) Discard() {
	s.agent = nil
	s.persistedID = ""
	s.originalStatus = ""
	s.ownerCaptured = false
}
