// Package tracker polls execution status and turns the noisy feed into
// clean one-shot milestone events and playback requests.
package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/agentforge/agentforge/pkg/backend"
	"github.com/agentforge/agentforge/pkg/eventbus"
	"github.com/agentforge/agentforge/pkg/events"
	"github.com/agentforge/agentforge/pkg/models"
)

// DefaultPollInterval is the gap between status polls.
const DefaultPollInterval = 2 * time.Second

// StatusPoller is the slice of the backend the tracker needs.
type StatusPoller interface {
	ExecutionStatus(ctx context.Context, executionID string) (*models.Execution, error)
}

// Player receives playback requests when an execution reaches a terminal
// milestone with a trace attached.
type Player interface {
	RequestPlay(agentID string, trace json.RawMessage, subtitle string, after func())
}

// Tracker owns the polling loops for live executions. Trackers for
// different execution IDs are independent; the only shared state is the
// append-only milestone set, keyed per ID. An authorization failure flips a
// permanent stop for the whole session so an unauthorized backend is never
// hammered again.
type Tracker struct {
	poller     StatusPoller
	bus        eventbus.EventPublisher
	player     Player
	milestones *MilestoneSet
	logger     *slog.Logger
	interval   time.Duration

	mu          sync.Mutex
	sessionDead bool
}

// NewTracker builds a tracker. player may be nil when no playback surface
// is attached.
func NewTracker(poller StatusPoller, bus eventbus.EventPublisher, player Player, logger *slog.Logger) *Tracker {
	return &Tracker{
		poller:     poller,
		bus:        bus,
		player:     player,
		milestones: NewMilestoneSet(),
		logger:     logger.With("module", "tracker"),
		interval:   DefaultPollInterval,
	}
}

// SetInterval overrides the poll interval. Intended for tests and local
// development.
func (t *Tracker) SetInterval(interval time.Duration) {
	t.interval = interval
}

// Milestones exposes the shared milestone set.
func (t *Tracker) Milestones() *MilestoneSet {
	return t.milestones
}

// Subscription is one live polling loop. Stop is idempotent.
type Subscription struct {
	executionID string
	done        chan struct{}
	stopOnce    sync.Once
}

// Stop halts polling for this execution.
func (s *Subscription) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
}

// Done exposes the subscription's termination channel.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Track starts polling one execution. The loop terminates on its own when a
// terminal status is observed, when the context is cancelled, or when an
// authorization failure kills the session.
func (t *Tracker) Track(ctx context.Context, executionID string) *Subscription {
	sub := &Subscription{
		executionID: executionID,
		done:        make(chan struct{}),
	}

	if t.dead() {
		// The session already lost authorization; never start polling again.
		sub.Stop()

		return sub
	}

	go t.poll(ctx, sub)

	return sub
}

func (t *Tracker) poll(ctx context.Context, sub *Subscription) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sub.done:
			return
		case <-ctx.Done():
			sub.Stop()

			return
		case <-ticker.C:
			if t.dead() {
				sub.Stop()

				return
			}

			if terminal := t.observe(ctx, sub.executionID); terminal {
				sub.Stop()

				return
			}
		}
	}
}

// observe performs one poll and fires any newly reached milestones. It
// returns true when polling should stop.
func (t *Tracker) observe(ctx context.Context, executionID string) bool {
	execution, err := t.poller.ExecutionStatus(ctx, executionID)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			t.logger.Warn("Execution poll unauthorized, stopping for session",
				"execution_id", executionID)
			t.kill()

			return true
		}

		// Transient failures are logged and the next tick retries.
		t.logger.Warn("Execution poll failed", "execution_id", executionID, "error", err)

		return false
	}

	switch execution.Status {
	case models.ExecutionStatusWaitingApproval:
		if t.milestones.Mark(executionID, MilestoneWaiting) {
			t.publish(ctx, events.ExecutionWaiting{
				BaseEvent:   events.NewBaseEvent(events.ExecutionWaitingEvent, execution.AgentID),
				ExecutionID: executionID,
				ApprovalID:  execution.ApprovalID,
			})
		}

		return false
	case models.ExecutionStatusCompleted:
		if t.milestones.Mark(executionID, MilestoneCompleted) {
			t.publish(ctx, events.ExecutionCompleted{
				BaseEvent:   events.NewBaseEvent(events.ExecutionCompletedEvent, execution.AgentID),
				ExecutionID: executionID,
			})
			t.play(execution)
		}

		return true
	case models.ExecutionStatusFailed:
		if t.milestones.Mark(executionID, MilestoneFailed) {
			t.publish(ctx, events.ExecutionFailed{
				BaseEvent:   events.NewBaseEvent(events.ExecutionFailedEvent, execution.AgentID),
				ExecutionID: executionID,
				Error:       execution.Error,
			})
			t.play(execution)
		}

		return true
	default:
		return false
	}
}

func (t *Tracker) publish(ctx context.Context, event eventbus.Event) {
	if t.bus == nil {
		return
	}

	if err := t.bus.Publish(ctx, "execution", event); err != nil {
		t.logger.Warn("Failed to publish milestone event",
			"event_type", event.GetType(), "error", err)
	}
}

func (t *Tracker) play(execution *models.Execution) {
	if t.player == nil || len(execution.Trace) == 0 {
		return
	}

	t.player.RequestPlay(execution.AgentID, execution.Trace, execution.Subtitle, nil)
}

func (t *Tracker) dead() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.sessionDead
}

func (t *Tracker) kill() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sessionDead = true
}
