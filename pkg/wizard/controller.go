// Package wizard drives the multi-step agent configuration flow: collecting
// step input into the draft, validating, persisting incrementally, and
// re-asserting permission gates every time step content is rebuilt.
package wizard

import (
	"context"
	"log/slog"

	"github.com/agentforge/agentforge/pkg/draft"
	"github.com/agentforge/agentforge/pkg/models"
	"github.com/agentforge/agentforge/pkg/permissions"
)

// Session is the slice of the backend the controller needs beyond what the
// draft store already talks to.
type Session interface {
	PermissionSnapshot(ctx context.Context, agentID string) (models.PermissionSnapshot, error)
	RestoreStatus(ctx context.Context, agentID string, status models.AgentStatus) error
}

// Collector copies step-local UI input into the draft. Registered by the
// rendering layer per step.
type Collector func(agent *models.Agent) error

// LoadAction initializes step-specific data when a step is entered.
type LoadAction func(ctx context.Context, agent *models.Agent) error

// stepSections maps each step to the section whose mutability governs
// whether the step's collector may run at all.
var stepSections = map[Step]permissions.Section{
	StepBasicInfo:  permissions.SectionBasicInfo,
	StepTasks:      permissions.SectionTasks,
	StepTools:      permissions.SectionTools,
	StepKnowledge:  permissions.SectionKnowledge,
	StepAccess:     permissions.SectionAccessControl,
	StepModel:      permissions.SectionModel,
	StepTestDeploy: permissions.SectionTestStep,
}

// Controller is the wizard state machine. All session state lives here, not
// in package globals: one controller, one draft, one permission snapshot.
// Calls must be sequential; a transition issued while another is in flight
// is rejected rather than interleaved.
type Controller struct {
	store   *draft.Store
	session Session
	logger  *slog.Logger

	current    Step
	snapshot   models.PermissionSnapshot
	mutability map[permissions.Section]permissions.Mutability
	inFlight   bool

	collectors  map[Step]Collector
	loadActions map[Step][]LoadAction
}

// NewController wires a controller around a draft store and backend session.
func NewController(store *draft.Store, session Session, logger *slog.Logger) *Controller {
	return &Controller{
		store:       store,
		session:     session,
		logger:      logger.With("module", "wizard"),
		collectors:  make(map[Step]Collector),
		loadActions: make(map[Step][]LoadAction),
	}
}

// SetCollector registers the input collector for a step.
func (c *Controller) SetCollector(step Step, collector Collector) {
	c.collectors[step] = collector
}

// AddLoadAction appends a load action executed on entry to a step.
func (c *Controller) AddLoadAction(step Step, action LoadAction) {
	c.loadActions[step] = append(c.loadActions[step], action)
}

// Current returns the wizard position.
func (c *Controller) Current() Step {
	return c.current
}

// Snapshot returns the permission snapshot for this edit session.
func (c *Controller) Snapshot() models.PermissionSnapshot {
	return c.snapshot
}

// Mutability returns the current declarative mutability map. Renderers apply
// it after every rebuild; recomputation is idempotent.
func (c *Controller) Mutability() map[permissions.Section]permissions.Mutability {
	return c.mutability
}

// Start begins a new configuration of the given kind and enters step 1.
// The creator of a fresh draft is its owner.
func (c *Controller) Start(ctx context.Context, kind models.AgentKind) error {
	c.store.Begin(kind)
	c.snapshot = models.PermissionSnapshot{IsOwner: true}
	c.mutability = permissions.MutabilityMap(c.snapshot)
	c.current = FirstStep

	return c.enterStep(ctx)
}

// StartEdit begins an edit session on an existing agent and enters step 1.
// The permission snapshot is fetched once here; if it cannot be obtained the
// session degrades to read-only rather than assuming access.
func (c *Controller) StartEdit(ctx context.Context, agent *models.Agent) error {
	c.store.BeginEdit(agent)
	c.refreshSnapshot(ctx, agent.ID)
	c.current = FirstStep

	return c.enterStep(ctx)
}

// Advance collects and validates the current step, persists the draft, and
// moves one step forward (clamped at the terminal step). Persistence
// failures are logged and do not block the transition; validation failures
// do.
func (c *Controller) Advance(ctx context.Context) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := c.collect(); err != nil {
		return err
	}

	if err := c.validate(c.current); err != nil {
		return err
	}

	c.persist(ctx)

	if c.current < LastStep {
		c.current++
	}

	return c.enterStep(ctx)
}

// Retreat moves one step back, floored at step 1. Nothing is validated or
// persisted: data collected on the way forward is retained as-is.
func (c *Controller) Retreat(ctx context.Context) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	if c.current > FirstStep {
		c.current--
	}

	return c.enterStep(ctx)
}

// JumpTo moves directly to a step. In the create regime only steps already
// visited are reachable; once the draft is persisted (edit regime) any step
// is. Current-step input is collected before the move but not validated, so
// a half-filled step never traps the user.
func (c *Controller) JumpTo(ctx context.Context, target Step) error {
	release, err := c.acquire()
	if err != nil {
		return err
	}
	defer release()

	if !target.Valid() {
		return ErrInvalidStep
	}

	if _, persisted := c.store.PersistedID(); !persisted && target > c.current {
		return ErrStepLocked
	}

	if err := c.collect(); err != nil {
		return err
	}

	c.persist(ctx)
	c.current = target

	return c.enterStep(ctx)
}

// CancelEdit abandons the session. When the edited agent was published, its
// status is restored first; a failed restore is reported but never blocks
// the local teardown.
func (c *Controller) CancelEdit(ctx context.Context) {
	if c.store.EditingPublished() {
		if id, ok := c.store.PersistedID(); ok {
			err := c.session.RestoreStatus(ctx, id, models.AgentStatusPublished)
			if err != nil {
				c.logger.Warn("Failed to restore published status on cancel",
					"agent_id", id, "error", err)
			}
		}
	}

	c.store.Discard()
	c.current = StepNone
	c.snapshot = models.RestrictedSnapshot()
	c.mutability = nil
}

func (c *Controller) acquire() (func(), error) {
	if c.store.Draft() == nil {
		return nil, ErrNoDraft
	}

	if c.inFlight {
		return nil, ErrTransitionInFlight
	}

	c.inFlight = true

	return func() { c.inFlight = false }, nil
}

// collect runs the current step's collector, unless the permission gate has
// the step's section read-only: a viewer's step must never mutate the draft.
func (c *Controller) collect() error {
	collector, ok := c.collectors[c.current]
	if !ok {
		return nil
	}

	if section, gated := stepSections[c.current]; gated {
		if c.mutability[section] != permissions.Mutable {
			return nil
		}
	}

	return collector(c.store.Draft())
}

func (c *Controller) validate(step Step) error {
	agent := c.store.Draft()

	switch step {
	case StepBasicInfo:
		if agent.Name == "" {
			return &ValidationError{Step: step, Err: ErrNameRequired}
		}

		if agent.Goal == "" {
			return &ValidationError{Step: step, Err: ErrGoalRequired}
		}

		// All six traits or nothing leaves this step. Partial trait sets
		// mean a half-configured agent and are rejected outright.
		if !agent.Personality.Complete() {
			return &ValidationError{Step: step, Err: ErrIncompletePersonality}
		}
	case StepTasks:
		for _, task := range agent.Tasks {
			if task.Name == "" {
				return &ValidationError{Step: step, Err: ErrTaskNameRequired}
			}
		}
	case StepModel:
		if err := agent.Guardrails.Validate(); err != nil {
			return &ValidationError{Step: step, Err: err}
		}
	}

	return nil
}

// persist autosaves the draft. Failures are surfaced in the log only: the
// wizard stays usable and the last successful save remains the durability
// guarantee.
func (c *Controller) persist(ctx context.Context) {
	if err := c.store.Persist(ctx); err != nil {
		c.logger.Warn("Autosave failed, continuing", "step", c.current, "error", err)
	}
}

// enterStep runs the new step's load actions and re-applies the permission
// gate. The gate is reasserted on every entry because step content is
// rebuilt from scratch each time.
func (c *Controller) enterStep(ctx context.Context) error {
	agent := c.store.Draft()

	for _, action := range c.loadActions[c.current] {
		if err := action(ctx, agent); err != nil {
			c.logger.Warn("Step load action failed",
				"step", c.current, "error", err)
		}
	}

	c.mutability = permissions.MutabilityMap(c.snapshot)

	return nil
}

// refreshSnapshot fetches the permission snapshot for an agent, degrading
// to the restricted snapshot on any failure. Silent full access is never an
// acceptable fallback.
func (c *Controller) refreshSnapshot(ctx context.Context, agentID string) {
	snapshot, err := c.session.PermissionSnapshot(ctx, agentID)
	if err != nil {
		c.logger.Warn("Permission snapshot unavailable, degrading to read-only",
			"agent_id", agentID, "error", err)

		c.snapshot = models.RestrictedSnapshot()
		c.mutability = permissions.MutabilityMap(c.snapshot)

		return
	}

	c.snapshot = snapshot
	c.mutability = permissions.MutabilityMap(c.snapshot)
}
