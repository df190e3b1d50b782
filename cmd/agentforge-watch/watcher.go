// Package main provides a small CLI that tails one execution: it polls the
// API through the tracker and prints each milestone exactly once.
package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/agentforge/agentforge/pkg/backend"
	"github.com/agentforge/agentforge/pkg/eventbus"
	"github.com/agentforge/agentforge/pkg/events"
	"github.com/agentforge/agentforge/pkg/tracker"
)

type Watcher struct {
	logger   *slog.Logger
	client   *backend.Client
	eventBus eventbus.EventBus
	interval time.Duration
}

func NewWatcher(logger *slog.Logger, client *backend.Client, eventBus eventbus.EventBus, interval time.Duration) *Watcher {
	return &Watcher{
		logger:   logger,
		client:   client,
		eventBus: eventBus,
		interval: interval,
	}
}

// Watch polls the execution until it reaches a terminal status, printing
// each milestone as it is first observed. It returns once the tracker stops,
// whether through terminal status, lost authorization or context
// cancellation.
func (w *Watcher) Watch(ctx context.Context, executionID string) error {
	if err := w.registerHandlers(); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		return err
	}

	execTracker := tracker.NewTracker(w.client, w.eventBus, nil, w.logger)
	execTracker.SetInterval(w.interval)

	w.logger.InfoContext(ctx, "Watching execution", "execution_id", executionID)

	sub := execTracker.Track(ctx, executionID)

	select {
	case <-sub.Done():
	case <-ctx.Done():
		sub.Stop()
	}

	// Give in-flight milestone events a moment to drain before the bus
	// closes.
	time.Sleep(100 * time.Millisecond)

	return nil
}

func (w *Watcher) registerHandlers() error {
	if err := w.eventBus.Handle(events.ExecutionWaitingEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.ExecutionWaiting); ok {
			w.logger.InfoContext(ctx, "Execution is waiting for approval",
				"execution_id", e.ExecutionID, "approval_id", e.ApprovalID)
		}

		return nil
	}); err != nil {
		return err
	}

	if err := w.eventBus.Handle(events.ExecutionCompletedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.ExecutionCompleted); ok {
			w.logger.InfoContext(ctx, "Execution completed", "execution_id", e.ExecutionID)
		}

		return nil
	}); err != nil {
		return err
	}

	return w.eventBus.Handle(events.ExecutionFailedEvent, func(ctx context.Context, event any) error {
		if e, ok := event.(*events.ExecutionFailed); ok {
			w.logger.InfoContext(ctx, "Execution failed",
				"execution_id", e.ExecutionID, "error", e.Error)
		}

		return nil
	})
}
