// internal/arbiter/arbiter.go
package arbiter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rovshanmuradov/bundler-console/internal/api"
	"github.com/rovshanmuradov/bundler-console/internal/events"
	"go.uber.org/zap"
)

// Backend is the write side of the bundler API: the four control actions.
type Backend interface {
	FastSellAll(ctx context.Context, operationID string) error
	SlowSellAll(ctx context.Context, operationID string) error
	EmergencyStop(ctx context.Context) error
	SellAllTracked(ctx context.Context) (*api.SellTrackedResult, error)
}

// Refresher schedules delayed re-reads of operation detail so the view
// catches up once the backend's eventual-consistency window settles.
type Refresher interface {
	RefreshDetail(after time.Duration)
}

// Config configures the action arbiter.
type Config struct {
	OperationID string
	Backend     Backend
	Refresher   Refresher
	Bus         *events.Bus
	Logger      *zap.Logger

	// Local observation budgets, independent of and shorter than any
	// server-side timeout.
	FastSellBudget time.Duration
	SlowSellBudget time.Duration
}

// Arbiter serializes the destructive control actions. The exclusive
// actions (fast sell, slow sell, sell-tracked) contend for a single
// in-flight slot and are rejected locally, without a network call, while
// the slot is held. Emergency stop bypasses the slot entirely: it is the
// override escape hatch and always goes out.
type Arbiter struct {
	config *Config
	logger *zap.Logger

	mu       sync.Mutex
	inFlight Action
}

// New creates an action arbiter.
func New(config *Config) (*Arbiter, error) {
	if config.Backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if config.OperationID == "" {
		return nil, fmt.Errorf("operation id cannot be empty")
	}
	if config.FastSellBudget <= 0 {
		config.FastSellBudget = 15 * time.Second
	}
	if config.SlowSellBudget <= 0 {
		config.SlowSellBudget = 120 * time.Second
	}
	return &Arbiter{
		config: config,
		logger: config.Logger.Named("arbiter"),
	}, nil
}

// InFlight returns the action currently holding the exclusive slot, or ""
// when idle. The console reads this to disable conflicting buttons.
func (a *Arbiter) InFlight() Action {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

// FastSellAll liquidates every bundle wallet at once. Aggressive; may trip
// the backend's rate limiter, in which case the operator is pointed at the
// slower proven path instead of retrying.
func (a *Arbiter) FastSellAll(ctx context.Context) Outcome {
	return a.run(ctx, ActionFastSell, a.config.FastSellBudget,
		func(ctx context.Context) error {
			return a.config.Backend.FastSellAll(ctx, a.config.OperationID)
		},
		[]time.Duration{2 * time.Second})
}

// SlowSellAll liquidates wallets sequentially. Settlement is slow, so
// several staggered re-fetches cover the consolidation window.
func (a *Arbiter) SlowSellAll(ctx context.Context) Outcome {
	return a.run(ctx, ActionSlowSell, a.config.SlowSellBudget,
		func(ctx context.Context) error {
			return a.config.Backend.SlowSellAll(ctx, a.config.OperationID)
		},
		[]time.Duration{3 * time.Second, 8 * time.Second, 15 * time.Second})
}

// SellAllTracked sells every token the backend still tracks.
func (a *Arbiter) SellAllTracked(ctx context.Context) Outcome {
	var tracked *api.SellTrackedResult
	outcome := a.run(ctx, ActionSellTracked, a.config.SlowSellBudget,
		func(ctx context.Context) error {
			result, err := a.config.Backend.SellAllTracked(ctx)
			tracked = result
			return err
		},
		[]time.Duration{3 * time.Second})
	if outcome.OK() && tracked != nil {
		outcome.Tracked = tracked
		outcome.Message = fmt.Sprintf("Sold %d/%d tracked tokens", tracked.TokensSold, tracked.TotalTokens)
	}
	return outcome
}

// EmergencyStop halts the whole automation engine. Never rejected locally,
// whatever else is in flight; on success the console drops back to the
// idle screen.
func (a *Arbiter) EmergencyStop(ctx context.Context) Outcome {
	a.logger.Warn("🚨 Emergency stop requested")
	a.publishStarted(ActionEmergency)

	err := a.config.Backend.EmergencyStop(ctx)
	outcome := a.settle(ActionEmergency, err)

	if outcome.OK() {
		a.scheduleRefetches([]time.Duration{2 * time.Second})
		if a.config.Bus != nil {
			_ = a.config.Bus.Publish(events.EmergencyStoppedEvent{
				BaseEvent: events.BaseEvent{EventType: events.EmergencyStopped, EventTime: time.Now()},
			})
		}
	}
	a.publishSettled(outcome)
	return outcome
}

// run executes one exclusive action under the in-flight slot and its local
// time budget. The slot is released on every path, so a crashed or
// cancelled request can never wedge the arbiter.
func (a *Arbiter) run(ctx context.Context, action Action, budget time.Duration, call func(context.Context) error, refetchOffsets []time.Duration) Outcome {
	held, ok := a.acquire(action)
	if !ok {
		a.logger.Warn("Rejected action locally, another action is in flight",
			zap.String("requested", string(action)),
			zap.String("in_flight", string(held)))
		outcome := Outcome{
			Action:  action,
			Kind:    OutcomeRejectedLocal,
			Message: fmt.Sprintf("%s already in flight", held),
		}
		a.publishSettled(outcome)
		return outcome
	}
	defer a.release()

	a.logger.Info("Dispatching control action",
		zap.String("action", string(action)),
		zap.Duration("budget", budget))
	a.publishStarted(action)

	actionCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	err := call(actionCtx)
	outcome := a.settle(action, err)

	if outcome.OK() {
		a.scheduleRefetches(refetchOffsets)
	}
	a.publishSettled(outcome)
	return outcome
}

// settle maps a call result onto the outcome taxonomy. A local abort is
// reported as an unknown result, never conflated with a backend failure.
func (a *Arbiter) settle(action Action, err error) Outcome {
	switch {
	case err == nil:
		a.logger.Info("✅ Control action confirmed", zap.String("action", string(action)))
		return Outcome{
			Action:  action,
			Kind:    OutcomeSuccess,
			Message: "confirmed by backend",
		}

	case api.IsRateLimited(err):
		a.logger.Warn("⚠️  Control action rate limited", zap.String("action", string(action)))
		return Outcome{
			Action:  action,
			Kind:    OutcomeRateLimited,
			Message: "rate limited by backend; use the slower sell-all instead, not retrying automatically",
		}

	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		a.logger.Warn("Control action observation window expired",
			zap.String("action", string(action)),
			zap.Error(err))
		return Outcome{
			Action:  action,
			Kind:    OutcomeTimedOut,
			Message: "no response within the local budget; the backend may still be processing, check remote state",
		}

	default:
		a.logger.Error("Control action failed",
			zap.String("action", string(action)),
			zap.Error(err))
		return Outcome{
			Action:  action,
			Kind:    OutcomeFailure,
			Message: err.Error(),
		}
	}
}

// acquire takes the exclusive in-flight slot. The read-then-set is atomic
// under the mutex, which is the whole mutual-exclusion contract: callers
// refused here never reach the network. On refusal it reports which action
// holds the slot.
func (a *Arbiter) acquire(action Action) (Action, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight != actionNone {
		return a.inFlight, false
	}
	a.inFlight = action
	return action, true
}

func (a *Arbiter) release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inFlight = actionNone
}

// scheduleRefetches asks the poller for staggered delayed re-reads rather
// than a single immediate one, to tolerate variable settlement latency.
func (a *Arbiter) scheduleRefetches(offsets []time.Duration) {
	if a.config.Refresher == nil {
		return
	}
	for _, offset := range offsets {
		a.config.Refresher.RefreshDetail(offset)
	}
}

func (a *Arbiter) publishStarted(action Action) {
	if a.config.Bus == nil {
		return
	}
	_ = a.config.Bus.Publish(events.ActionStartedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.ActionStarted, EventTime: time.Now()},
		Action:      string(action),
		OperationID: a.config.OperationID,
	})
}

func (a *Arbiter) publishSettled(outcome Outcome) {
	if a.config.Bus == nil {
		return
	}
	_ = a.config.Bus.Publish(events.ActionSettledEvent{
		BaseEvent:   events.BaseEvent{EventType: events.ActionSettled, EventTime: time.Now()},
		Action:      string(outcome.Action),
		OperationID: a.config.OperationID,
		Outcome:     string(outcome.Kind),
		Message:     outcome.Message,
	})
}
