// internal/arbiter/outcome.go
package arbiter

import "github.com/rovshanmuradov/bundler-console/internal/api"

// Action identifies one destructive control operation.
type Action string

const (
	ActionFastSell    Action = "fast_sell_all"
	ActionSlowSell    Action = "slow_sell_all"
	ActionEmergency   Action = "emergency_stop"
	ActionSellTracked Action = "sell_all_tracked"

	// actionNone means the arbiter is idle.
	actionNone Action = ""
)

// OutcomeKind is the terminal state of one action attempt. Every kind
// returns the button to idle after the operator acknowledges it; none is
// auto-retried.
type OutcomeKind string

const (
	// OutcomeSuccess: the backend accepted and confirmed the action.
	OutcomeSuccess OutcomeKind = "settled_success"

	// OutcomeFailure: the backend answered with a failure envelope.
	OutcomeFailure OutcomeKind = "settled_failure"

	// OutcomeTimedOut: the local observation window expired. The backend
	// may still be processing; this is an unknown result, not a failure.
	OutcomeTimedOut OutcomeKind = "timed_out"

	// OutcomeRejectedLocal: another exclusive action was in flight; no
	// request left the console.
	OutcomeRejectedLocal OutcomeKind = "rejected_local"

	// OutcomeRateLimited: the backend's rate limiter refused the request.
	// Manual retry only; the operator is steered to the slower path.
	OutcomeRateLimited OutcomeKind = "rate_limited"
)

// Outcome is the result of one control action attempt.
type Outcome struct {
	Action  Action
	Kind    OutcomeKind
	Message string

	// Tracked is set on a successful sell-all-tracked call.
	Tracked *api.SellTrackedResult
}

// OK reports whether the backend confirmed the action.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
