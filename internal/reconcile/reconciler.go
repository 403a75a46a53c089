// internal/reconcile/reconciler.go
package reconcile

import (
	"sync"
	"time"

	"github.com/rovshanmuradov/bundler-console/internal/api"
	"go.uber.org/zap"
)

// terminalFailureThreshold is how many consecutive operation-detail
// failures promote the view to its terminal error state.
const terminalFailureThreshold = 3

// Model merges the four independently polled data sources into one view
// model. Each source is reconciled on its own: a failed or stale fetch of
// one group never invalidates the last-known-good value of another.
type Model struct {
	mu     sync.RWMutex
	logger *zap.Logger

	operation   *api.Operation
	operationAt time.Time

	detailFailures int
	detailErr      string
	terminal       bool

	system   *api.SystemStatus
	systemAt time.Time

	balances   map[string]float64
	balancesAt time.Time

	monitoring   *api.MonitoringSnapshot
	monitoringAt time.Time
}

// NewModel creates an empty view model.
func NewModel(logger *zap.Logger) *Model {
	return &Model{
		logger: logger.Named("reconcile"),
	}
}

// ApplyOperation folds in a successful operation-detail fetch. Resets the
// consecutive-failure counter; the terminal latch, once set, stays set.
func (m *Model) ApplyOperation(op *api.Operation) {
	if op == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.operation = cloneOperation(op)
	m.operationAt = time.Now()
	m.detailFailures = 0

	m.logger.Debug("Applied operation detail",
		zap.String("operation", op.ID),
		zap.String("status", string(op.Status)))
}

// ApplyOperationError records a failed operation-detail fetch. Held fields
// are kept as-is; after terminalFailureThreshold consecutive failures the
// terminal error state is latched.
func (m *Model) ApplyOperationError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.detailFailures++
	m.detailErr = err.Error()

	if m.detailFailures >= terminalFailureThreshold && !m.terminal {
		m.terminal = true
		m.logger.Error("❌ Operation detail stream failed repeatedly, view is terminal",
			zap.Int("consecutive_failures", m.detailFailures),
			zap.Error(err))
		return
	}

	m.logger.Warn("Operation detail fetch failed, keeping last good value",
		zap.Int("consecutive_failures", m.detailFailures),
		zap.Error(err))
}

// ApplySystem folds in a system-status fetch.
func (m *Model) ApplySystem(status *api.SystemStatus) {
	if status == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.system = cloneSystem(status)
	m.systemAt = time.Now()
}

// ApplyBalances replaces the wallet balance table wholesale. Partial
// fan-out failures are the poller's concern; by the time a table reaches
// the model it is complete for this cycle.
func (m *Model) ApplyBalances(balances map[string]float64) {
	if balances == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.balances = cloneBalances(balances)
	m.balancesAt = time.Now()
}

// ApplyMonitoring folds in one live telemetry sample.
func (m *Model) ApplyMonitoring(snap *api.MonitoringSnapshot) {
	if snap == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.monitoring = cloneMonitoring(snap)
	m.monitoringAt = time.Now()
}

// Terminal reports whether the view has latched its terminal error state.
func (m *Model) Terminal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.terminal
}

// Snapshot returns a detached copy of the full view model.
func (m *Model) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return Snapshot{
		Operation:    cloneOperation(m.operation),
		OperationAt:  m.operationAt,
		Terminal:     m.terminal,
		DetailErr:    m.detailErr,
		System:       cloneSystem(m.system),
		SystemAt:     m.systemAt,
		Balances:     cloneBalances(m.balances),
		BalancesAt:   m.balancesAt,
		Monitoring:   cloneMonitoring(m.monitoring),
		MonitoringAt: m.monitoringAt,
	}
}
