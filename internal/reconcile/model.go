// internal/reconcile/model.go
package reconcile

import (
	"time"

	"github.com/rovshanmuradov/bundler-console/internal/api"
)

// Snapshot is a consistent copy of the reconciled view model. Every field
// group carries its own freshness timestamp; a zero timestamp means the
// source has not delivered yet.
type Snapshot struct {
	Operation   *api.Operation
	OperationAt time.Time

	// Terminal is latched after the operation-detail stream, the
	// identity-defining resource, fails repeatedly.
	Terminal  bool
	DetailErr string

	System   *api.SystemStatus
	SystemAt time.Time

	Balances   map[string]float64
	BalancesAt time.Time

	Monitoring   *api.MonitoringSnapshot
	MonitoringAt time.Time
}

// WaitingForBundle reports whether bundle-dependent views should show the
// waiting state instead of wallet data.
func (s Snapshot) WaitingForBundle() bool {
	return s.Operation == nil || s.Operation.BuyBundle == nil
}

// WalletIDs lists the wallets participating in the buy bundle, in
// transaction order. Empty while the bundle has not been observed.
func (s Snapshot) WalletIDs() []string {
	if s.WaitingForBundle() {
		return nil
	}
	ids := make([]string, 0, len(s.Operation.BuyBundle.Transactions))
	for _, tx := range s.Operation.BuyBundle.Transactions {
		ids = append(ids, tx.WalletID)
	}
	return ids
}

// cloneOperation returns a detached copy so snapshot holders never alias
// the model's internal state.
func cloneOperation(op *api.Operation) *api.Operation {
	if op == nil {
		return nil
	}
	clone := *op
	if op.BuyBundle != nil {
		bundle := *op.BuyBundle
		bundle.Transactions = make([]api.Transaction, len(op.BuyBundle.Transactions))
		copy(bundle.Transactions, op.BuyBundle.Transactions)
		clone.BuyBundle = &bundle
	}
	return &clone
}

func cloneSystem(st *api.SystemStatus) *api.SystemStatus {
	if st == nil {
		return nil
	}
	clone := *st
	return &clone
}

func cloneMonitoring(m *api.MonitoringSnapshot) *api.MonitoringSnapshot {
	if m == nil {
		return nil
	}
	clone := *m
	clone.ProfitTargets = make([]api.ProfitTarget, len(m.ProfitTargets))
	copy(clone.ProfitTargets, m.ProfitTargets)
	return &clone
}

func cloneBalances(balances map[string]float64) map[string]float64 {
	if balances == nil {
		return nil
	}
	clone := make(map[string]float64, len(balances))
	for walletID, balance := range balances {
		clone[walletID] = balance
	}
	return clone
}
