// internal/reconcile/reconciler_test.go
package reconcile

import (
	"errors"
	"testing"

	"github.com/rovshanmuradov/bundler-console/internal/api"
	"go.uber.org/zap/zaptest"
)

func testOperation() *api.Operation {
	return &api.Operation{
		ID:           "op-1",
		TokenAddress: "TokenMint1111",
		Status:       api.OperationMonitoring,
		TotalBudget:  5,
		WalletCount:  3,
		BuyBundle: &api.BuyBundle{
			ID:          "b-1",
			Status:      "completed",
			TotalAmount: 4.2,
			Transactions: []api.Transaction{
				{ID: "tx-1", WalletID: "w-1", Status: api.TxConfirmed, Amount: 1.4, Signature: "sig1"},
				{ID: "tx-2", WalletID: "w-2", Status: api.TxConfirmed, Amount: 1.4, Signature: "sig2"},
				{ID: "tx-3", WalletID: "w-3", Status: api.TxPending, Amount: 1.4},
			},
		},
	}
}

func TestFailedFetchKeepsLastGoodValue(t *testing.T) {
	model := NewModel(zaptest.NewLogger(t))

	model.ApplyOperation(testOperation())
	appliedAt := model.Snapshot().OperationAt

	model.ApplyOperationError(errors.New("connection refused"))

	snap := model.Snapshot()
	if snap.Operation == nil {
		t.Fatal("failed fetch wiped the held operation")
	}
	if snap.Operation.ID != "op-1" {
		t.Errorf("operation ID = %q, want op-1", snap.Operation.ID)
	}
	if !snap.OperationAt.Equal(appliedAt) {
		t.Error("failed fetch moved the freshness timestamp")
	}
	if snap.Terminal {
		t.Error("terminal latched after a single failure")
	}
	if snap.DetailErr != "connection refused" {
		t.Errorf("DetailErr = %q", snap.DetailErr)
	}
}

func TestTerminalLatchesAfterThreeConsecutiveFailures(t *testing.T) {
	model := NewModel(zaptest.NewLogger(t))
	model.ApplyOperation(testOperation())

	fetchErr := errors.New("backend down")
	model.ApplyOperationError(fetchErr)
	model.ApplyOperationError(fetchErr)
	if model.Terminal() {
		t.Fatal("terminal latched after two failures")
	}

	model.ApplyOperationError(fetchErr)
	if !model.Terminal() {
		t.Fatal("terminal did not latch after three consecutive failures")
	}

	// Data kept arriving, but the latch is one-way.
	model.ApplyOperation(testOperation())
	if !model.Terminal() {
		t.Error("a later success cleared the terminal latch")
	}
}

func TestInterleavedSuccessResetsFailureCount(t *testing.T) {
	model := NewModel(zaptest.NewLogger(t))
	fetchErr := errors.New("timeout")

	model.ApplyOperationError(fetchErr)
	model.ApplyOperationError(fetchErr)
	model.ApplyOperation(testOperation())
	model.ApplyOperationError(fetchErr)
	model.ApplyOperationError(fetchErr)

	if model.Terminal() {
		t.Error("failure count survived an interleaved success")
	}
}

func TestSourcesReconcileIndependently(t *testing.T) {
	model := NewModel(zaptest.NewLogger(t))

	model.ApplyBalances(map[string]float64{"w-1": 1.2})
	model.ApplyOperationError(errors.New("detail fetch failed"))
	model.ApplyMonitoring(&api.MonitoringSnapshot{CurrentPrice: 0.00001})

	snap := model.Snapshot()
	if snap.Balances["w-1"] != 1.2 {
		t.Error("detail failure disturbed the balance table")
	}
	if snap.Monitoring == nil || snap.Monitoring.CurrentPrice != 0.00001 {
		t.Error("detail failure disturbed monitoring data")
	}
	if snap.Operation != nil {
		t.Error("operation appeared without a successful fetch")
	}
}

func TestBalancesReplaceWholesale(t *testing.T) {
	model := NewModel(zaptest.NewLogger(t))

	model.ApplyBalances(map[string]float64{"w-1": 1.2, "w-2": 0.9})
	model.ApplyBalances(map[string]float64{"w-1": 1.1, "w-3": 0.5})

	snap := model.Snapshot()
	if len(snap.Balances) != 2 {
		t.Fatalf("balance table has %d entries, want 2", len(snap.Balances))
	}
	if _, held := snap.Balances["w-2"]; held {
		t.Error("stale wallet survived a wholesale replace")
	}
	if snap.Balances["w-3"] != 0.5 {
		t.Error("new wallet missing after replace")
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	model := NewModel(zaptest.NewLogger(t))
	model.ApplyOperation(testOperation())
	model.ApplyBalances(map[string]float64{"w-1": 1.2})

	snap := model.Snapshot()
	snap.Operation.BuyBundle.Transactions[0].Signature = "tampered"
	snap.Balances["w-1"] = 99

	fresh := model.Snapshot()
	if fresh.Operation.BuyBundle.Transactions[0].Signature != "sig1" {
		t.Error("mutating a snapshot leaked into the model")
	}
	if fresh.Balances["w-1"] != 1.2 {
		t.Error("mutating a snapshot balance leaked into the model")
	}
}

func TestWaitingForBundle(t *testing.T) {
	model := NewModel(zaptest.NewLogger(t))

	if !model.Snapshot().WaitingForBundle() {
		t.Error("empty model should be waiting for the bundle")
	}

	op := testOperation()
	op.BuyBundle = nil
	model.ApplyOperation(op)
	if !model.Snapshot().WaitingForBundle() {
		t.Error("operation without a bundle should be waiting")
	}

	model.ApplyOperation(testOperation())
	snap := model.Snapshot()
	if snap.WaitingForBundle() {
		t.Error("bundle present but still waiting")
	}
	ids := snap.WalletIDs()
	if len(ids) != 3 || ids[0] != "w-1" || ids[2] != "w-3" {
		t.Errorf("WalletIDs = %v", ids)
	}
}
