// internal/poller/poller_test.go
package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rovshanmuradov/bundler-console/internal/api"
	"github.com/rovshanmuradov/bundler-console/internal/reconcile"
	"go.uber.org/zap/zaptest"
)

// fakeBackend serves canned responses and counts calls per endpoint.
// Error injection is per call site so tests can fail one source while the
// others keep working.
type fakeBackend struct {
	mu sync.Mutex

	operation  *api.Operation
	system     *api.SystemStatus
	monitoring *api.MonitoringSnapshot
	balances   map[string]float64

	operationErr  error
	systemErr     error
	balanceErrFor string

	operationCalls int
	balanceCalls   map[string]int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		operation: &api.Operation{
			ID:     "op-1",
			Status: api.OperationMonitoring,
			BuyBundle: &api.BuyBundle{
				ID: "b-1",
				Transactions: []api.Transaction{
					{ID: "tx-1", WalletID: "w-1", Status: api.TxConfirmed, Amount: 1, Signature: "sig1"},
					{ID: "tx-2", WalletID: "w-2", Status: api.TxConfirmed, Amount: 1, Signature: "sig2"},
					{ID: "tx-3", WalletID: "w-3", Status: api.TxConfirmed, Amount: 1, Signature: "sig3"},
					{ID: "tx-4", WalletID: "w-4", Status: api.TxConfirmed, Amount: 1, Signature: "sig4"},
					{ID: "tx-5", WalletID: "w-5", Status: api.TxConfirmed, Amount: 1, Signature: "sig5"},
				},
			},
		},
		system:     &api.SystemStatus{Initialized: true},
		monitoring: &api.MonitoringSnapshot{CurrentPrice: 0.00001},
		balances: map[string]float64{
			"w-1": 1.1, "w-2": 1.2, "w-3": 1.3, "w-4": 1.4, "w-5": 1.5,
		},
		balanceCalls: make(map[string]int),
	}
}

func (f *fakeBackend) GetOperation(ctx context.Context, operationID string) (*api.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.operationCalls++
	if f.operationErr != nil {
		return nil, f.operationErr
	}
	return f.operation, nil
}

func (f *fakeBackend) GetSystemStatus(ctx context.Context) (*api.SystemStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.systemErr != nil {
		return nil, f.systemErr
	}
	return f.system, nil
}

func (f *fakeBackend) GetWalletBalance(ctx context.Context, walletID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balanceCalls[walletID]++
	if walletID == f.balanceErrFor {
		return 0, errors.New("rpc node unavailable")
	}
	return f.balances[walletID], nil
}

func (f *fakeBackend) GetMonitoring(ctx context.Context, operationID string) (*api.MonitoringSnapshot, error) {
	return f.monitoring, nil
}

func newTestSupervisor(t *testing.T, backend Backend, model *reconcile.Model) *Supervisor {
	t.Helper()
	supervisor, err := NewSupervisor(context.Background(), &Config{
		OperationID:     "op-1",
		Backend:         backend,
		Model:           model,
		Logger:          zaptest.NewLogger(t),
		DetailInterval:  10 * time.Millisecond,
		DerivedInterval: 10 * time.Millisecond,
		FetchTimeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}
	return supervisor
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNewSupervisorValidation(t *testing.T) {
	logger := zaptest.NewLogger(t)
	model := reconcile.NewModel(logger)

	if _, err := NewSupervisor(context.Background(), &Config{Backend: newFakeBackend(), Model: model, Logger: logger}); err == nil {
		t.Error("empty operation id accepted")
	}
	if _, err := NewSupervisor(context.Background(), &Config{OperationID: "op-1", Model: model, Logger: logger}); err == nil {
		t.Error("nil backend accepted")
	}
	if _, err := NewSupervisor(context.Background(), &Config{OperationID: "op-1", Backend: newFakeBackend(), Logger: logger}); err == nil {
		t.Error("nil model accepted")
	}
}

func TestAllSourcesPopulateTheModel(t *testing.T) {
	backend := newFakeBackend()
	model := reconcile.NewModel(zaptest.NewLogger(t))
	supervisor := newTestSupervisor(t, backend, model)

	supervisor.Start()
	defer supervisor.Stop()

	waitFor(t, func() bool {
		snap := model.Snapshot()
		return snap.Operation != nil && snap.System != nil &&
			snap.Monitoring != nil && len(snap.Balances) == 5
	}, "all four sources to deliver")

	snap := model.Snapshot()
	if snap.Operation.ID != "op-1" {
		t.Errorf("operation ID = %q", snap.Operation.ID)
	}
	if snap.Balances["w-3"] != 1.3 {
		t.Errorf("balance w-3 = %v", snap.Balances["w-3"])
	}
}

func TestOneFailingSourceLeavesOthersRunning(t *testing.T) {
	backend := newFakeBackend()
	backend.systemErr = errors.New("status endpoint broken")
	model := reconcile.NewModel(zaptest.NewLogger(t))
	supervisor := newTestSupervisor(t, backend, model)

	supervisor.Start()
	defer supervisor.Stop()

	waitFor(t, func() bool {
		snap := model.Snapshot()
		return snap.Operation != nil && snap.Monitoring != nil
	}, "healthy sources to deliver")

	if model.Snapshot().System != nil {
		t.Error("system status delivered despite failing endpoint")
	}
}

func TestPartialBalanceFanOut(t *testing.T) {
	backend := newFakeBackend()
	backend.balanceErrFor = "w-4"
	model := reconcile.NewModel(zaptest.NewLogger(t))
	supervisor := newTestSupervisor(t, backend, model)

	supervisor.Start()
	defer supervisor.Stop()

	waitFor(t, func() bool {
		return len(model.Snapshot().Balances) == 5
	}, "balance table to be applied")

	snap := model.Snapshot()
	if snap.Balances["w-4"] != 0 {
		t.Errorf("failed wallet balance = %v, want 0", snap.Balances["w-4"])
	}
	for _, walletID := range []string{"w-1", "w-2", "w-3", "w-5"} {
		if snap.Balances[walletID] == 0 {
			t.Errorf("healthy wallet %s read as 0", walletID)
		}
	}
}

func TestBalancesSkippedUntilBundleObserved(t *testing.T) {
	backend := newFakeBackend()
	backend.operationErr = errors.New("not yet")
	model := reconcile.NewModel(zaptest.NewLogger(t))
	supervisor := newTestSupervisor(t, backend, model)

	supervisor.Start()
	time.Sleep(50 * time.Millisecond)
	supervisor.Stop()

	backend.mu.Lock()
	defer backend.mu.Unlock()
	if len(backend.balanceCalls) != 0 {
		t.Errorf("balance fetches issued before the bundle was observed: %v", backend.balanceCalls)
	}
}

func TestRepeatedDetailFailuresLatchTerminal(t *testing.T) {
	backend := newFakeBackend()
	backend.operationErr = errors.New("operation endpoint gone")
	model := reconcile.NewModel(zaptest.NewLogger(t))
	supervisor := newTestSupervisor(t, backend, model)

	supervisor.Start()
	defer supervisor.Stop()

	waitFor(t, model.Terminal, "terminal latch")
}

func TestRefreshDetail(t *testing.T) {
	backend := newFakeBackend()
	model := reconcile.NewModel(zaptest.NewLogger(t))
	supervisor, err := NewSupervisor(context.Background(), &Config{
		OperationID: "op-1",
		Backend:     backend,
		Model:       model,
		Logger:      zaptest.NewLogger(t),
		// Long intervals so only the scheduled refresh can add calls
		// past the immediate first run.
		DetailInterval:  time.Hour,
		DerivedInterval: time.Hour,
		FetchTimeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("NewSupervisor: %v", err)
	}

	supervisor.Start()
	defer supervisor.Stop()

	waitFor(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.operationCalls == 1
	}, "immediate first detail fetch")

	supervisor.RefreshDetail(10 * time.Millisecond)

	waitFor(t, func() bool {
		backend.mu.Lock()
		defer backend.mu.Unlock()
		return backend.operationCalls == 2
	}, "scheduled detail refresh")
}

func TestStopIsDeterministic(t *testing.T) {
	backend := newFakeBackend()
	model := reconcile.NewModel(zaptest.NewLogger(t))
	supervisor := newTestSupervisor(t, backend, model)

	supervisor.Start()
	time.Sleep(30 * time.Millisecond)

	done := make(chan struct{})
	go func() {
		supervisor.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
}
