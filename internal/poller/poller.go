// internal/poller/poller.go
package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rovshanmuradov/bundler-console/internal/api"
	"github.com/rovshanmuradov/bundler-console/internal/reconcile"
	"go.uber.org/zap"
)

// Backend is the read side of the bundler API the poller depends on.
type Backend interface {
	GetOperation(ctx context.Context, operationID string) (*api.Operation, error)
	GetSystemStatus(ctx context.Context) (*api.SystemStatus, error)
	GetWalletBalance(ctx context.Context, walletID string) (float64, error)
	GetMonitoring(ctx context.Context, operationID string) (*api.MonitoringSnapshot, error)
}

// Config configures the polling supervisor.
type Config struct {
	OperationID string
	Backend     Backend
	Model       *reconcile.Model
	Logger      *zap.Logger

	// DetailInterval drives the fast cycles (operation detail, system
	// status); DerivedInterval drives the slower ones (wallet balances,
	// monitoring snapshot).
	DetailInterval  time.Duration
	DerivedInterval time.Duration

	// FetchTimeout bounds one fetch attempt inside a cycle.
	FetchTimeout time.Duration
}

// Supervisor owns one cancellable polling task per data source. Cycles run
// on independent timers and fail independently: an error in one source
// leaves the other three untouched.
type Supervisor struct {
	config *Config
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSupervisor creates a polling supervisor bound to parentCtx.
func NewSupervisor(parentCtx context.Context, config *Config) (*Supervisor, error) {
	if config.OperationID == "" {
		return nil, fmt.Errorf("operation id cannot be empty")
	}
	if config.Backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if config.Model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if config.DetailInterval <= 0 {
		config.DetailInterval = 5 * time.Second
	}
	if config.DerivedInterval <= 0 {
		config.DerivedInterval = 8 * time.Second
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(parentCtx)
	return &Supervisor{
		config: config,
		logger: config.Logger.Named("poller"),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start launches all four cycles. Each runs immediately once, then on its
// own ticker until Stop or context cancellation.
func (s *Supervisor) Start() {
	s.logger.Info("📡 Starting poll cycles",
		zap.String("operation", s.config.OperationID),
		zap.Duration("detail_interval", s.config.DetailInterval),
		zap.Duration("derived_interval", s.config.DerivedInterval))

	s.runCycle("operation_detail", s.config.DetailInterval, s.fetchOperationDetail)
	s.runCycle("system_status", s.config.DetailInterval, s.fetchSystemStatus)
	s.runCycle("wallet_balances", s.config.DerivedInterval, s.fetchWalletBalances)
	s.runCycle("monitoring", s.config.DerivedInterval, s.fetchMonitoring)
}

// Stop tears down every cycle and waits for them to finish, bounded so a
// wedged fetch cannot block shutdown forever.
func (s *Supervisor) Stop() {
	s.cancel()

	doneChan := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(doneChan)
	}()

	select {
	case <-doneChan:
		s.logger.Debug("All poll cycles finished")
	case <-time.After(5 * time.Second):
		s.logger.Warn("Timeout waiting for poll cycles to finish")
	}
}

// RefreshDetail schedules one extra operation-detail fetch after the given
// delay. Control actions use this to re-read state once the backend's
// eventual-consistency window has settled.
func (s *Supervisor) RefreshDetail(after time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(after)
		defer timer.Stop()

		select {
		case <-timer.C:
			s.logger.Debug("Running scheduled detail refresh", zap.Duration("after", after))
			s.fetchOperationDetail(s.ctx)
		case <-s.ctx.Done():
		}
	}()
}

// runCycle starts one periodic fetch loop. The first run happens
// immediately so the view is not blank for a full interval after mount.
func (s *Supervisor) runCycle(name string, interval time.Duration, tick func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		tick(s.ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				tick(s.ctx)
			case <-s.ctx.Done():
				s.logger.Debug("Poll cycle stopped", zap.String("cycle", name))
				return
			}
		}
	}()
}

// fetchOperationDetail polls the identity-defining resource. Its failures
// are the only ones promoted past "stale" handling: the model counts them
// and latches the terminal error view.
func (s *Supervisor) fetchOperationDetail(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	op, err := s.config.Backend.GetOperation(fetchCtx, s.config.OperationID)
	if err != nil {
		if ctx.Err() == nil {
			s.config.Model.ApplyOperationError(err)
		}
		return
	}
	s.config.Model.ApplyOperation(op)
}

func (s *Supervisor) fetchSystemStatus(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	status, err := s.config.Backend.GetSystemStatus(fetchCtx)
	if err != nil {
		s.logger.Warn("System status fetch failed, keeping last good value", zap.Error(err))
		return
	}
	s.config.Model.ApplySystem(status)
}

func (s *Supervisor) fetchMonitoring(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	snap, err := s.config.Backend.GetMonitoring(fetchCtx, s.config.OperationID)
	if err != nil {
		s.logger.Warn("Monitoring fetch failed, keeping last good value", zap.Error(err))
		return
	}
	s.config.Model.ApplyMonitoring(snap)
}
