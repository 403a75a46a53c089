// internal/view/projector.go
package view

import (
	"time"

	"github.com/rovshanmuradov/bundler-console/internal/api"
	"github.com/rovshanmuradov/bundler-console/internal/reconcile"
)

// Fixed conversion ratios used when no authoritative on-chain figure is
// available. Projections built on them are tagged Estimated so the console
// never presents them as live telemetry.
const (
	EstimatedTokensPerSol = 35000
	SolPriceUSD           = 120

	// estimatedGainRatio stands in for current value while the live
	// monitoring stream has not delivered a sample yet.
	estimatedGainRatio = 1.15
)

// WalletHolding is one wallet's projected position in the bundle.
type WalletHolding struct {
	Index       int
	WalletID    string
	SolInvested float64
	Status      api.TransactionStatus
	Signature   string

	// Pending is set while the buy has no signature; token figures are
	// unknown until the chain confirms, whatever the amount says.
	Pending bool

	TokensReceived float64
	ValueUSD       float64
	LiveBalance    float64
	Estimated      bool
}

// PnL is the aggregate profit and loss projection.
type PnL struct {
	InvestedSol     float64
	CurrentValueSol float64
	ProfitSol       float64
	ProfitPercent   float64

	// Estimated is false only when the figures come from the live
	// monitoring stream.
	Estimated bool
}

// Projection is everything the console renders, derived in one pass from a
// reconciled snapshot. Deriving it twice from the same snapshot yields
// identical output.
type Projection struct {
	OperationID  string
	TokenAddress string
	Status       api.OperationStatus

	Terminal  bool
	DetailErr string

	// Waiting is set while the buy bundle has not been observed yet;
	// wallet and monitor sections show the waiting state.
	Waiting bool

	Elapsed     time.Duration
	Holdings    []WalletHolding
	TotalTokens float64
	PnL         PnL

	DevWalletBalance float64

	CurrentPrice  float64
	EntryPrice    float64
	StopLossPrice float64
	ProfitTarget  float64
	TargetReached bool
	TrailingStop  api.TrailingStop
	HasMonitoring bool
}

// Project derives the display projection from a reconciled snapshot. Pure:
// no clock reads, no network, no mutation of the snapshot.
func Project(snap reconcile.Snapshot, now time.Time) Projection {
	projection := Projection{
		Terminal:  snap.Terminal,
		DetailErr: snap.DetailErr,
		Waiting:   snap.WaitingForBundle(),
	}

	if snap.System != nil {
		projection.DevWalletBalance = snap.System.WalletManager.DevWallet.Balance
	}

	op := snap.Operation
	if op == nil {
		return projection
	}

	projection.OperationID = op.ID
	projection.TokenAddress = op.TokenAddress
	projection.Status = op.Status
	projection.ProfitTarget = op.ProfitTarget
	if !op.CreatedAt.IsZero() {
		projection.Elapsed = now.Sub(op.CreatedAt)
	}

	if op.BuyBundle != nil {
		projection.Holdings = projectHoldings(op.BuyBundle.Transactions, snap.Balances)
		for _, holding := range projection.Holdings {
			projection.TotalTokens += holding.TokensReceived
		}
	}

	projection.PnL = projectPnL(op, snap.Monitoring)

	if snap.Monitoring != nil {
		projection.HasMonitoring = true
		projection.CurrentPrice = snap.Monitoring.CurrentPrice
		projection.EntryPrice = snap.Monitoring.EntryPrice
		projection.StopLossPrice = snap.Monitoring.EntryPrice * op.StopLoss
		projection.TrailingStop = snap.Monitoring.TrailingStopLoss
		for _, target := range snap.Monitoring.ProfitTargets {
			if target.Reached {
				projection.TargetReached = true
				break
			}
		}
	}

	return projection
}

// projectHoldings maps buy transactions to per-wallet holdings. Token and
// USD figures use the fixed conversion ratios and are tagged as estimates;
// a transaction without a signature projects as pending with no figures.
func projectHoldings(transactions []api.Transaction, balances map[string]float64) []WalletHolding {
	holdings := make([]WalletHolding, 0, len(transactions))
	for i, tx := range transactions {
		holding := WalletHolding{
			Index:       i + 1,
			WalletID:    tx.WalletID,
			SolInvested: tx.Amount,
			Status:      tx.Status,
			Signature:   tx.Signature,
			LiveBalance: balances[tx.WalletID],
		}
		if tx.Signature == "" {
			holding.Pending = true
		} else {
			holding.TokensReceived = tx.Amount * EstimatedTokensPerSol
			holding.ValueUSD = tx.Amount * SolPriceUSD
			holding.Estimated = true
		}
		holdings = append(holdings, holding)
	}
	return holdings
}

// projectPnL prefers the live monitoring sample; without one it falls back
// to the fixed illustrative gain ratio and says so.
func projectPnL(op *api.Operation, monitoring *api.MonitoringSnapshot) PnL {
	invested := op.TotalInvested

	if monitoring != nil {
		return PnL{
			InvestedSol:     invested,
			CurrentValueSol: invested + monitoring.ProfitSol,
			ProfitSol:       monitoring.ProfitSol,
			ProfitPercent:   monitoring.ProfitPercentage,
			Estimated:       false,
		}
	}

	current := invested * estimatedGainRatio
	pnl := PnL{
		InvestedSol:     invested,
		CurrentValueSol: current,
		ProfitSol:       current - invested,
		Estimated:       true,
	}
	if invested > 0 {
		pnl.ProfitPercent = (pnl.ProfitSol / invested) * 100
	}
	return pnl
}
