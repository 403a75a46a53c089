// internal/api/types.go
package api

import (
	"encoding/json"
	"time"
)

// OperationStatus is the remote lifecycle state of a bundle operation.
// The backend advances it; the console only reflects the latest observed value.
type OperationStatus string

const (
	OperationCreated    OperationStatus = "created"
	OperationMonitoring OperationStatus = "monitoring"
	OperationExecuting  OperationStatus = "executing_bundles"
	OperationCompleted  OperationStatus = "completed"
	OperationFailed     OperationStatus = "failed"
)

// TransactionStatus is the per-wallet buy transaction state.
type TransactionStatus string

const (
	TxPending   TransactionStatus = "pending"
	TxConfirmed TransactionStatus = "confirmed"
	TxFailed    TransactionStatus = "failed"
)

// Operation is one multi-wallet bundle run as the backend reports it.
type Operation struct {
	ID               string          `json:"id"`
	TokenAddress     string          `json:"tokenAddress"`
	Status           OperationStatus `json:"status"`
	TotalBudget      float64         `json:"totalBudget"`
	TotalInvested    float64         `json:"totalInvested"`
	NetProfit        float64         `json:"netProfit"`
	ProfitPercentage float64         `json:"profitPercentage"`
	ProfitTarget     float64         `json:"profitTarget"`
	StopLoss         float64         `json:"stopLoss"`
	WalletCount      int             `json:"walletCount"`
	CreatedAt        time.Time       `json:"createdAt"`
	BuyBundle        *BuyBundle      `json:"buyBundle,omitempty"`
}

// BuyBundle is the coordinated buy sequence inside an operation.
type BuyBundle struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	TotalAmount  float64       `json:"totalAmount"`
	Transactions []Transaction `json:"transactions"`
}

// Transaction is one wallet's participation in the buy bundle.
// Amount is fixed once the transaction exists upstream; only Status and
// Signature change on later polls. A present Signature implies the
// transaction is no longer pending.
type Transaction struct {
	ID           string            `json:"id"`
	WalletID     string            `json:"walletId"`
	Status       TransactionStatus `json:"status"`
	Amount       float64           `json:"amount"`
	Signature    string            `json:"signature,omitempty"`
	TokenAddress string            `json:"tokenAddress,omitempty"`
}

// Confirmed reports whether the buy landed on chain.
func (t Transaction) Confirmed() bool {
	return t.Signature != "" && t.Status == TxConfirmed
}

// SystemStatus is process-wide backend state, fetched fresh each poll and
// never persisted.
type SystemStatus struct {
	Initialized   bool `json:"initialized"`
	WalletManager struct {
		DevWallet struct {
			Address string  `json:"address"`
			Balance float64 `json:"balance"`
		} `json:"devWallet"`
		BundleWallets int     `json:"bundleWallets"`
		TotalBalance  float64 `json:"totalBalance"`
	} `json:"walletManager"`
	BundleManager struct {
		Initialized       bool `json:"initialized"`
		NetworkConnected  bool `json:"networkConnected"`
		ProtectionEnabled bool `json:"protectionEnabled"`
	} `json:"bundleManager"`
	Operations struct {
		Active    int `json:"active"`
		Completed int `json:"completed"`
		Failed    int `json:"failed"`
	} `json:"operations"`
	Protection struct {
		AntiMev            bool `json:"antiMev"`
		SandwichProtection bool `json:"sandwichProtection"`
		EmergencyStops     bool `json:"emergencyStops"`
	} `json:"protection"`
}

// TrailingStop is the dynamically rising stop threshold tracked upstream
// from the highest observed price.
type TrailingStop struct {
	HighestPrice     float64 `json:"highestPrice"`
	CurrentStopPrice float64 `json:"currentStopPrice"`
	TrailPercent     float64 `json:"trailPercent"`
}

// ProfitTarget is one upstream take-profit level.
type ProfitTarget struct {
	Multiplier float64 `json:"multiplier"`
	Reached    bool    `json:"reached"`
}

// MonitoringSnapshot is one live telemetry sample for the target token.
// Entirely derived upstream; the console treats it as read-only.
type MonitoringSnapshot struct {
	CurrentPrice     float64        `json:"currentPrice"`
	EntryPrice       float64        `json:"entryPrice"`
	ProfitPercentage float64        `json:"profitPercentage"`
	ProfitSol        float64        `json:"profitSol"`
	TrailingStopLoss TrailingStop   `json:"trailingStopLoss"`
	ProfitTargets    []ProfitTarget `json:"profitTargets"`
}

// WalletBalance is the response payload of a single balance fetch.
type WalletBalance struct {
	Balance float64 `json:"balance"`
}

// SellTrackedResult is the payload of a sell-all-tracked-tokens call.
type SellTrackedResult struct {
	TokensSold  int `json:"tokensSold"`
	TotalTokens int `json:"totalTokens"`
}

// envelope is the uniform response wrapper used by every backend endpoint.
// Its Success flag is the sole application-level success signal.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}
