// internal/api/client.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// ClientConfig configures the backend API client.
type ClientConfig struct {
	BaseURL    string
	MaxRetries uint // transport retries for idempotent GETs
	Logger     *zap.Logger
}

// Client talks to the bundler automation engine. GET endpoints retry
// transient transport failures; POST control actions are issued exactly
// once. Deadlines come from caller contexts, never from the transport:
// control actions carry budgets far apart from poll fetch timeouts.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint
	logger     *zap.Logger
}

// NewClient creates a backend API client.
func NewClient(cfg *ClientConfig) *Client {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{},
		maxRetries: maxRetries,
		logger:     cfg.Logger.Named("api"),
	}
}

// GetOperation fetches one bundle operation with its buy bundle, if any.
func (c *Client) GetOperation(ctx context.Context, operationID string) (*Operation, error) {
	var op Operation
	endpoint := fmt.Sprintf("/api/operations/%s", operationID)
	if err := c.getJSON(ctx, endpoint, &op); err != nil {
		return nil, err
	}
	return &op, nil
}

// GetSystemStatus fetches process-wide backend state.
func (c *Client) GetSystemStatus(ctx context.Context) (*SystemStatus, error) {
	var status SystemStatus
	if err := c.getJSON(ctx, "/api/system/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GetWalletBalance fetches the current on-chain SOL balance of one wallet.
func (c *Client) GetWalletBalance(ctx context.Context, walletID string) (float64, error) {
	var balance WalletBalance
	endpoint := fmt.Sprintf("/api/wallet/%s/balance", walletID)
	if err := c.getJSON(ctx, endpoint, &balance); err != nil {
		return 0, err
	}
	return balance.Balance, nil
}

// GetMonitoring fetches the latest live telemetry sample for an operation.
func (c *Client) GetMonitoring(ctx context.Context, operationID string) (*MonitoringSnapshot, error) {
	var snap MonitoringSnapshot
	endpoint := fmt.Sprintf("/api/operations/%s/monitoring", operationID)
	if err := c.getJSON(ctx, endpoint, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// FastSellAll asks the backend to liquidate every bundle wallet at once.
func (c *Client) FastSellAll(ctx context.Context, operationID string) error {
	endpoint := fmt.Sprintf("/api/operations/%s/fast-sell-all", operationID)
	_, err := c.doRequest(ctx, http.MethodPost, endpoint)
	return err
}

// SlowSellAll asks the backend to liquidate wallets sequentially. Slower,
// but does not trip upstream rate limiters.
func (c *Client) SlowSellAll(ctx context.Context, operationID string) error {
	endpoint := fmt.Sprintf("/api/operations/%s/sell-all", operationID)
	_, err := c.doRequest(ctx, http.MethodPost, endpoint)
	return err
}

// EmergencyStop halts the whole automation engine.
func (c *Client) EmergencyStop(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodPost, "/api/emergency-stop")
	return err
}

// SellAllTracked sells every token the backend still tracks, across
// operations.
func (c *Client) SellAllTracked(ctx context.Context) (*SellTrackedResult, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/sell-all-tracked-tokens")
	if err != nil {
		return nil, err
	}
	var result SellTrackedResult
	if len(data) > 0 {
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, fmt.Errorf("failed to decode sell-tracked result: %w", err)
		}
	}
	return &result, nil
}

// getJSON performs an idempotent GET with transport-level retries and
// decodes the envelope payload into out. Application-level failures and
// rate limits are terminal for the attempt chain.
func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	backoffPolicy := backoff.NewExponentialBackOff()
	backoffPolicy.InitialInterval = 200 * time.Millisecond
	backoffPolicy.MaxInterval = 2 * time.Second

	notify := func(err error, duration time.Duration) {
		c.logger.Debug("Retrying request after error",
			zap.String("endpoint", endpoint),
			zap.Error(err),
			zap.Duration("backoff", duration))
	}

	operation := func() (json.RawMessage, error) {
		data, err := c.doRequest(ctx, http.MethodGet, endpoint)
		if err != nil {
			var apiErr *Error
			if errors.As(err, &apiErr) {
				// Envelope said no; retrying won't change the answer.
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return data, nil
	}

	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoffPolicy),
		backoff.WithMaxTries(c.maxRetries),
		backoff.WithNotify(notify))
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return &Error{Endpoint: endpoint, Err: ErrEmptyData}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// doRequest issues one HTTP request and unpacks the uniform envelope. The
// envelope's success flag is the sole success signal; transport status is
// only consulted for the 429 special case and for undecodable bodies.
func (c *Client) doRequest(ctx context.Context, method, endpoint string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, classify(endpoint, resp.StatusCode, "too many requests")
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("invalid envelope from %s (status %d): %w", endpoint, resp.StatusCode, err)
	}

	if !env.Success {
		message := "unknown error"
		if env.Error != nil && env.Error.Message != "" {
			message = env.Error.Message
		}
		return nil, classify(endpoint, resp.StatusCode, message)
	}

	return env.Data, nil
}
