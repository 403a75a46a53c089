// internal/poller/balances.go
package poller

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fetchWalletBalances fans out one balance request per bundle wallet
// concurrently and replaces the balance table only once the whole fan-out
// settles. A wallet whose fetch fails reads as 0 for this cycle; the other
// wallets still update. Degraded mode, not an error.
func (s *Supervisor) fetchWalletBalances(ctx context.Context) {
	walletIDs := s.config.Model.Snapshot().WalletIDs()
	if len(walletIDs) == 0 {
		// Buy bundle not observed yet; dependent views stay in waiting.
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.FetchTimeout)
	defer cancel()

	balances := make([]float64, len(walletIDs))
	g, gCtx := errgroup.WithContext(fetchCtx)

	for i, walletID := range walletIDs {
		g.Go(func() error {
			balance, err := s.config.Backend.GetWalletBalance(gCtx, walletID)
			if err != nil {
				s.logger.Warn("Wallet balance fetch failed, reporting 0 for this cycle",
					zap.String("wallet", walletID),
					zap.Error(err))
				balances[i] = 0
				return nil
			}
			balances[i] = balance
			return nil
		})
	}

	// Goroutines never return errors; Wait only orders the table replace
	// after the full fan-out has settled.
	_ = g.Wait()

	if ctx.Err() != nil {
		return
	}

	table := make(map[string]float64, len(walletIDs))
	for i, walletID := range walletIDs {
		table[walletID] = balances[i]
	}
	s.config.Model.ApplyBalances(table)
}
