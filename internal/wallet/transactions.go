package wallet

import (
	"context"
	"fmt"
	"sort"

	"github.com/AlexZinkM/canopy-wallet/internal/model"
)

// RefreshHistory fetches the wallet's transactions on the configured chain,
// newest first, and caches them.
func (s *Store) RefreshHistory(ctx context.Context, address string) ([]model.Transaction, error) {
	address = normalizeID(address)
	chainID := s.opts.ChainID
	resp, err := s.api.TransactionHistory(ctx, model.HistoryQuery{
		Address: address,
		ChainID: &chainID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	txs := append([]model.Transaction(nil), resp.Transactions...)
	for i := range txs {
		txs[i].Status = txs[i].Status.Normalize()
	}
	// Sort by time DESC (newest first)
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Timestamp.After(txs[j].Timestamp)
	})

	s.mu.Lock()
	s.history[address] = txs
	s.mu.Unlock()

	return append([]model.Transaction(nil), txs...), nil
}

// History returns the cached transactions of a wallet.
func (s *Store) History(address string) []model.Transaction {
	address = normalizeID(address)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Transaction(nil), s.history[address]...)
}
