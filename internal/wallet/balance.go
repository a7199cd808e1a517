package wallet

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const refreshConcurrency = 4

// RefreshBalance fetches the wallet's balance in micro-units and caches it.
// On error the cached value is kept.
func (s *Store) RefreshBalance(ctx context.Context, address string) (uint64, error) {
	address = normalizeID(address)
	amount, err := s.api.AccountBalance(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch balance: %w", err)
	}

	s.mu.Lock()
	s.balances[address] = amount
	s.mu.Unlock()
	return amount, nil
}

// Balance returns the cached balance, if any.
func (s *Store) Balance(address string) (uint64, bool) {
	address = normalizeID(address)
	s.mu.RLock()
	defer s.mu.RUnlock()
	amount, ok := s.balances[address]
	return amount, ok
}

// RefreshBalances refreshes every known wallet. The first error is returned
// after all refreshes finished; successful ones are cached regardless.
func (s *Store) RefreshBalances(ctx context.Context) error {
	wallets := s.Wallets()

	var g errgroup.Group
	g.SetLimit(refreshConcurrency)
	for _, w := range wallets {
		address := w.Address
		g.Go(func() error {
			_, err := s.RefreshBalance(ctx, address)
			return err
		})
	}
	return g.Wait()
}
