package wallet

import (
	"context"
	"fmt"

	"github.com/AlexZinkM/canopy-wallet/internal/model"
)

// RenameWallet changes the wallet's label on the backend and locally.
func (s *Store) RenameWallet(ctx context.Context, id, label string) error {
	id = normalizeID(id)
	if _, err := s.Wallet(id); err != nil {
		return err
	}
	if err := s.api.UpdateWallet(ctx, id, model.WalletUpdate{Name: &label}); err != nil {
		return fmt.Errorf("failed to rename wallet: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		rec.Label = label
	}
	return nil
}

// SetActive marks the wallet active or inactive.
func (s *Store) SetActive(ctx context.Context, id string, active bool) error {
	id = normalizeID(id)
	if _, err := s.Wallet(id); err != nil {
		return err
	}
	if err := s.api.UpdateWallet(ctx, id, model.WalletUpdate{IsActive: &active}); err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[id]; ok {
		rec.Active = active
	}
	return nil
}

// RemoveWallet deletes the wallet on the backend, then locks it and forgets
// everything cached for it.
func (s *Store) RemoveWallet(ctx context.Context, id string) error {
	id = normalizeID(id)
	if _, err := s.Wallet(id); err != nil {
		return err
	}
	if err := s.api.DeleteWallet(ctx, id); err != nil {
		return fmt.Errorf("failed to delete wallet: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropSecretLocked(id)
	delete(s.records, id)
	delete(s.balances, id)
	delete(s.history, id)

	s.log.Info().Str("address", id).Msg("wallet removed")
	return nil
}
