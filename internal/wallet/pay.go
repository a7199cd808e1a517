package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/AlexZinkM/canopy-wallet/internal/common"
	"github.com/AlexZinkM/canopy-wallet/internal/model"
	"github.com/AlexZinkM/canopy-wallet/internal/txn"
)

// SendRequest is a send from an unlocked wallet. Amount and Fee are micro-units.
type SendRequest struct {
	From   string
	To     string
	Amount uint64
	Fee    uint64
	Memo   string
}

// SendResult is the outcome of SendTransaction.
type SendResult struct {
	TransactionHash string
	Status          model.TxStatus
	Attempts        int
	Signed          *txn.SignedTransaction
}

// PendingSubmission tracks a submitted transaction until it reaches a
// terminal status or polling gives up.
type PendingSubmission struct {
	TransactionHash string         `json:"transactionHash"`
	From            string         `json:"from"`
	Status          model.TxStatus `json:"status"`
	Attempts        int            `json:"attempts"`
	SubmittedAt     time.Time      `json:"submittedAt"`
	LastPolledAt    time.Time      `json:"lastPolledAt,omitempty"`
}

// SendTransaction signs and submits a send, then polls its status.
//
// The sender must be unlocked. The chain height is fetched immediately
// before signing. Balance and history of the sender are refreshed once the
// workflow ends, whether it succeeded or not. When polling is exhausted the
// result carries status pending and the error is ErrSubmissionTimeout.
func (s *Store) SendTransaction(ctx context.Context, req SendRequest) (*SendResult, error) {
	req.From = normalizeID(req.From)
	key, err := s.secretCopy(req.From)
	if err != nil {
		return nil, err
	}
	// Always clear private key from memory
	defer clear(key)

	signed, resp, err := s.submit(ctx, req, key)
	if signed != nil {
		defer s.refreshAfterSend(ctx, req.From)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("hash", resp.TransactionHash).
		Str("from", req.From).
		Str("to", req.To).
		Str("amount", common.MicroToCNPY(req.Amount)).
		Uint64("height", signed.Tx.CreatedHeight).
		Msg("transaction submitted")

	result := &SendResult{
		TransactionHash: resp.TransactionHash,
		Status:          resp.Status.Normalize(),
		Signed:          signed,
	}
	if result.Status.Terminal() {
		return result, nil
	}

	s.track(&PendingSubmission{
		TransactionHash: resp.TransactionHash,
		From:            req.From,
		Status:          model.TxStatusPending,
		SubmittedAt:     s.opts.Now(),
	})
	result.Status, result.Attempts, err = s.poll(ctx, resp.TransactionHash)
	return result, err
}

// WaitForCompletion polls a submitted transaction until it is terminal or
// the attempt budget runs out. Untracked hashes are tracked first.
func (s *Store) WaitForCompletion(ctx context.Context, hash string) (model.TxStatus, error) {
	s.mu.Lock()
	if _, ok := s.pending[hash]; !ok {
		s.pending[hash] = &PendingSubmission{
			TransactionHash: hash,
			Status:          model.TxStatusPending,
			SubmittedAt:     s.opts.Now(),
		}
	}
	s.mu.Unlock()

	status, _, err := s.poll(ctx, hash)
	return status, err
}

// Pending returns the submissions still being tracked.
func (s *Store) Pending() []PendingSubmission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]PendingSubmission, 0, len(s.pending))
	for _, p := range s.pending {
		out = append(out, *p)
	}
	return out
}

func (s *Store) track(p *PendingSubmission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[p.TransactionHash] = p
}

// poll issues at most PollMaxAttempts status queries, PollInterval apart.
// The submission is dropped from tracking when it ends either way.
func (s *Store) poll(ctx context.Context, hash string) (model.TxStatus, int, error) {
	defer func() {
		s.mu.Lock()
		delete(s.pending, hash)
		s.mu.Unlock()
	}()

	limit := s.opts.PollMaxAttempts
	for attempt := 1; attempt <= limit; attempt++ {
		status := model.TxStatusPending
		resp, err := s.api.TransactionStatus(ctx, hash)
		if err != nil {
			if ctx.Err() != nil {
				return model.TxStatusPending, attempt, ctx.Err()
			}
			s.log.Warn().Err(err).Str("hash", hash).Int("attempt", attempt).Msg("status check failed")
		} else {
			status = resp.Status.Normalize()
		}

		s.mu.Lock()
		if p, ok := s.pending[hash]; ok {
			p.Status = status
			p.Attempts = attempt
			p.LastPolledAt = s.opts.Now()
		}
		s.mu.Unlock()

		if status.Terminal() {
			s.log.Info().Str("hash", hash).Str("status", string(status)).Int("attempts", attempt).Msg("transaction settled")
			return status, attempt, nil
		}
		if attempt < limit {
			if err := s.opts.Sleep(ctx, s.opts.PollInterval); err != nil {
				return model.TxStatusPending, attempt, err
			}
		}
	}

	s.log.Warn().Str("hash", hash).Int("attempts", limit).Msg("transaction still pending")
	return model.TxStatusPending, limit, ErrSubmissionTimeout
}

// submit builds, signs and hands the send to the backend. sendMu is held
// from the cooldown check until the submission is recorded, so concurrent
// sends cannot both pass the check. signed is non-nil once the transaction
// was handed to the backend.
func (s *Store) submit(ctx context.Context, req SendRequest, key []byte) (*txn.SignedTransaction, *model.SendRawResponse, error) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if err := s.checkCooldownLocked(); err != nil {
		return nil, nil, err
	}

	height, err := s.api.Height(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch height: %w", err)
	}

	signed, err := txn.BuildSendTransaction(key, req.To, req.Amount, txn.Params{
		Height:       height,
		NetworkID:    s.opts.NetworkID,
		ChainID:      s.opts.ChainID,
		Time:         s.opts.Now(),
		AllowZeroFee: s.opts.AllowZeroFee,
	}, req.Fee, req.Memo)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.api.SendRawTransaction(ctx, txn.ToSubmissionRequest(signed))
	if err != nil {
		return signed, nil, fmt.Errorf("failed to send transaction: %w", err)
	}
	s.lastSend = s.opts.Now()
	return signed, resp, nil
}

// checkCooldownLocked requires s.sendMu.
func (s *Store) checkCooldownLocked() error {
	if s.opts.SendCooldown <= 0 || s.lastSend.IsZero() {
		return nil
	}
	if elapsed := s.opts.Now().Sub(s.lastSend); elapsed < s.opts.SendCooldown {
		remaining := s.opts.SendCooldown - elapsed
		return fmt.Errorf("%w, please wait %v", ErrCooldown, remaining.Round(time.Second))
	}
	return nil
}

// refreshAfterSend runs even when ctx was cancelled mid-workflow.
func (s *Store) refreshAfterSend(ctx context.Context, address string) {
	ctx = context.WithoutCancel(ctx)
	if _, err := s.RefreshBalance(ctx, address); err != nil {
		s.log.Warn().Err(err).Str("address", address).Msg("balance refresh failed")
	}
	if _, err := s.RefreshHistory(ctx, address); err != nil {
		s.log.Warn().Err(err).Str("address", address).Msg("history refresh failed")
	}
}
