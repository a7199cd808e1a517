package model

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TxStatus is a transaction status as reported by the backend.
type TxStatus string

const (
	TxStatusPending   TxStatus = "pending"
	TxStatusCompleted TxStatus = "completed"
	TxStatusSuccess   TxStatus = "success"
	TxStatusConfirmed TxStatus = "confirmed"
	TxStatusFailed    TxStatus = "failed"
	TxStatusError     TxStatus = "error"
)

// Normalize folds the backend vocabulary into pending, completed or failed.
// Unknown values are treated as pending.
func (s TxStatus) Normalize() TxStatus {
	switch TxStatus(strings.ToLower(string(s))) {
	case TxStatusCompleted, TxStatusSuccess, TxStatusConfirmed:
		return TxStatusCompleted
	case TxStatusFailed, TxStatusError:
		return TxStatusFailed
	default:
		return TxStatusPending
	}
}

// Terminal reports whether no further status change is expected.
func (s TxStatus) Terminal() bool {
	return s.Normalize() != TxStatusPending
}

// TransactionType transaction type
type TransactionType string

const (
	TransactionTypeSend    TransactionType = "send"
	TransactionTypeReceive TransactionType = "receive"
)

// RawMessage is the send message inside a raw transaction.
type RawMessage struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	Amount      uint64 `json:"amount"`
}

// RawSignature carries the signer's public key and signature, both hex.
type RawSignature struct {
	PublicKey string `json:"publicKey"`
	Signature string `json:"signature"`
}

// RawTransaction is the body of POST /wallet/transactions/send-raw.
type RawTransaction struct {
	Type          string       `json:"type"`
	Msg           RawMessage   `json:"msg"`
	Signature     RawSignature `json:"signature"`
	Time          uint64       `json:"time"` // unix microseconds
	CreatedHeight uint64       `json:"createdHeight"`
	Fee           uint64       `json:"fee"`
	Memo          string       `json:"memo"`
	NetworkID     uint64       `json:"networkID"`
	ChainID       uint64       `json:"chainID"`
}

// SendRawResponse represents response for POST /wallet/transactions/send-raw
type SendRawResponse struct {
	TransactionHash string   `json:"transaction_hash"`
	Status          TxStatus `json:"status"`
}

// StatusResponse represents response for GET /wallet/transactions/:hash/status
type StatusResponse struct {
	TransactionHash string   `json:"transaction_hash"`
	Status          TxStatus `json:"status"`
}

// BatchStatusResponse represents response for GET /wallet/transactions/batch-status
type BatchStatusResponse struct {
	Statuses []StatusResponse `json:"statuses"`
}

// FeeEstimate represents response for GET /wallet/transactions/estimate-fee
type FeeEstimate struct {
	Fee     uint64 `json:"fee"` // micro-units
	ChainID uint64 `json:"chain_id"`
}

// Transaction is one entry of a wallet's transaction history.
type Transaction struct {
	Hash      string          `json:"transaction_hash"`
	Type      TransactionType `json:"type"`
	From      string          `json:"from_address"`
	To        string          `json:"to_address"`
	Amount    uint64          `json:"amount"`
	Fee       uint64          `json:"fee"`
	Memo      string          `json:"memo,omitempty"`
	ChainID   uint64          `json:"chain_id"`
	Height    uint64          `json:"height"`
	Status    TxStatus        `json:"status"`
	Timestamp time.Time       `json:"timestamp"`
}

// HistoryResponse represents response for GET /wallet/transactions/history
// and GET /wallet/transactions/pending.
type HistoryResponse struct {
	Transactions []Transaction `json:"transactions"`
	Total        int           `json:"total"`
}

// HistoryQuery represents filter parameters for the read-only transaction endpoints.
type HistoryQuery struct {
	Address string
	ChainID *uint64
	Type    *TransactionType
	From    *time.Time
	To      *time.Time
	Limit   int
	Page    int
}

// Validate validates HistoryQuery filter parameters.
func (q *HistoryQuery) Validate() error {
	if q.Type != nil && *q.Type != TransactionTypeSend && *q.Type != TransactionTypeReceive {
		return fmt.Errorf("type must be send or receive")
	}
	if q.From != nil && q.To != nil && q.To.Before(*q.From) {
		return fmt.Errorf("to date must be after or equal to from date")
	}
	if q.Limit < 0 || q.Page < 0 {
		return fmt.Errorf("limit and page must not be negative")
	}
	return nil
}

// Values encodes the query as URL parameters.
func (q *HistoryQuery) Values() url.Values {
	v := url.Values{}
	if q.Address != "" {
		v.Set("address", q.Address)
	}
	if q.ChainID != nil {
		v.Set("chain_id", strconv.FormatUint(*q.ChainID, 10))
	}
	if q.Type != nil {
		v.Set("type", string(*q.Type))
	}
	if q.From != nil {
		v.Set("from", q.From.UTC().Format(time.RFC3339))
	}
	if q.To != nil {
		v.Set("to", q.To.UTC().Format(time.RFC3339))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	return v
}
