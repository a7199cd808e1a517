package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/AlexZinkM/canopy-wallet/internal/model"
)

// SendRawTransaction submits a signed transaction. It is never deduplicated.
func (c *Client) SendRawTransaction(ctx context.Context, raw *model.RawTransaction) (*model.SendRawResponse, error) {
	var resp model.SendRawResponse
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/wallet/transactions/send-raw", Body: raw, Auth: true}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.TransactionHash == "" {
		return nil, &UnknownError{Err: errors.New("submission response has no transaction hash")}
	}
	return &resp, nil
}

// TransactionStatus gets the current status of a submitted transaction.
func (c *Client) TransactionStatus(ctx context.Context, hash string) (*model.StatusResponse, error) {
	var resp model.StatusResponse
	path := fmt.Sprintf("/wallet/transactions/%s/status", url.PathEscape(hash))
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Auth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EstimateFee gets the current send fee for a chain in micro-units.
func (c *Client) EstimateFee(ctx context.Context, chainID uint64) (*model.FeeEstimate, error) {
	q := url.Values{}
	q.Set("type", string(model.TransactionTypeSend))
	q.Set("chain_id", strconv.FormatUint(chainID, 10))

	var resp model.FeeEstimate
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/wallet/transactions/estimate-fee", Query: q, Auth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TransactionHistory gets confirmed transactions matching q.
func (c *Client) TransactionHistory(ctx context.Context, q model.HistoryQuery) (*model.HistoryResponse, error) {
	return c.history(ctx, "/wallet/transactions/history", q)
}

// PendingTransactions gets not yet confirmed transactions matching q.
func (c *Client) PendingTransactions(ctx context.Context, q model.HistoryQuery) (*model.HistoryResponse, error) {
	return c.history(ctx, "/wallet/transactions/pending", q)
}

func (c *Client) history(ctx context.Context, path string, q model.HistoryQuery) (*model.HistoryResponse, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	var resp model.HistoryResponse
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q.Values(), Auth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BatchStatus gets the statuses of several transactions at once.
func (c *Client) BatchStatus(ctx context.Context, hashes []string) (*model.BatchStatusResponse, error) {
	if len(hashes) == 0 {
		return &model.BatchStatusResponse{}, nil
	}
	q := url.Values{}
	q.Set("hashes", strings.Join(hashes, ","))

	var resp model.BatchStatusResponse
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/wallet/transactions/batch-status", Query: q, Auth: true}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
