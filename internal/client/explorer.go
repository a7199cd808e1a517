package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/AlexZinkM/canopy-wallet/internal/model"
)

// Height gets the current chain height. Call it right before signing.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	var resp model.HeightResponse
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/explorer/height"}, &resp); err != nil {
		return 0, err
	}
	return resp.Height, nil
}

// Overview gets chain-wide figures from the explorer.
func (c *Client) Overview(ctx context.Context) (*model.OverviewResponse, error) {
	var resp model.OverviewResponse
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/explorer/overview"}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AccountBalance gets an account's balance in micro-units. Unknown accounts have zero balance.
func (c *Client) AccountBalance(ctx context.Context, address string) (uint64, error) {
	var resp model.AccountResponse
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/explorer/account/" + url.PathEscape(address)}, &resp)
	if err != nil {
		if IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return resp.Amount, nil
}

// Health checks that the backend is reachable. It never sends credentials.
func (c *Client) Health(ctx context.Context) (*model.HealthResponse, error) {
	var resp model.HealthResponse
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/health"}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
