package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/AlexZinkM/canopy-wallet/internal/model"
)

// ExportWallets lists every custody record (ciphertext only).
func (c *Client) ExportWallets(ctx context.Context) (*model.ExportResponse, error) {
	var resp model.ExportResponse
	err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/wallet/export", Auth: true}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.AddressMap == nil {
		resp.AddressMap = map[string]model.KeyEntry{}
	}
	return &resp, nil
}

// ImportWallets uploads encrypted key entries keyed by address.
func (c *Client) ImportWallets(ctx context.Context, entries model.ImportRequest) (*model.ImportResponse, error) {
	var resp model.ImportResponse
	err := c.Do(ctx, Request{Method: http.MethodPost, Path: "/wallet/import", Body: entries, Auth: true}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateWallet changes wallet metadata. Key material is never sent.
func (c *Client) UpdateWallet(ctx context.Context, id string, upd model.WalletUpdate) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: "/wallet/" + url.PathEscape(id), Body: upd, Auth: true}, nil)
}

// DeleteWallet removes a custody record.
func (c *Client) DeleteWallet(ctx context.Context, id string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: "/wallet/" + url.PathEscape(id), Auth: true}, nil)
}
