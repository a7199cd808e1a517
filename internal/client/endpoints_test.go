package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/AlexZinkM/canopy-wallet/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

func newRecordingServer(t *testing.T, respond func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})
		mu.Unlock()
		respond(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func TestWalletEndpoints(t *testing.T) {
	srv, reqs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/wallet/import":
			writeJSON(w, http.StatusOK, model.ImportResponse{
				Results: []model.ImportResult{{Address: "aa", Success: true}},
				Summary: model.ImportSummary{Successful: 1},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/wallet/export":
			writeJSON(w, http.StatusOK, model.ExportResponse{AddressMap: map[string]model.KeyEntry{
				"aa": {KeyAddress: "aa", PublicKey: "pk", Encrypted: "ct", Salt: "s", KeyNickname: "main"},
			}})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	c, _ := newTestClient(t, srv.URL, Config{})
	ctx := context.Background()

	imp, err := c.ImportWallets(ctx, model.ImportRequest{"aa": {KeyAddress: "aa", Encrypted: "ct"}})
	require.NoError(t, err)
	res, ok := imp.Result("aa")
	require.True(t, ok)
	assert.True(t, res.Success)

	exp, err := c.ExportWallets(ctx)
	require.NoError(t, err)
	assert.Equal(t, "main", exp.AddressMap["aa"].KeyNickname)

	name := "savings"
	require.NoError(t, c.UpdateWallet(ctx, "aa", model.WalletUpdate{Name: &name}))
	require.NoError(t, c.DeleteWallet(ctx, "aa"))

	got := reqs()
	require.Len(t, got, 4)
	var sent model.ImportRequest
	require.NoError(t, json.Unmarshal(got[0].Body, &sent))
	assert.Equal(t, "ct", sent["aa"].Encrypted)

	assert.Equal(t, http.MethodPut, got[2].Method)
	assert.Equal(t, "/wallet/aa", got[2].Path)
	assert.JSONEq(t, `{"name":"savings"}`, string(got[2].Body))
	assert.Equal(t, http.MethodDelete, got[3].Method)
}

func TestTransactionEndpoints(t *testing.T) {
	srv, reqs := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/wallet/transactions/send-raw":
			writeJSON(w, http.StatusOK, model.SendRawResponse{TransactionHash: "h1", Status: model.TxStatusPending})
		case "/wallet/transactions/h1/status":
			writeJSON(w, http.StatusOK, model.StatusResponse{TransactionHash: "h1", Status: model.TxStatusConfirmed})
		case "/wallet/transactions/batch-status":
			writeJSON(w, http.StatusOK, model.BatchStatusResponse{Statuses: []model.StatusResponse{{TransactionHash: "h1", Status: "success"}}})
		case "/wallet/transactions/estimate-fee":
			writeJSON(w, http.StatusOK, model.FeeEstimate{Fee: 1000, ChainID: 1})
		case "/wallet/transactions/history", "/wallet/transactions/pending":
			writeJSON(w, http.StatusOK, model.HistoryResponse{Transactions: []model.Transaction{{Hash: "h1", Amount: 5}}, Total: 1})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c, _ := newTestClient(t, srv.URL, Config{})
	ctx := context.Background()

	sent, err := c.SendRawTransaction(ctx, &model.RawTransaction{Type: "send", Fee: 1000})
	require.NoError(t, err)
	assert.Equal(t, "h1", sent.TransactionHash)

	st, err := c.TransactionStatus(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, st.Status.Terminal())

	batch, err := c.BatchStatus(ctx, []string{"h1", "h2"})
	require.NoError(t, err)
	require.Len(t, batch.Statuses, 1)

	fee, err := c.EstimateFee(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), fee.Fee)

	hist, err := c.TransactionHistory(ctx, model.HistoryQuery{Address: "aa"})
	require.NoError(t, err)
	assert.Equal(t, 1, hist.Total)

	pend, err := c.PendingTransactions(ctx, model.HistoryQuery{Address: "aa"})
	require.NoError(t, err)
	assert.Len(t, pend.Transactions, 1)

	bad := model.TransactionType("bogus")
	_, err = c.TransactionHistory(ctx, model.HistoryQuery{Type: &bad})
	assert.Error(t, err)

	got := reqs()
	var raw model.RawTransaction
	require.NoError(t, json.Unmarshal(got[0].Body, &raw))
	assert.Equal(t, uint64(1000), raw.Fee)
	assert.Equal(t, "hashes=h1%2Ch2", got[2].Query)
	assert.Equal(t, "address=aa", got[4].Query)
	assert.Len(t, got, 6)
}

func TestSendRawWithoutHashIsUnknownError(t *testing.T) {
	srv, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.SendRawResponse{})
	})
	c, _ := newTestClient(t, srv.URL, Config{})

	_, err := c.SendRawTransaction(context.Background(), &model.RawTransaction{})
	var unk *UnknownError
	assert.ErrorAs(t, err, &unk)
}

func TestExplorerEndpoints(t *testing.T) {
	srv, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/explorer/height":
			writeJSON(w, http.StatusOK, model.HeightResponse{Height: 321})
		case "/explorer/overview":
			writeJSON(w, http.StatusOK, model.OverviewResponse{Height: 321, ChainID: 1})
		case "/explorer/account/aa":
			writeJSON(w, http.StatusOK, model.AccountResponse{Address: "aa", Amount: 5_000_000})
		default:
			writeJSON(w, http.StatusNotFound, model.ErrorResponse{Error: "not found"})
		}
	})
	c, _ := newTestClient(t, srv.URL, Config{})
	ctx := context.Background()

	h, err := c.Height(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(321), h)

	ov, err := c.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), ov.ChainID)

	bal, err := c.AccountBalance(ctx, "aa")
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), bal)

	bal, err = c.AccountBalance(ctx, "bb")
	require.NoError(t, err)
	assert.Zero(t, bal)
}
