package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/wallet-service/dto"
	whttp "github.com/radieske/p2p-wager-platform-poc/internal/wallet-service/http"
	"github.com/radieske/p2p-wager-platform-poc/internal/wallet-service/repo"
)

// fakeRepo guarda carteiras em memória para os testes de handler
type fakeRepo struct {
	balances map[string]int64
	ledger   map[string][]repo.LedgerEntry
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{balances: map[string]int64{}, ledger: map[string][]repo.LedgerEntry{}}
}

func (f *fakeRepo) GetOrCreateWallet(_ context.Context, userID string) (string, int64, error) {
	if _, ok := f.balances[userID]; !ok {
		f.balances[userID] = 0
	}
	return "w-" + userID, f.balances[userID], nil
}

func (f *fakeRepo) Deposit(_ context.Context, userID string, amount int64, _ string) (string, int64, error) {
	if _, ok := f.balances[userID]; !ok {
		return "", 0, repo.ErrNotFound
	}
	f.balances[userID] += amount
	f.ledger[userID] = append(f.ledger[userID], repo.LedgerEntry{
		OperationType: "DEPOSIT",
		AmountCents:   amount,
		Description:   "deposito externo",
		CreatedAt:     time.Now(),
	})
	return "w-" + userID, f.balances[userID], nil
}

func (f *fakeRepo) History(_ context.Context, userID string, _ int) ([]repo.LedgerEntry, error) {
	return f.ledger[userID], nil
}

func newWalletServer(t *testing.T) (*httptest.Server, *fakeRepo) {
	t.Helper()
	fr := newFakeRepo()
	srv := httptest.NewServer(whttp.NewServer(zap.NewNop(), fr).Router())
	t.Cleanup(srv.Close)
	return srv, fr
}

func TestGetWallet_CreatesOnFirstRead(t *testing.T) {
	srv, _ := newWalletServer(t)

	resp, err := http.Get(srv.URL + "/wallet?userId=alice")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.WalletResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "alice", out.UserID)
	assert.Equal(t, "w-alice", out.WalletID)
	assert.Equal(t, int64(0), out.BalanceCents)
}

func TestGetWallet_RequiresUserID(t *testing.T) {
	srv, _ := newWalletServer(t)

	resp, err := http.Get(srv.URL + "/wallet")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeposit(t *testing.T) {
	srv, fr := newWalletServer(t)

	body, _ := json.Marshal(dto.DepositRequest{UserID: "bob", AmountCents: 500})
	resp, err := http.Post(srv.URL+"/wallet/deposit", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out dto.WalletResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, int64(500), out.BalanceCents)
	assert.Equal(t, int64(500), fr.balances["bob"])
	require.Len(t, fr.ledger["bob"], 1)
	assert.Equal(t, "DEPOSIT", fr.ledger["bob"][0].OperationType)
}

func TestDeposit_InvalidPayload(t *testing.T) {
	srv, _ := newWalletServer(t)

	for _, req := range []dto.DepositRequest{
		{UserID: "", AmountCents: 100},
		{UserID: "bob", AmountCents: 0},
		{UserID: "bob", AmountCents: -5},
	} {
		body, _ := json.Marshal(req)
		resp, err := http.Post(srv.URL+"/wallet/deposit", "application/json", bytes.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, fmt.Sprintf("%+v", req))
	}
}

func TestHistory(t *testing.T) {
	srv, fr := newWalletServer(t)
	fr.balances["carol"] = 0
	fr.ledger["carol"] = []repo.LedgerEntry{
		{OperationType: "DEPOSIT", AmountCents: 100, CreatedAt: time.Now()},
		{OperationType: "WAGER_ESCROW", AmountCents: -100, CreatedAt: time.Now()},
	}

	resp, err := http.Get(srv.URL + "/wallet/history?userId=carol")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out []dto.LedgerEntryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.Len(t, out, 2)
	assert.Equal(t, "WAGER_ESCROW", out[1].OperationType)
	assert.Equal(t, int64(-100), out[1].AmountCents)
}
