package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/dto"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/engine"
	whttp "github.com/radieske/p2p-wager-platform-poc/internal/wager-service/http"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/rng"
	"github.com/radieske/p2p-wager-platform-poc/internal/wager-service/store"
	"github.com/radieske/p2p-wager-platform-poc/pkg/contracts/events"
)

const adminToken = "test-admin-token"

type noopPublisher struct{}

func (noopPublisher) PublishWagerCreated(context.Context, events.WagerCreated) error     { return nil }
func (noopPublisher) PublishWagerMatched(context.Context, events.WagerMatched) error     { return nil }
func (noopPublisher) PublishWagerResolved(context.Context, events.WagerResolved) error   { return nil }
func (noopPublisher) PublishWagerCancelled(context.Context, events.WagerCancelled) error { return nil }
func (noopPublisher) PublishFeesWithdrawn(context.Context, events.FeesWithdrawn) error   { return nil }
func (noopPublisher) PublishCollectorChanged(context.Context, events.CollectorChanged) error {
	return nil
}
func (noopPublisher) PublishRandomnessRequested(context.Context, events.RandomnessRequested) error {
	return nil
}

// palavra fixa par: com palpite EVEN o criador sempre ganha
type evenSource struct{}

func (evenSource) Obtain(context.Context, *store.Wager, string) (rng.Draw, error) {
	return rng.Draw{Word: 2}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	eng := engine.New(zap.NewNop(), mem, evenSource{}, nil, noopPublisher{}, engine.Config{FeeBps: 200})
	srv := httptest.NewServer(whttp.NewServer(zap.NewNop(), eng, adminToken).Router())
	t.Cleanup(srv.Close)
	return srv, mem
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(b))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestCreateMatchFlow(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()
	mem.Deposit(ctx, "alice", 100)
	mem.Deposit(ctx, "bob", 100)

	resp := postJSON(t, srv.URL+"/wagers", dto.CreateWagerRequest{
		UserID: "alice", Choice: store.ChoiceEven, StakeCents: 100,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	created := decode[dto.WagerResponse](t, resp)
	assert.Equal(t, int64(1), created.WagerID)
	assert.Equal(t, store.StatusPending, created.Status)

	resp = postJSON(t, fmt.Sprintf("%s/wagers/%d/match", srv.URL, created.WagerID), dto.MatchWagerRequest{
		UserID: "bob", StakeCents: 100,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	matched := decode[dto.WagerResponse](t, resp)
	assert.Equal(t, store.StatusResolved, matched.Status)
	assert.Equal(t, "alice", matched.Winner)

	// leitura por id reflete o estado final
	getResp, err := http.Get(fmt.Sprintf("%s/wagers/%d", srv.URL, created.WagerID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	got := decode[dto.WagerResponse](t, getResp)
	assert.Equal(t, "bob", got.Counterparty)
}

func TestCreateWager_BadRequests(t *testing.T) {
	srv, mem := newTestServer(t)
	mem.Deposit(context.Background(), "alice", 100)

	resp := postJSON(t, srv.URL+"/wagers", dto.CreateWagerRequest{UserID: "alice", Choice: "PRIME", StakeCents: 100}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/wagers", dto.CreateWagerRequest{UserID: "alice", Choice: store.ChoiceEven, StakeCents: 0}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/wagers", dto.CreateWagerRequest{Choice: store.ChoiceEven, StakeCents: 100}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestMatchWager_ErrorStatuses(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()
	mem.Deposit(ctx, "alice", 100)
	mem.Deposit(ctx, "bob", 100)

	// id inexistente
	resp := postJSON(t, srv.URL+"/wagers/99/match", dto.MatchWagerRequest{UserID: "bob", StakeCents: 100}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/wagers", dto.CreateWagerRequest{UserID: "alice", Choice: store.ChoiceEven, StakeCents: 100}, nil)
	created := decode[dto.WagerResponse](t, resp)

	// valor diferente do stake
	resp = postJSON(t, fmt.Sprintf("%s/wagers/%d/match", srv.URL, created.WagerID), dto.MatchWagerRequest{UserID: "bob", StakeCents: 50}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// criador casando consigo mesmo
	resp = postJSON(t, fmt.Sprintf("%s/wagers/%d/match", srv.URL, created.WagerID), dto.MatchWagerRequest{UserID: "alice", StakeCents: 100}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestCancelWager(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()
	mem.Deposit(ctx, "alice", 100)

	resp := postJSON(t, srv.URL+"/wagers", dto.CreateWagerRequest{UserID: "alice", Choice: store.ChoiceOdd, StakeCents: 100}, nil)
	created := decode[dto.WagerResponse](t, resp)

	// só o criador cancela
	resp = postJSON(t, fmt.Sprintf("%s/wagers/%d/cancel", srv.URL, created.WagerID), dto.CancelWagerRequest{UserID: "bob"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, fmt.Sprintf("%s/wagers/%d/cancel", srv.URL, created.WagerID), dto.CancelWagerRequest{UserID: "alice"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	cancelled := decode[dto.WagerResponse](t, resp)
	assert.Equal(t, store.StatusCancelled, cancelled.Status)
	assert.Equal(t, int64(100), mem.Balance(ctx, "alice"))
}

func TestAdmin_RequiresToken(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/admin/collector", dto.SetCollectorRequest{Collector: "treasury"}, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/admin/fees/withdraw", struct{}{}, map[string]string{"X-Admin-Token": "errado"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestAdmin_FeeWithdrawal(t *testing.T) {
	srv, mem := newTestServer(t)
	ctx := context.Background()
	mem.Deposit(ctx, "alice", 100)
	mem.Deposit(ctx, "bob", 100)

	auth := map[string]string{"X-Admin-Token": adminToken}

	resp := postJSON(t, srv.URL+"/admin/collector", dto.SetCollectorRequest{Collector: "treasury"}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// sem taxas acumuladas: 409
	resp = postJSON(t, srv.URL+"/admin/fees/withdraw", struct{}{}, auth)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/wagers", dto.CreateWagerRequest{UserID: "alice", Choice: store.ChoiceEven, StakeCents: 100}, nil)
	created := decode[dto.WagerResponse](t, resp)
	resp = postJSON(t, fmt.Sprintf("%s/wagers/%d/match", srv.URL, created.WagerID), dto.MatchWagerRequest{UserID: "bob", StakeCents: 100}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/admin/fees/withdraw", struct{}{}, auth)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.WithdrawFeesResponse](t, resp)
	assert.Equal(t, "treasury", out.Collector)
	assert.Equal(t, int64(4), out.AmountCents)

	// acumulador zerado após o saque
	getResp, err := http.Get(srv.URL + "/platform")
	require.NoError(t, err)
	platform := decode[dto.PlatformResponse](t, getResp)
	assert.Equal(t, int64(0), platform.AccruedFeesCents)
	assert.Equal(t, int64(1), platform.WagerCount)
}
