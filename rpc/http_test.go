package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"yieldchain/core"
	yieldstate "yieldchain/core/state"
	"yieldchain/native/farm"
	"yieldchain/native/ferment"
	"yieldchain/native/params"
	"yieldchain/storage"
)

const testSecret = "rpc-test-secret"

var (
	custody     = common.HexToAddress("0x00000000000000000000000000000000000fa4a1")
	treasury    = common.HexToAddress("0x00000000000000000000000000000000000007e5")
	rewardsPool = common.HexToAddress("0x000000000000000000000000000000000000b0b1")
	alice       = common.HexToAddress("0x00000000000000000000000000000000000000a1")
)

type testEnv struct {
	node   *core.Node
	server *httptest.Server
	token  string
}

func newTestEnv(t *testing.T, limit RateLimit) *testEnv {
	t.Helper()
	node, err := core.NewNode(yieldstate.NewManager(storage.NewMemDB()), core.Options{
		FarmCustody:     custody,
		FarmRewardToken: "BREW",
		FarmStakeToken:  "LP",
		FermentToken:    "BREW",
	})
	require.NoError(t, err)
	require.NoError(t, node.SetSettings(params.Settings{
		Treasury:             treasury,
		RewardsPool:          rewardsPool,
		ClaimTaxBps:          []uint32{1_000},
		ReputationThresholds: []uint64{0},
		AssetCost:            big.NewInt(1_000),
		TreasuryFeeBps:       2_000,
		WalletLimit:          5,
	}))
	require.NoError(t, node.FarmInitialize(&farm.EmissionSchedule{
		PerBlockRate:         big.NewInt(100),
		StartHeight:          100,
		FirstPhaseEndHeight:  200,
		SecondPhaseEndHeight: 300,
		FirstMultiplier:      6,
		SecondMultiplier:     3,
	}))
	require.NoError(t, node.FermentSetParameters(&ferment.Parameters{
		FermentationPeriod:  60,
		ExperiencePerSecond: big.NewInt(1),
	}))
	require.NoError(t, node.FermentAddTier(big.NewInt(0), big.NewInt(86_400)))
	require.NoError(t, node.Credit("BREW", custody, big.NewInt(1_000_000)))
	require.NoError(t, node.Credit("BREW", rewardsPool, big.NewInt(1_000_000)))
	require.NoError(t, node.Credit("LP", alice, big.NewInt(1_000)))

	srv, err := NewServer(node, ServerConfig{
		RateLimit: limit,
		Auth:      AuthConfig{HMACSecret: testSecret, Issuer: "tests"},
	}, nil)
	require.NoError(t, err)
	httpServer := httptest.NewServer(srv.Handler())
	t.Cleanup(httpServer.Close)

	token, err := SignToken(testSecret, "tests", "", time.Minute)
	require.NoError(t, err)
	return &testEnv{node: node, server: httpServer, token: token}
}

func (e *testEnv) call(t *testing.T, token, method string, param interface{}) (int, RPCResponse) {
	t.Helper()
	req := map[string]interface{}{"jsonrpc": "2.0", "id": 1, "method": method}
	if param != nil {
		req["params"] = []interface{}{param}
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	httpReq, err := http.NewRequest(http.MethodPost, e.server.URL+"/", bytes.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(httpReq)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get(requestIDHeader))
	var out RPCResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func decodeResult(t *testing.T, resp RPCResponse, out interface{}) {
	t.Helper()
	require.Nil(t, resp.Error)
	raw, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestHealthAndMetricsEndpoints(t *testing.T) {
	env := newTestEnv(t, RateLimit{RequestsPerSecond: 100, Burst: 100})

	resp, err := env.server.Client().Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", string(body))

	status, _ := env.call(t, "", "yield_head", nil)
	require.Equal(t, http.StatusOK, status)

	resp, err = env.server.Client().Get(env.server.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "yield_rpc_requests_total")
}

func TestMutationsRequireBearerToken(t *testing.T) {
	env := newTestEnv(t, RateLimit{RequestsPerSecond: 100, Burst: 100})

	status, resp := env.call(t, "", "yield_advance", advanceParams{Height: 110, Time: 1_000})
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	forged, err := SignToken("other-secret", "tests", "", time.Minute)
	require.NoError(t, err)
	status, _ = env.call(t, forged, "yield_advance", advanceParams{Height: 110, Time: 1_000})
	require.Equal(t, http.StatusUnauthorized, status)

	wrongIssuer, err := SignToken(testSecret, "intruder", "", time.Minute)
	require.NoError(t, err)
	status, _ = env.call(t, wrongIssuer, "yield_advance", advanceParams{Height: 110, Time: 1_000})
	require.Equal(t, http.StatusUnauthorized, status)

	status, _ = env.call(t, env.token, "yield_advance", advanceParams{Height: 110, Time: 1_000})
	require.Equal(t, http.StatusOK, status)

	// Queries stay open.
	status, resp = env.call(t, "", "yield_head", nil)
	require.Equal(t, http.StatusOK, status)
	var head HeadResult
	decodeResult(t, resp, &head)
	require.Equal(t, HeadResult{Height: 110, Time: 1_000}, head)
}

func TestFarmMethodsRoundTrip(t *testing.T) {
	env := newTestEnv(t, RateLimit{RequestsPerSecond: 100, Burst: 100})
	require.NoError(t, env.node.Advance(110, 1_000))

	status, resp := env.call(t, env.token, "farm_deposit", farmAmountParams{Participant: alice.Hex(), Amount: "10"})
	require.Equal(t, http.StatusOK, status)
	var paid AmountResult
	decodeResult(t, resp, &paid)
	require.Equal(t, "0", paid.Amount)

	require.NoError(t, env.node.Advance(120, 1_010))
	status, resp = env.call(t, "", "farm_getStake", farmStakeParams{Participant: alice.Hex()})
	require.Equal(t, http.StatusOK, status)
	var stake StakeResult
	decodeResult(t, resp, &stake)
	require.Equal(t, "10", stake.Amount)
	require.Equal(t, "6000", stake.Pending)
	require.Equal(t, uint64(120), stake.Height)

	status, resp = env.call(t, "", "farm_getPool", farmHeightParams{Height: 250})
	require.Equal(t, http.StatusOK, status)
	var pool PoolResult
	decodeResult(t, resp, &pool)
	require.Equal(t, uint64(3), pool.Multiplier)
	require.Equal(t, "100", pool.Schedule.PerBlockRate)

	status, resp = env.call(t, env.token, "farm_harvest", farmParticipantParams{Participant: alice.Hex()})
	require.Equal(t, http.StatusOK, status)
	decodeResult(t, resp, &paid)
	require.Equal(t, "6000", paid.Amount)

	status, resp = env.call(t, "", "farm_getPool", farmHeightParams{Height: 115})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	status, resp = env.call(t, env.token, "farm_withdraw", farmAmountParams{Participant: alice.Hex(), Amount: "11"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}

func TestFermentMethodsRoundTrip(t *testing.T) {
	env := newTestEnv(t, RateLimit{RequestsPerSecond: 100, Burst: 100})
	require.NoError(t, env.node.Advance(1, 1_000))

	status, resp := env.call(t, env.token, "ferment_mint", mintParams{Owner: alice.Hex(), Name: "Amber"})
	require.Equal(t, http.StatusOK, status)
	var asset AssetResult
	decodeResult(t, resp, &asset)
	require.Equal(t, "Amber", asset.Name)

	require.NoError(t, env.node.Advance(2, 1_100))
	status, resp = env.call(t, "", "ferment_getAsset", assetQueryParams{ID: asset.ID})
	require.Equal(t, http.StatusOK, status)
	decodeResult(t, resp, &asset)
	require.Equal(t, "100", asset.PendingReward)
	require.Equal(t, "40", asset.PendingXP)

	status, resp = env.call(t, env.token, "ferment_claim", assetCallParams{Caller: alice.Hex(), ID: asset.ID})
	require.Equal(t, http.StatusOK, status)
	var claim ClaimResult
	decodeResult(t, resp, &claim)
	require.Equal(t, "100", claim.Gross)
	require.Equal(t, "10", claim.Tax)
	require.Equal(t, "90", claim.Net)

	status, resp = env.call(t, "", "ferment_getAsset", assetQueryParams{ID: asset.ID + 99})
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeNotFound, resp.Error.Code)

	status, resp = env.call(t, "", "ferment_getParameters", nil)
	require.Equal(t, http.StatusOK, status)
	var p ParametersResult
	decodeResult(t, resp, &p)
	require.Equal(t, uint64(60), p.FermentationPeriod)
	require.False(t, p.TradingEnabled)
}

func TestPausedModuleReturnsServiceUnavailable(t *testing.T) {
	env := newTestEnv(t, RateLimit{RequestsPerSecond: 100, Burst: 100})
	status, _ := env.call(t, env.token, "yield_setPauses", pausesParams{Farm: true})
	require.Equal(t, http.StatusOK, status)

	status, resp := env.call(t, env.token, "farm_deposit", farmAmountParams{Participant: alice.Hex(), Amount: "1"})
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, codeModulePaused, resp.Error.Code)
}

func TestRequestValidation(t *testing.T) {
	env := newTestEnv(t, RateLimit{RequestsPerSecond: 100, Burst: 100})

	status, resp := env.call(t, "", "farm_unknown", nil)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)

	status, resp = env.call(t, "", "farm_getStake", farmStakeParams{Participant: "not-an-address"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	status, resp = env.call(t, env.token, "farm_deposit", farmAmountParams{Participant: alice.Hex(), Amount: "-5"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, codeInvalidParams, resp.Error.Code)

	httpResp, err := env.server.Client().Post(env.server.URL+"/", "application/json", bytes.NewReader([]byte("{")))
	require.NoError(t, err)
	httpResp.Body.Close()
	require.Equal(t, http.StatusBadRequest, httpResp.StatusCode)
}

func TestRateLimiterThrottlesPerClient(t *testing.T) {
	env := newTestEnv(t, RateLimit{RequestsPerSecond: 0.001, Burst: 2})
	for i := 0; i < 2; i++ {
		status, _ := env.call(t, "", "yield_head", nil)
		require.Equal(t, http.StatusOK, status)
	}
	status, resp := env.call(t, "", "yield_head", nil)
	require.Equal(t, http.StatusTooManyRequests, status)
	require.Equal(t, codeRateLimited, resp.Error.Code)
}

func TestRateLimiterDropsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(RateLimit{RequestsPerSecond: 0.001, Burst: 1})
	now := time.Unix(1_000, 0)
	limiter.clockNow = func() time.Time { return now }
	require.True(t, limiter.Allow("10.0.0.1"))
	require.False(t, limiter.Allow("10.0.0.1"))
	require.True(t, limiter.Allow("10.0.0.2"))

	now = now.Add(10 * time.Minute)
	require.True(t, limiter.Allow("10.0.0.1"))
}
