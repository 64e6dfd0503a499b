package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/gmgn-sniper/internal/feed"
	"github.com/rovshanmuradov/gmgn-sniper/internal/stats"
	"github.com/rovshanmuradov/gmgn-sniper/internal/swap"
	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSwapper struct {
	mu       sync.Mutex
	requests []swap.Request
	ctxErr   error
}

func (f *fakeSwapper) ExecuteSwap(ctx context.Context, req swap.Request) swap.Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	f.ctxErr = ctx.Err()
	return swap.Outcome{SubmittedOK: true, Message: "swap result: {}"}
}

func (f *fakeSwapper) SellAll(context.Context) string { return swap.SellAllAck }

type fixedFeed feed.State

func (f fixedFeed) State() feed.State { return feed.State(f) }

type testEnv struct {
	server  *Server
	swapper *fakeSwapper
	buffer  *feed.Buffer
	store   *stats.Store
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		swapper: &fakeSwapper{},
		buffer:  feed.NewBuffer(feed.DefaultCapacity),
		store:   stats.NewStore(),
	}
	env.server = NewServer(Config{
		Swapper:    env.swapper,
		Candidates: env.buffer,
		Stats:      env.store,
		Feed:       fixedFeed(feed.StateStreaming),
		Metrics:    metrics.NewCollector(),
		Logger:     zaptest.NewLogger(t),
	})
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestSwapEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/swap",
		`{"input_token":"SOL","output_token":"Mint","amount":"1000000000","slippage":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "swap result: {}", decode(t, rec)["result"])

	rec = env.do(http.MethodPost, "/swap", `{"input_token":"SOL","output_token":"Mint","amount":250}`)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, env.swapper.requests, 2)
	assert.Equal(t, swap.Request{
		InputToken: "SOL", OutputToken: "Mint", AmountLamports: 1_000_000_000, SlippagePct: 1,
	}, env.swapper.requests[0])
	assert.Equal(t, uint64(250), env.swapper.requests[1].AmountLamports)
	assert.Zero(t, env.swapper.requests[1].SlippagePct)
	assert.NoError(t, env.swapper.ctxErr)
}

func TestSwapEndpointRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)

	bodies := map[string]string{
		"not json":       `{oops`,
		"missing token":  `{"input_token":"SOL","amount":"1"}`,
		"zero amount":    `{"input_token":"SOL","output_token":"Mint","amount":"0"}`,
		"decimal amount": `{"input_token":"SOL","output_token":"Mint","amount":"1.5"}`,
		"negative":       `{"input_token":"SOL","output_token":"Mint","amount":-5}`,
		"bad slippage":   `{"input_token":"SOL","output_token":"Mint","amount":1,"slippage":-1}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/swap", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode(t, rec), "error")
		})
	}
	assert.Empty(t, env.swapper.requests)
}

func TestSellAllEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/sell_all", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, swap.SellAllAck, decode(t, rec)["result"])
}

func TestStateEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.buffer.Add(feed.Candidate{Address: "GoodMint", MarketCap: 50_000, Holders: 200})
	env.store.RecordSubmission("SOL", "GoodMint", 500_000_000, 0.1)
	env.store.RecordSubmission("SOL", "GoodMint", 500_000_000, -0.2)

	for _, path := range []string{"/", "/api/state"} {
		rec := env.do(http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		var body stateResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Tokens, 1)
		assert.Equal(t, "GoodMint", body.Tokens[0].Address)
		assert.Equal(t, 1.0, body.Stats.SpentSol)
		assert.Len(t, body.Stats.Trades, 2)
		assert.Equal(t, 50.0, body.WinRate)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "streaming", decode(t, rec)["feed"])

	rec = env.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gmgn_sniper_feed_reconnects_total")
}

func TestLamportsUnmarshal(t *testing.T) {
	var l Lamports
	require.NoError(t, json.Unmarshal([]byte(`"42"`), &l))
	assert.Equal(t, Lamports(42), l)

	require.NoError(t, json.Unmarshal([]byte(`7`), &l))
	assert.Equal(t, Lamports(7), l)

	require.NoError(t, json.Unmarshal([]byte(`null`), &l))
	assert.Zero(t, l)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &l))
	assert.Error(t, json.Unmarshal([]byte(`true`), &l))
}

func TestRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	env.server.cfg.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- env.server.Run(ctx) }()

	cancel()
	assert.NoError(t, <-errCh)
}
