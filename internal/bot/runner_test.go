package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/gmgn-sniper/internal/config"
	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/logger"
	"github.com/rovshanmuradov/gmgn-sniper/internal/wallet"
)

const testKeyEnv = "TEST_RUNNER_PRIVATE_KEY"

func newTestRunner(t *testing.T, gmgnURL, feedURL string) *Runner {
	t.Helper()
	cfg := &config.Config{
		GMGNAPIHost:        gmgnURL,
		FeedURL:            feedURL,
		ListenAddr:         "127.0.0.1:0",
		RequestTimeoutMs:   2000,
		TxEncoding:         "base64",
		DefaultSlippage:    config.DefaultSlippage,
		FilterConfig:       filepath.Join(t.TempDir(), "config.json"),
		ReconnectInitialMs: 10,
		ReconnectMaxMs:     50,
		ReadTimeoutMs:      5000,
	}
	r := NewRunner(cfg, &logger.Logger{Logger: zaptest.NewLogger(t)})
	r.keyEnv = testKeyEnv
	return r
}

func TestInitializeRequiresPrivateKey(t *testing.T) {
	t.Setenv(testKeyEnv, "")
	r := newTestRunner(t, "http://127.0.0.1:1", "ws://127.0.0.1:1")

	err := r.Initialize()
	assert.ErrorIs(t, err, wallet.ErrMissingPrivateKey)
}

func TestRunnerAdmitsCandidateFromFeed(t *testing.T) {
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	t.Setenv(testKeyEnv, key.String())

	gmgnServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"address":"GoodMint","market_cap":50000,"holders":200}}`))
	}))
	defer gmgnServer.Close()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"token_address":"GoodMint"}`))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer feedServer.Close()

	r := newTestRunner(t, gmgnServer.URL, "ws"+strings.TrimPrefix(feedServer.URL, "http"))
	require.NoError(t, r.Initialize())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return r.listener.Buffer().Len() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "GoodMint", r.listener.Buffer().Snapshot()[0].Address)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Zero(t, r.store.TradeCount())
}

func TestRunWithoutInitialize(t *testing.T) {
	r := newTestRunner(t, "http://127.0.0.1:1", "ws://127.0.0.1:1")
	assert.Error(t, r.Run(context.Background()))
}
