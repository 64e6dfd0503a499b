// internal/bot/runner.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/gmgn-sniper/internal/api"
	"github.com/rovshanmuradov/gmgn-sniper/internal/config"
	"github.com/rovshanmuradov/gmgn-sniper/internal/events"
	"github.com/rovshanmuradov/gmgn-sniper/internal/feed"
	"github.com/rovshanmuradov/gmgn-sniper/internal/gmgn"
	"github.com/rovshanmuradov/gmgn-sniper/internal/stats"
	"github.com/rovshanmuradov/gmgn-sniper/internal/swap"
	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/logger"
	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/metrics"
	"github.com/rovshanmuradov/gmgn-sniper/internal/wallet"
)

const (
	eventBufferSize = 256
	busDrainTimeout = 3 * time.Second
)

// Runner собирает компоненты процесса и запускает ленту и HTTP-сервер.
type Runner struct {
	logger *logger.Logger
	config *config.Config
	keyEnv string

	bus          *events.Bus
	listener     *feed.Listener
	orchestrator *swap.Orchestrator
	server       *api.Server
	store        *stats.Store
}

// NewRunner принимает cfg и logger; компоненты создаются в Initialize.
func NewRunner(cfg *config.Config, log *logger.Logger) *Runner {
	return &Runner{
		logger: log,
		config: cfg,
		keyEnv: wallet.DefaultKeyEnv,
	}
}

// Initialize загружает ключ, правила фильтра и связывает компоненты.
// Отсутствие ключа — фатальная ошибка запуска.
func (r *Runner) Initialize() error {
	zl := r.logger.Logger

	w, err := wallet.LoadFromEnv(r.keyEnv)
	if err != nil {
		return fmt.Errorf("load wallet: %w", err)
	}
	encoding, err := wallet.ParseEncoding(r.config.TxEncoding)
	if err != nil {
		return err
	}
	rules, err := config.LoadFilterConfig(r.config.FilterConfig)
	if err != nil {
		return fmt.Errorf("load filter config: %w", err)
	}

	if !r.config.DebugLogging {
		gin.SetMode(gin.ReleaseMode)
	}

	collector := metrics.NewCollector()
	r.bus = events.NewBus(zl, eventBufferSize)
	subscribeJournal(r.bus, r.logger.WithComponent("journal"))

	quotes := gmgn.NewClient(gmgn.Options{
		BaseURL: r.config.GMGNAPIHost,
		Timeout: r.config.RequestTimeout(),
		RPS:     r.config.QuoteRPS,
		Metrics: collector,
	}, zl)

	r.store = stats.NewStore()
	r.orchestrator = swap.NewOrchestrator(swap.Config{
		Quotes:          quotes,
		Signer:          wallet.NewSigner(w, encoding),
		Store:           r.store,
		Events:          r.bus,
		Metrics:         collector,
		Logger:          zl,
		DefaultSlippage: r.config.DefaultSlippage,
	})

	r.listener = feed.NewListener(feed.Config{
		URL:              r.config.FeedURL,
		ReconnectInitial: r.config.ReconnectInitial(),
		ReconnectMax:     r.config.ReconnectMax(),
		PingInterval:     r.config.PingInterval(),
		ReadTimeout:      r.config.ReadTimeout(),
	}, feed.Deps{
		Info:    quotes,
		Filter:  rules,
		Buffer:  feed.NewBuffer(feed.DefaultCapacity),
		Events:  r.bus,
		Metrics: collector,
		Logger:  zl,
	})

	r.server = api.NewServer(api.Config{
		Addr:        r.config.ListenAddr,
		SwapTimeout: 3 * r.config.RequestTimeout(),
		Swapper:     r.orchestrator,
		Candidates:  r.listener.Buffer(),
		Stats:       r.store,
		Feed:        r.listener,
		Metrics:     collector,
		Logger:      zl,
	})

	r.logger.Info("🔑 Wallet loaded", zap.String("address", w.Address()))
	r.logger.Info("📋 Filter rules loaded",
		zap.Int("blacklisted_tokens", len(rules.BlacklistedTokens)),
		zap.Int("blacklisted_devs", len(rules.BlacklistedDevs)),
		zap.Float64("min_market_cap", rules.MarketCap.Min),
		zap.Float64("max_market_cap", rules.MarketCap.Max),
		zap.Float64("min_holders", rules.Holders.Min),
		zap.Float64("max_holders", rules.Holders.Max))
	return nil
}

// Run запускает ленту и HTTP-сервер и ждет отмены ctx.
func (r *Runner) Run(ctx context.Context) error {
	if r.listener == nil || r.server == nil {
		return errors.New("runner is not initialized")
	}

	r.logger.Info("🚀 Starting sniper",
		zap.String("feed", r.config.FeedURL),
		zap.String("listen", r.config.ListenAddr))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.listener.Run(gctx) })
	g.Go(func() error { return r.server.Run(gctx) })
	err := g.Wait()

	r.shutdown()
	return err
}

func (r *Runner) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), busDrainTimeout)
	defer cancel()
	if err := r.bus.Shutdown(ctx); err != nil {
		r.logger.LogError("Event bus did not drain", err)
	}

	snap := r.store.Snapshot()
	r.logger.Info("👋 Sniper stopped",
		zap.Int("trades", snap.TradeCount),
		zap.Float64("spent_sol", snap.SpentSol),
		zap.Float64("profit_sol", snap.ProfitSol))
}
