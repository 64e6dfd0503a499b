// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/gmgn-sniper/internal/feed"
	"github.com/rovshanmuradov/gmgn-sniper/internal/stats"
	"github.com/rovshanmuradov/gmgn-sniper/internal/swap"
	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/metrics"
)

const shutdownTimeout = 5 * time.Second

// Swapper: операции, запускаемые оператором.
type Swapper interface {
	ExecuteSwap(ctx context.Context, req swap.Request) swap.Outcome
	SellAll(ctx context.Context) string
}

type CandidateSource interface {
	Snapshot() []feed.Candidate
}

type StatsSource interface {
	Snapshot() stats.Snapshot
}

type FeedStatus interface {
	State() feed.State
}

// Config настраивает HTTP-сервер.
type Config struct {
	Addr        string
	SwapTimeout time.Duration // 0 = без ограничения
	Swapper     Swapper
	Candidates  CandidateSource
	Stats       StatsSource
	Feed        FeedStatus
	Metrics     *metrics.Collector
	Logger      *zap.Logger
}

// Server: HTTP-интерфейс оператора: запуск свопов и просмотр состояния.
// Состояние читается только через снимки.
type Server struct {
	cfg    Config
	engine *gin.Engine
	logger *zap.Logger
}

func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		cfg:    cfg,
		engine: gin.New(),
		logger: logger.Named("api"),
	}
	s.routes()
	return s
}

// Handler returns the router, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.Use(gin.Recovery(), s.requestLogger())

	s.engine.POST("/swap", s.handleSwap)
	s.engine.POST("/sell_all", s.handleSellAll)
	s.engine.GET("/", s.handleState)
	s.engine.GET("/api/state", s.handleState)
	s.engine.GET("/healthz", s.handleHealth)

	if s.cfg.Metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

type swapRequest struct {
	InputToken  string   `json:"input_token" binding:"required"`
	OutputToken string   `json:"output_token" binding:"required"`
	Amount      Lamports `json:"amount"`
	Slippage    float64  `json:"slippage"`
}

func (s *Server) handleSwap(c *gin.Context) {
	var req swapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Amount == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a positive number of lamports"})
		return
	}
	if req.Slippage < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "slippage must not be negative"})
		return
	}

	// Запущенный своп доводится до конца даже при обрыве клиента.
	ctx := context.WithoutCancel(c.Request.Context())
	if s.cfg.SwapTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SwapTimeout)
		defer cancel()
	}

	out := s.cfg.Swapper.ExecuteSwap(ctx, swap.Request{
		InputToken:     req.InputToken,
		OutputToken:    req.OutputToken,
		AmountLamports: uint64(req.Amount),
		SlippagePct:    req.Slippage,
	})
	c.JSON(http.StatusOK, gin.H{"result": out.Message})
}

func (s *Server) handleSellAll(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"result": s.cfg.Swapper.SellAll(c.Request.Context())})
}

type stateResponse struct {
	Tokens  []feed.Candidate `json:"tokens"`
	Stats   stats.Snapshot   `json:"stats"`
	WinRate float64          `json:"win_rate"` // проценты
}

func (s *Server) handleState(c *gin.Context) {
	snap := s.cfg.Stats.Snapshot()
	c.JSON(http.StatusOK, stateResponse{
		Tokens:  s.cfg.Candidates.Snapshot(),
		Stats:   snap,
		WinRate: snap.WinRate * 100,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	state := "unknown"
	if s.cfg.Feed != nil {
		state = s.cfg.Feed.State().String()
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "feed": state})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
