// internal/feed/listener.go
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/gmgn-sniper/internal/events"
	"github.com/rovshanmuradov/gmgn-sniper/internal/filter"
	"github.com/rovshanmuradov/gmgn-sniper/internal/gmgn"
	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/metrics"
)

// SubscribeMessage отправляется сразу после установки соединения.
const SubscribeMessage = `{"method":"subscribeNewToken"}`

// State: состояние слушателя ленты.
type State int32

const (
	StateConnecting State = iota
	StateSubscribed
	StateStreaming
	StateReconnecting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// TokenInfoSource отдает метаданные токена; false означает "пока нет данных".
type TokenInfoSource interface {
	GetTokenInfo(ctx context.Context, address string) (*gmgn.TokenInfo, bool)
}

// Config настраивает соединение с лентой.
type Config struct {
	URL              string
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	PingInterval     time.Duration // 0 отключает ping
	ReadTimeout      time.Duration // 0 отключает read deadline
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
}

// DefaultConfig returns sane keepalive and reconnect settings for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		ReconnectInitial: 1 * time.Second,
		ReconnectMax:     30 * time.Second,
		PingInterval:     30 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Deps: зависимости слушателя.
type Deps struct {
	Info    TokenInfoSource
	Filter  filter.Config
	Buffer  *Buffer
	Events  events.Publisher
	Metrics *metrics.Collector
	Logger  *zap.Logger
}

// Listener держит подписку на ленту новых токенов и наполняет буфер кандидатов.
// Единственный писатель в Buffer.
type Listener struct {
	cfg     Config
	info    TokenInfoSource
	filter  filter.Config
	buffer  *Buffer
	events  events.Publisher
	metrics *metrics.Collector
	logger  *zap.Logger
	dialer  *websocket.Dialer

	state atomic.Int32
}

type feedMessage struct {
	TokenAddress string `json:"token_address"`
}

// NewListener creates a feed listener. Nothing is dialed until Run.
func NewListener(cfg Config, deps Deps) *Listener {
	def := DefaultConfig(cfg.URL)
	if cfg.ReconnectInitial <= 0 {
		cfg.ReconnectInitial = def.ReconnectInitial
	}
	if cfg.ReconnectMax < cfg.ReconnectInitial {
		cfg.ReconnectMax = max(def.ReconnectMax, cfg.ReconnectInitial)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}

	buffer := deps.Buffer
	if buffer == nil {
		buffer = NewBuffer(DefaultCapacity)
	}
	pub := deps.Events
	if pub == nil {
		pub = events.Discard
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Listener{
		cfg:     cfg,
		info:    deps.Info,
		filter:  deps.Filter,
		buffer:  buffer,
		events:  pub,
		metrics: deps.Metrics,
		logger:  logger.Named("feed"),
		dialer:  &websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
	}
	l.state.Store(int32(StateConnecting))
	return l
}

// Buffer returns the candidate buffer the listener writes to.
func (l *Listener) Buffer() *Buffer {
	return l.buffer
}

// State returns the current connection state.
func (l *Listener) State() State {
	return State(l.state.Load())
}

// Run подключается к ленте и обрабатывает сообщения до отмены ctx.
// Обрывы соединения не выходят за пределы Run: слушатель переподключается
// и заново отправляет подписку.
func (l *Listener) Run(ctx context.Context) error {
	defer l.setState(StateStopped)

	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			l.setState(StateReconnecting)
			if !sleepCtx(ctx, l.cfg.ReconnectInitial) {
				return nil
			}
		}

		l.setState(StateConnecting)
		conn, err := l.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			l.logger.Warn("Feed connect gave up, starting over", zap.Error(err))
			l.metrics.FeedReconnect()
			continue
		}

		err = l.stream(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}

		l.logger.Warn("Feed connection lost", zap.Error(err))
		l.metrics.FeedReconnect()
	}
}

// connect дозванивается до ленты с экспоненциальной задержкой и подписывается.
func (l *Listener) connect(ctx context.Context) (*websocket.Conn, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = l.cfg.ReconnectInitial
	policy.MaxInterval = l.cfg.ReconnectMax

	operation := func() (*websocket.Conn, error) {
		conn, _, err := l.dialer.DialContext(ctx, l.cfg.URL, nil)
		if err != nil {
			return nil, fmt.Errorf("dial feed: %w", err)
		}
		if err := l.subscribe(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		return conn, nil
	}

	notify := func(err error, next time.Duration) {
		l.logger.Warn("Feed dial failed, retrying",
			zap.Error(err),
			zap.Duration("backoff", next))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithNotify(notify))
}

func (l *Listener) subscribe(conn *websocket.Conn) error {
	_ = conn.SetWriteDeadline(time.Now().Add(l.cfg.WriteTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(SubscribeMessage)); err != nil {
		return fmt.Errorf("send subscription: %w", err)
	}
	_ = conn.SetWriteDeadline(time.Time{})

	l.setState(StateSubscribed)
	l.logger.Info("Subscribed to new token feed", zap.String("url", l.cfg.URL))
	return nil
}

// stream читает сообщения, пока соединение живо.
func (l *Listener) stream(ctx context.Context, conn *websocket.Conn) error {
	done := make(chan struct{})
	var wg sync.WaitGroup
	defer func() {
		close(done)
		wg.Wait()
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	conn.SetPongHandler(func(string) error {
		l.extendReadDeadline(conn)
		return nil
	})
	l.extendReadDeadline(conn)

	if l.cfg.PingInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.pingLoop(conn, done)
		}()
	}

	l.setState(StateStreaming)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		l.extendReadDeadline(conn)
		l.handleMessage(ctx, msg)
	}
}

func (l *Listener) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(l.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(l.cfg.WriteTimeout)
			if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				l.logger.Debug("Ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (l *Listener) extendReadDeadline(conn *websocket.Conn) {
	if l.cfg.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(l.cfg.ReadTimeout))
	}
}

// handleMessage обрабатывает одно сообщение ленты. Ошибки не выходят наружу.
func (l *Listener) handleMessage(ctx context.Context, raw []byte) {
	var msg feedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		l.logger.Debug("Undecodable feed message", zap.Error(err))
		l.metrics.FeedMessage(metrics.FeedDecodeError)
		return
	}
	if msg.TokenAddress == "" {
		l.metrics.FeedMessage(metrics.FeedNoAddress)
		return
	}

	log := l.logger.With(zap.String("token", msg.TokenAddress))

	info, ok := l.info.GetTokenInfo(ctx, msg.TokenAddress)
	if !ok {
		log.Debug("Token info not available yet")
		l.metrics.FeedMessage(metrics.FeedInfoUnavailable)
		return
	}

	if reason := filter.Evaluate(msg.TokenAddress, info, l.filter); reason != filter.ReasonNone {
		log.Debug("Token filtered", zap.String("reason", string(reason)))
		l.metrics.FeedMessage(metrics.FeedFiltered)
		l.metrics.Filtered(string(reason))
		return
	}

	candidate := Candidate{
		Address:    msg.TokenAddress,
		MarketCap:  info.MarketCap.Float64(),
		Holders:    info.Holders.Int64(),
		Liquidity:  info.Liquidity.Float64(),
		Volume:     info.Volume.Float64(),
		AdmittedAt: time.Now().UTC(),
	}
	evicted := l.buffer.Add(candidate)

	l.metrics.FeedMessage(metrics.FeedAdmitted)
	l.metrics.BufferSize(l.buffer.Len())
	log.Info("Candidate admitted",
		zap.Float64("market_cap", candidate.MarketCap),
		zap.Int64("holders", candidate.Holders),
		zap.Bool("evicted_oldest", evicted))

	if err := l.events.Publish(events.CandidateAdmittedEvent{
		BaseEvent: events.NewBaseEvent(events.CandidateAdmitted),
		Address:   candidate.Address,
		MarketCap: candidate.MarketCap,
		Holders:   candidate.Holders,
		Evicted:   evicted,
	}); err != nil && !errors.Is(err, events.ErrBusClosed) {
		log.Debug("Candidate event dropped", zap.Error(err))
	}
}

func (l *Listener) setState(s State) {
	prev := State(l.state.Swap(int32(s)))
	if prev == s {
		return
	}
	l.logger.Debug("Feed state changed",
		zap.Stringer("from", prev),
		zap.Stringer("to", s))
	_ = l.events.Publish(events.FeedStateChangedEvent{
		BaseEvent: events.NewBaseEvent(events.FeedStateChanged),
		From:      prev.String(),
		To:        s.String(),
	})
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
