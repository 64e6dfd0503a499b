// internal/swap/orchestrator.go
package swap

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/gmgn-sniper/internal/events"
	"github.com/rovshanmuradov/gmgn-sniper/internal/gmgn"
	"github.com/rovshanmuradov/gmgn-sniper/internal/stats"
	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/metrics"
)

const (
	// DefaultSlippagePct используется, если запрос не задаёт проскальзывание.
	DefaultSlippagePct = 0.5

	SellAllAck = "all positions sold (stub)"

	msgNoRoute = "failed to get swap route"
)

// QuoteService: часть клиента GMGN, нужная оркестратору.
type QuoteService interface {
	GetSwapRoute(ctx context.Context, p gmgn.RouteParams) (*gmgn.RouteQuote, bool)
	SubmitSignedTransaction(ctx context.Context, signedTx string) (*gmgn.SubmitResult, bool)
}

// Signer подписывает неподписанную транзакцию маршрута.
type Signer interface {
	Address() string
	SignAndEncode(rawTx string) (string, error)
}

// Request: параметры одного свопа.
type Request struct {
	InputToken     string
	OutputToken    string
	AmountLamports uint64
	SlippagePct    float64 // 0 = значение по умолчанию
}

// Outcome: результат одного вызова ExecuteSwap.
type Outcome struct {
	SubmittedOK bool
	ProfitSol   float64
	Raw         json.RawMessage
	TradeID     string
	Message     string
	Err         error
}

// Config настраивает оркестратор.
type Config struct {
	Quotes          QuoteService
	Signer          Signer
	Store           *stats.Store
	Events          events.Publisher
	Metrics         *metrics.Collector
	Logger          *zap.Logger
	DefaultSlippage float64
}

// Orchestrator выполняет свопы по внешнему запросу и ведёт статистику.
// Единственный владелец изменений в stats.Store.
type Orchestrator struct {
	quotes   QuoteService
	signer   Signer
	store    *stats.Store
	events   events.Publisher
	metrics  *metrics.Collector
	logger   *zap.Logger
	slippage float64
}

// NewOrchestrator создает оркестратор свопов.
func NewOrchestrator(cfg Config) *Orchestrator {
	pub := cfg.Events
	if pub == nil {
		pub = events.Discard
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	slippage := cfg.DefaultSlippage
	if slippage <= 0 {
		slippage = DefaultSlippagePct
	}
	return &Orchestrator{
		quotes:   cfg.Quotes,
		signer:   cfg.Signer,
		store:    cfg.Store,
		events:   pub,
		metrics:  cfg.Metrics,
		logger:   logger.Named("swap"),
		slippage: slippage,
	}
}

// ExecuteSwap получает маршрут, подписывает и отправляет транзакцию.
// Ошибки не возвращаются: результат всегда описан в Outcome.Message.
// Статистика обновляется при любой попытке отправки, даже если
// сервис вернул пустой ответ.
func (o *Orchestrator) ExecuteSwap(ctx context.Context, req Request) Outcome {
	slippage := req.SlippagePct
	if slippage <= 0 {
		slippage = o.slippage
	}

	log := o.logger.With(
		zap.String("correlation_id", uuid.New().String()),
		zap.String("input_token", req.InputToken),
		zap.String("output_token", req.OutputToken),
		zap.Uint64("amount_lamports", req.AmountLamports),
		zap.Float64("slippage", slippage),
	)

	route, ok := o.quotes.GetSwapRoute(ctx, gmgn.RouteParams{
		InputToken:     req.InputToken,
		OutputToken:    req.OutputToken,
		AmountLamports: req.AmountLamports,
		FromAddress:    o.signer.Address(),
		SlippagePct:    slippage,
	})
	if !ok {
		log.Warn("No swap route")
		o.metrics.Swap(metrics.SwapNoRoute)
		o.publishFailure(req, "route", nil)
		return Outcome{Message: msgNoRoute}
	}

	signed, err := o.signer.SignAndEncode(route.UnsignedTransaction())
	if err != nil {
		log.Error("Failed to sign swap transaction", zap.Error(err))
		o.metrics.Swap(metrics.SwapMalformed)
		o.publishFailure(req, "sign", err)
		return Outcome{
			Message: fmt.Sprintf("failed to sign swap transaction: %v", err),
			Err:     err,
		}
	}

	result, submitted := o.quotes.SubmitSignedTransaction(ctx, signed)
	profit := result.ProfitSol()

	trade := o.store.RecordSubmission(req.InputToken, req.OutputToken, req.AmountLamports, profit)
	o.metrics.Totals(o.store.SpentSol(), o.store.ProfitSol())

	raw := json.RawMessage("{}")
	if submitted && len(result.Raw) > 0 {
		raw = result.Raw
		o.metrics.Swap(metrics.SwapSubmitted)
	} else {
		o.metrics.Swap(metrics.SwapRejected)
	}

	log.Info("Swap submitted",
		zap.String("trade_id", trade.ID),
		zap.Bool("accepted", submitted),
		zap.Float64("profit_sol", profit))

	_ = o.events.Publish(events.SwapSubmittedEvent{
		BaseEvent:   events.NewBaseEvent(events.SwapSubmitted),
		TradeID:     trade.ID,
		InputToken:  req.InputToken,
		OutputToken: req.OutputToken,
		AmountSol:   trade.AmountSol,
		ProfitSol:   profit,
		Accepted:    submitted,
	})

	return Outcome{
		SubmittedOK: submitted,
		ProfitSol:   profit,
		Raw:         raw,
		TradeID:     trade.ID,
		Message:     "swap result: " + indent(raw),
	}
}

// SellAll: заглушка: ничего не продаёт и возвращает фиксированный ответ.
func (o *Orchestrator) SellAll(_ context.Context) string {
	o.logger.Info("Sell all requested (no-op)")
	return SellAllAck
}

func (o *Orchestrator) publishFailure(req Request, stage string, err error) {
	_ = o.events.Publish(events.SwapFailedEvent{
		BaseEvent:   events.NewBaseEvent(events.SwapFailed),
		InputToken:  req.InputToken,
		OutputToken: req.OutputToken,
		Stage:       stage,
		Error:       err,
	})
}

func indent(raw json.RawMessage) string {
	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}
