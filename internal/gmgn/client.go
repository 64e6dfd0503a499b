// internal/gmgn/client.go
package gmgn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/ratelimit"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/gmgn-sniper/internal/utils/metrics"
)

const (
	DefaultBaseURL = "https://gmgn.ai"
	DefaultTimeout = 10 * time.Second

	tokenInfoPath = "/defi/router/v1/sol/token_info"
	swapRoutePath = "/defi/router/v1/sol/tx/get_swap_route"
	submitPath    = "/defi/router/v1/sol/tx/submit_signed_transaction"

	// ограничение на размер читаемого ответа
	maxBodySize = 4 << 20
)

// Имена эндпоинтов для метрик
const (
	EndpointTokenInfo = "token_info"
	EndpointSwapRoute = "get_swap_route"
	EndpointSubmit    = "submit_signed_transaction"
)

// Options настраивает клиент.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RPS        int // 0 = без ограничения
	HTTPClient *http.Client
	Metrics    *metrics.Collector
}

// Client — клиент GMGN router API. Каждый вызов выполняется ровно один раз;
// любая ошибка превращается в пустой результат (nil, false).
type Client struct {
	baseURL string
	http    *http.Client
	limiter ratelimit.Limiter
	metrics *metrics.Collector
	logger  *zap.Logger
}

// NewClient создает новый клиент GMGN.
func NewClient(opts Options, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limiter := ratelimit.NewUnlimited()
	if opts.RPS > 0 {
		limiter = ratelimit.New(opts.RPS)
	}

	return &Client{
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		metrics: opts.Metrics,
		logger:  logger.Named("gmgn"),
	}
}

// GetTokenInfo получает метаданные токена.
func (c *Client) GetTokenInfo(ctx context.Context, address string) (*TokenInfo, bool) {
	q := url.Values{}
	q.Set("token_address", address)

	body, ok := c.do(ctx, EndpointTokenInfo, http.MethodGet, c.baseURL+tokenInfoPath+"?"+q.Encode(), nil)
	if !ok {
		return nil, false
	}

	var envelope tokenInfoEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil {
		return envelope.Data, true
	}

	var info TokenInfo
	if err := json.Unmarshal(body, &info); err != nil {
		c.logger.Debug("token_info decode failed",
			zap.String("token", address),
			zap.Error(err))
		return nil, false
	}
	return &info, true
}

// GetSwapRoute запрашивает маршрут свопа с неподписанной транзакцией.
// Ответ без data или без транзакции считается пустым.
func (c *Client) GetSwapRoute(ctx context.Context, p RouteParams) (*RouteQuote, bool) {
	q := url.Values{}
	q.Set("token_in_address", p.InputToken)
	q.Set("token_out_address", p.OutputToken)
	q.Set("in_amount", strconv.FormatUint(p.AmountLamports, 10))
	q.Set("from_address", p.FromAddress)
	q.Set("slippage", strconv.FormatFloat(p.SlippagePct, 'f', -1, 64))

	body, ok := c.do(ctx, EndpointSwapRoute, http.MethodGet, c.baseURL+swapRoutePath+"?"+q.Encode(), nil)
	if !ok {
		return nil, false
	}

	var quote RouteQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		c.logger.Debug("swap route decode failed", zap.Error(err))
		return nil, false
	}
	if quote.UnsignedTransaction() == "" {
		c.logger.Warn("swap route has no transaction",
			zap.Int("code", quote.Code),
			zap.String("msg", quote.Msg))
		return nil, false
	}
	return &quote, true
}

type submitRequest struct {
	SignedTx string `json:"signed_tx"`
}

// SubmitSignedTransaction отправляет подписанную транзакцию.
func (c *Client) SubmitSignedTransaction(ctx context.Context, signedTx string) (*SubmitResult, bool) {
	payload, err := json.Marshal(submitRequest{SignedTx: signedTx})
	if err != nil {
		return nil, false
	}

	body, ok := c.do(ctx, EndpointSubmit, http.MethodPost, c.baseURL+submitPath, payload)
	if !ok {
		return nil, false
	}

	result := &SubmitResult{Raw: json.RawMessage(body)}
	if err := json.Unmarshal(body, result); err != nil {
		c.logger.Debug("submit result decode failed", zap.Error(err))
		return nil, false
	}
	return result, true
}

// do выполняет один HTTP-запрос и возвращает тело успешного ответа.
func (c *Client) do(ctx context.Context, endpoint, method, rawURL string, payload []byte) ([]byte, bool) {
	c.limiter.Take()
	start := time.Now()

	body, err := c.roundTrip(ctx, method, rawURL, payload)
	c.metrics.ObserveQuote(endpoint, err == nil, time.Since(start))
	if err != nil {
		c.logger.Debug("gmgn request failed",
			zap.String("endpoint", endpoint),
			zap.Error(err))
		return nil, false
	}
	return body, true
}

func (c *Client) roundTrip(ctx context.Context, method, rawURL string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, truncate(body, 256))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
