// internal/gmgn/types.go
package gmgn

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Number принимает JSON-число, числовую строку или null.
// Отсутствующее или нечитаемое значение даёт 0.
type Number float64

// UnmarshalJSON реализует json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*n = 0
			return nil
		}
		*n = Number(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*n = Number(f)
	return nil
}

// Float64 возвращает значение как float64.
func (n Number) Float64() float64 { return float64(n) }

// Int64 возвращает значение, отбрасывая дробную часть.
func (n Number) Int64() int64 { return int64(n) }

// TokenInfo: метаданные токена из token_info.
// Все поля необязательны; отсутствующие числа равны нулю.
type TokenInfo struct {
	Address    string `json:"address"`
	Symbol     string `json:"symbol"`
	Name       string `json:"name"`
	DevAddress string `json:"dev_address"`
	MarketCap  Number `json:"market_cap"`
	Holders    Number `json:"holders"`
	Liquidity  Number `json:"liquidity"`
	Volume     Number `json:"volume"`
}

// tokenInfoEnvelope covers responses that wrap the payload in "data".
type tokenInfoEnvelope struct {
	Data *TokenInfo `json:"data"`
}

// RouteParams описывает запрос маршрута свопа.
type RouteParams struct {
	InputToken     string
	OutputToken    string
	AmountLamports uint64
	FromAddress    string
	SlippagePct    float64
}

// RawTx содержит неподписанную транзакцию маршрута.
type RawTx struct {
	SwapTransaction           string `json:"swapTransaction"`
	LastValidBlockHeight      uint64 `json:"lastValidBlockHeight,omitempty"`
	PrioritizationFeeLamports uint64 `json:"prioritizationFeeLamports,omitempty"`
}

// RouteData is the "data" object of a swap route response.
type RouteData struct {
	Quote json.RawMessage `json:"quote,omitempty"`
	RawTx RawTx           `json:"raw_tx"`
}

// RouteQuote: ответ get_swap_route.
type RouteQuote struct {
	Code int        `json:"code"`
	Msg  string     `json:"msg"`
	Data *RouteData `json:"data"`
}

// UnsignedTransaction возвращает закодированную неподписанную транзакцию.
func (q *RouteQuote) UnsignedTransaction() string {
	if q == nil || q.Data == nil {
		return ""
	}
	return q.Data.RawTx.SwapTransaction
}

// SubmitResult: ответ submit_signed_transaction.
// Raw хранит тело ответа без изменений.
type SubmitResult struct {
	Raw    json.RawMessage `json:"-"`
	Profit *Number         `json:"profit"`
}

// ProfitSol returns the reported profit, or 0 when the field is absent.
func (r *SubmitResult) ProfitSol() float64 {
	if r == nil || r.Profit == nil {
		return 0
	}
	return r.Profit.Float64()
}
