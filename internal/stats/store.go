// internal/stats/store.go
package stats

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// LamportsPerSol: число лампортов в одном SOL.
const LamportsPerSol = 1_000_000_000

// Trade: запись об отправленном свопе. После добавления не изменяется.
type Trade struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	InputToken  string    `json:"input_token"`
	OutputToken string    `json:"output_token"`
	AmountSol   float64   `json:"amount_sol"`
	ProfitSol   float64   `json:"profit"`
}

// Snapshot: согласованная копия состояния Store.
type Snapshot struct {
	SpentSol   float64 `json:"spent"`
	ProfitSol  float64 `json:"profit"`
	Trades     []Trade `json:"trades"`
	TradeCount int     `json:"trade_count"`
	WinRate    float64 `json:"win_rate"`
}

// Store хранит траты, прибыль и сделки процесса.
// Изменяет его только оркестратор свопов, остальные читают через Snapshot.
type Store struct {
	mu        sync.RWMutex
	spentSol  float64
	profitSol float64
	trades    []Trade
}

// NewStore создает пустое хранилище статистики.
func NewStore() *Store {
	return &Store{trades: make([]Trade, 0, 64)}
}

// RecordSubmission фиксирует попытку отправки свопа: добавляет сумму к тратам,
// прибыль к итогу и одну запись в список сделок. Операция атомарна.
func (s *Store) RecordSubmission(inputToken, outputToken string, amountLamports uint64, profitSol float64) Trade {
	trade := Trade{
		ID:          uuid.New().String(),
		Timestamp:   time.Now().UTC(),
		InputToken:  inputToken,
		OutputToken: outputToken,
		AmountSol:   LamportsToSol(amountLamports),
		ProfitSol:   profitSol,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.spentSol += trade.AmountSol
	s.profitSol += profitSol
	s.trades = append(s.trades, trade)
	return trade
}

// SpentSol returns the total committed amount.
func (s *Store) SpentSol() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.spentSol
}

// ProfitSol returns the summed reported profit.
func (s *Store) ProfitSol() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profitSol
}

// TradeCount returns the number of recorded trades.
func (s *Store) TradeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.trades)
}

// WinRate: доля сделок с положительной прибылью; 0 при отсутствии сделок.
func (s *Store) WinRate() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return winRate(s.trades)
}

// Snapshot возвращает копию состояния.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trades := make([]Trade, len(s.trades))
	copy(trades, s.trades)

	return Snapshot{
		SpentSol:   s.spentSol,
		ProfitSol:  s.profitSol,
		Trades:     trades,
		TradeCount: len(trades),
		WinRate:    winRate(trades),
	}
}

func winRate(trades []Trade) float64 {
	if len(trades) == 0 {
		return 0
	}
	wins := 0
	for _, t := range trades {
		if t.ProfitSol > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(trades))
}

// LamportsToSol переводит лампорты в SOL.
func LamportsToSol(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSol
}
