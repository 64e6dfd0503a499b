// internal/filter/filter.go
package filter

import (
	"github.com/rovshanmuradov/gmgn-sniper/internal/gmgn"
)

// Reason объясняет, почему токен отфильтрован.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonBlacklistedToken Reason = "blacklisted_token"
	ReasonBlacklistedDev   Reason = "blacklisted_dev"
	ReasonMarketCap        Reason = "market_cap"
	ReasonHolders          Reason = "holders"
)

// Range — замкнутый интервал [Min, Max].
type Range struct {
	Min float64
	Max float64
}

// Contains проверяет попадание значения в интервал включительно.
func (r Range) Contains(v float64) bool {
	return r.Min <= v && v <= r.Max
}

// Config: правила фильтрации. Загружается один раз и далее только читается.
// Min <= Max гарантирует загрузчик.
type Config struct {
	BlacklistedTokens map[string]struct{}
	BlacklistedDevs   map[string]struct{}
	MarketCap         Range
	Holders           Range
}

// NewConfig собирает Config из списков черных адресов и диапазонов.
func NewConfig(tokens, devs []string, marketCap, holders Range) Config {
	return Config{
		BlacklistedTokens: toSet(tokens),
		BlacklistedDevs:   toSet(devs),
		MarketCap:         marketCap,
		Holders:           holders,
	}
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// IsFiltered возвращает true, если токен не проходит фильтр.
func IsFiltered(address string, info *gmgn.TokenInfo, cfg Config) bool {
	return Evaluate(address, info, cfg) != ReasonNone
}

// Evaluate returns the first rule the token violates, or ReasonNone.
// Blacklists are checked before metrics; missing metrics count as zero.
func Evaluate(address string, info *gmgn.TokenInfo, cfg Config) Reason {
	if info == nil {
		info = &gmgn.TokenInfo{}
	}

	if _, ok := cfg.BlacklistedTokens[address]; ok {
		return ReasonBlacklistedToken
	}
	if _, ok := cfg.BlacklistedDevs[info.DevAddress]; ok {
		return ReasonBlacklistedDev
	}

	if !cfg.MarketCap.Contains(info.MarketCap.Float64()) {
		return ReasonMarketCap
	}
	if !cfg.Holders.Contains(float64(info.Holders.Int64())) {
		return ReasonHolders
	}
	return ReasonNone
}
