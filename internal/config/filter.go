// =================================
// File: internal/config/filter.go
// =================================
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/rovshanmuradov/gmgn-sniper/internal/filter"
)

// Значения фильтра по умолчанию.
const (
	DefaultMinMarketCap = 10000
	DefaultMaxMarketCap = 1000000
	DefaultMinHolders   = 50
	DefaultMaxHolders   = 10000
)

// FilterFile: документ конфигурации фильтра.
type FilterFile struct {
	BlacklistedTokens []string     `mapstructure:"blacklisted_tokens"`
	BlacklistedDevs   []string     `mapstructure:"blacklisted_devs"`
	Filters           FilterRanges `mapstructure:"filters"`
}

type FilterRanges struct {
	MinMarketCap float64 `mapstructure:"min_market_cap"`
	MaxMarketCap float64 `mapstructure:"max_market_cap"`
	MinHolders   float64 `mapstructure:"min_holders"`
	MaxHolders   float64 `mapstructure:"max_holders"`
}

// LoadFilterConfig загружает правила фильтрации из path.
// Если файла нет, он один раз создается со значениями по умолчанию.
// Ключи файла перекрывают значения по умолчанию, отсутствующие ключи сохраняют их.
func LoadFilterConfig(path string) (filter.Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("blacklisted_tokens", []string{})
	v.SetDefault("blacklisted_devs", []string{})
	v.SetDefault("filters.min_market_cap", DefaultMinMarketCap)
	v.SetDefault("filters.max_market_cap", DefaultMaxMarketCap)
	v.SetDefault("filters.min_holders", DefaultMinHolders)
	v.SetDefault("filters.max_holders", DefaultMaxHolders)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return filter.Config{}, fmt.Errorf("create filter config dir: %w", err)
			}
		}
		if err := v.SafeWriteConfigAs(path); err != nil {
			return filter.Config{}, fmt.Errorf("write default filter config: %w", err)
		}
	} else if err != nil {
		return filter.Config{}, fmt.Errorf("stat filter config: %w", err)
	} else if err := v.ReadInConfig(); err != nil {
		return filter.Config{}, fmt.Errorf("read filter config %s: %w", path, err)
	}

	var doc FilterFile
	if err := v.Unmarshal(&doc); err != nil {
		return filter.Config{}, fmt.Errorf("decode filter config: %w", err)
	}

	return filter.NewConfig(
		doc.BlacklistedTokens,
		doc.BlacklistedDevs,
		filter.Range{Min: doc.Filters.MinMarketCap, Max: doc.Filters.MaxMarketCap},
		filter.Range{Min: doc.Filters.MinHolders, Max: doc.Filters.MaxHolders},
	), nil
}
