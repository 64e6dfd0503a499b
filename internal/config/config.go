// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix: префикс переменных окружения, перекрывающих файл.
const EnvPrefix = "SNIPER"

const (
	DefaultGMGNAPIHost      = "https://gmgn.ai"
	DefaultFeedURL          = "wss://pumpportal.fun/api/data"
	DefaultListenAddr       = ":5000"
	DefaultRequestTimeoutMs = 10000
	DefaultQuoteRPS         = 5
	DefaultSlippage         = 0.5
	DefaultTxEncoding       = "base64"
	DefaultFilterConfig     = "config.json"
	DefaultLogFile          = "sniper.log"
	DefaultReconnectInitial = 1000
	DefaultReconnectMax     = 30000
	DefaultPingInterval     = 30000
	DefaultReadTimeout      = 60000
)

type Config struct {
	GMGNAPIHost        string  `mapstructure:"gmgn_api_host"`
	FeedURL            string  `mapstructure:"feed_url"`
	ListenAddr         string  `mapstructure:"listen_addr"`
	RequestTimeoutMs   int     `mapstructure:"request_timeout_ms"`
	QuoteRPS           int     `mapstructure:"quote_rps"`
	DefaultSlippage    float64 `mapstructure:"default_slippage"`
	TxEncoding         string  `mapstructure:"tx_encoding"`
	FilterConfig       string  `mapstructure:"filter_config"`
	DebugLogging       bool    `mapstructure:"debug_logging"`
	LogFile            string  `mapstructure:"log_file"`
	ReconnectInitialMs int     `mapstructure:"reconnect_initial_ms"`
	ReconnectMaxMs     int     `mapstructure:"reconnect_max_ms"`
	PingIntervalMs     int     `mapstructure:"ping_interval_ms"`
	ReadTimeoutMs      int     `mapstructure:"read_timeout_ms"`
}

// LoadConfig читает конфигурацию приложения. Отсутствующий файл не ошибка:
// используются значения по умолчанию и переменные окружения SNIPER_*.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"gmgn_api_host":        DefaultGMGNAPIHost,
		"feed_url":             DefaultFeedURL,
		"listen_addr":          DefaultListenAddr,
		"request_timeout_ms":   DefaultRequestTimeoutMs,
		"quote_rps":            DefaultQuoteRPS,
		"default_slippage":     DefaultSlippage,
		"tx_encoding":          DefaultTxEncoding,
		"filter_config":        DefaultFilterConfig,
		"debug_logging":        false,
		"log_file":             DefaultLogFile,
		"reconnect_initial_ms": DefaultReconnectInitial,
		"reconnect_max_ms":     DefaultReconnectMax,
		"ping_interval_ms":     DefaultPingInterval,
		"read_timeout_ms":      DefaultReadTimeout,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	return &cfg, validateConfig(&cfg)
}

func validateConfig(cfg *Config) error {
	if err := validateURL(cfg.GMGNAPIHost, "http"); err != nil {
		return fmt.Errorf("invalid gmgn_api_host: %w", err)
	}
	if err := validateURL(cfg.FeedURL, "ws"); err != nil {
		return fmt.Errorf("invalid feed_url: %w", err)
	}
	if cfg.ListenAddr == "" {
		return errors.New("listen_addr is empty")
	}
	if cfg.RequestTimeoutMs <= 0 {
		return errors.New("invalid request_timeout_ms")
	}
	if cfg.QuoteRPS < 0 {
		return errors.New("invalid quote_rps")
	}
	if cfg.DefaultSlippage < 0 {
		return errors.New("invalid default_slippage")
	}
	if cfg.ReconnectInitialMs <= 0 || cfg.ReconnectMaxMs < cfg.ReconnectInitialMs {
		return errors.New("invalid reconnect backoff bounds")
	}
	if cfg.PingIntervalMs < 0 || cfg.ReadTimeoutMs < 0 {
		return errors.New("invalid keepalive settings")
	}
	return nil
}

func validateURL(rawURL, protocol string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) || parsed.Host == "" {
		return errors.New("invalid URL protocol")
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMs) * time.Millisecond
}

func (c *Config) ReconnectInitial() time.Duration {
	return time.Duration(c.ReconnectInitialMs) * time.Millisecond
}

func (c *Config) ReconnectMax() time.Duration {
	return time.Duration(c.ReconnectMaxMs) * time.Millisecond
}

func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.PingIntervalMs) * time.Millisecond
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMs) * time.Millisecond
}
