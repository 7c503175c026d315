package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	MarketData struct {
		BaseURL   string        `yaml:"base_url"`
		Hosts     []string      `yaml:"hosts"`
		UserAgent string        `yaml:"user_agent"`
		Timeout   time.Duration `yaml:"timeout"`
		RateLimit struct {
			RequestsPerSec float64 `yaml:"requests_per_sec"`
			Burst          int     `yaml:"burst"`
		} `yaml:"rate_limit"`
	} `yaml:"marketdata"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
		MaxPerSecond   int           `yaml:"max_per_second"`
		BufferSize     int           `yaml:"buffer_size"`
	} `yaml:"stream"`
	Forecast struct {
		Enabled    bool          `yaml:"enabled"`
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		Retries    int           `yaml:"retries"`
	} `yaml:"forecast"`
	Sentiment struct {
		Enabled bool          `yaml:"enabled"`
		BaseURL string        `yaml:"base_url"`
		APIKey  string        `yaml:"api_key"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"sentiment"`
	Analytics struct {
		SMAShortWindow  int           `yaml:"sma_short_window"`
		SMALongWindow   int           `yaml:"sma_long_window"`
		RSIWindow       int           `yaml:"rsi_window"`
		MACDFast        int           `yaml:"macd_fast"`
		MACDSlow        int           `yaml:"macd_slow"`
		MACDSignal      int           `yaml:"macd_signal"`
		BollWindow      int           `yaml:"boll_window"`
		BollK           float64       `yaml:"boll_k"`
		Confidence      float64       `yaml:"confidence"`
		TradingDays     int           `yaml:"trading_days"`
		RiskFreeRate    float64       `yaml:"risk_free_rate"`
		DefaultPaths    int           `yaml:"default_paths"`
		DefaultHorizon  int           `yaml:"default_horizon"`
		SimulateTimeout time.Duration `yaml:"simulate_timeout"`
	} `yaml:"analytics"`
	Cache struct {
		Memory struct {
			Enabled         bool          `yaml:"enabled"`
			MaxItems        int           `yaml:"max_items"`
			CleanupInterval time.Duration `yaml:"cleanup_interval"`
		} `yaml:"memory"`
		Redis struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		TTL struct {
			Bars      time.Duration `yaml:"bars"`
			Quote     time.Duration `yaml:"quote"`
			Profile   time.Duration `yaml:"profile"`
			Forecast  time.Duration `yaml:"forecast"`
			Sentiment time.Duration `yaml:"sentiment"`
		} `yaml:"ttl"`
	} `yaml:"cache"`
	Watchlist struct {
		Symbols      []string `yaml:"symbols"`
		RefreshSpec  string   `yaml:"refresh_spec"`
		WarmupPeriod string   `yaml:"warmup_period"`
	} `yaml:"watchlist"`
	RateLimit struct {
		Enabled bool    `yaml:"enabled"`
		RPS     float64 `yaml:"rps"`
		Burst   int     `yaml:"burst"`
	} `yaml:"ratelimit"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. Secrets normally arrive this way instead of living in the
// YAML file.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Stream.APIKey = v
	}
	if v := os.Getenv("STOCKGEIST_API_KEY"); v != "" {
		c.Sentiment.APIKey = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Watchlist.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("parse PORT: %w", err)
		}
		c.Server.Port = p
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.MarketData.BaseURL == "" && len(c.MarketData.Hosts) == 0 {
		return fmt.Errorf("marketdata.base_url or marketdata.hosts is required")
	}
	if c.Stream.Enabled {
		if c.Stream.APIKey == "" {
			return fmt.Errorf("stream.api_key is required when the stream is enabled")
		}
		if c.Stream.WebSocketURL == "" {
			return fmt.Errorf("stream.websocket_url is required when the stream is enabled")
		}
		if len(c.Watchlist.Symbols) == 0 {
			return fmt.Errorf("watchlist.symbols cannot be empty when the stream is enabled")
		}
	}
	if c.Sentiment.Enabled && c.Sentiment.APIKey == "" {
		return fmt.Errorf("sentiment.api_key is required when sentiment is enabled")
	}
	if c.Forecast.Enabled && c.Forecast.ServiceURL == "" {
		return fmt.Errorf("forecast.service_url is required when forecasting is enabled")
	}
	if c.Analytics.Confidence != 0 && !(c.Analytics.Confidence > 0 && c.Analytics.Confidence < 1) {
		return fmt.Errorf("analytics.confidence must lie in (0,1), got %v", c.Analytics.Confidence)
	}
	return nil
}
