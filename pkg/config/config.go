package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Cache struct {
		Backend string `yaml:"backend" default:"memory"` // memory, redis, layered
		Redis   struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"stockpulse"`
		} `yaml:"redis"`
		TTL struct {
			StockList  time.Duration `yaml:"stock_list" default:"1h"`
			Search     time.Duration `yaml:"search" default:"5m"`
			Candles    time.Duration `yaml:"candles" default:"30m"`
			Prediction time.Duration `yaml:"prediction" default:"10m"`
		} `yaml:"ttl"`
	} `yaml:"cache"`
	Providers struct {
		DatabasePath string        `yaml:"database_path" default:"data/stocks.db"`
		SeedPath     string        `yaml:"seed_path" default:"data/stocks_nse.json"`
		FetchTimeout time.Duration `yaml:"fetch_timeout" default:"5s"`
		MaxErrors    int           `yaml:"max_errors" default:"5"`
		HealthSymbol string        `yaml:"health_symbol" default:"RELIANCE.NS"`
		Yahoo        struct {
			BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		} `yaml:"yahoo"`
		AlphaVantage struct {
			APIKey            string `yaml:"api_key"`
			BaseURL           string `yaml:"base_url" default:"https://www.alphavantage.co"`
			RequestsPerMinute int    `yaml:"requests_per_minute" default:"5"`
		} `yaml:"alphavantage"`
		Finnhub struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		} `yaml:"finnhub"`
	} `yaml:"providers"`
	Prediction struct {
		HistoryPeriod    string        `yaml:"history_period" default:"2y"`
		HistoryInterval  string        `yaml:"history_interval" default:"1d"`
		MinBars          int           `yaml:"min_bars" default:"200"`
		MinFeatureRows   int           `yaml:"min_feature_rows" default:"100"`
		ConfidenceHigh   float64       `yaml:"confidence_high" default:"0.65"`
		ConfidenceMedium float64       `yaml:"confidence_medium" default:"0.55"`
		Rounds           int           `yaml:"rounds" default:"100"`
		MaxDepth         int           `yaml:"max_depth" default:"5"`
		LearningRate     float64       `yaml:"learning_rate" default:"0.1"`
		Seed             int64         `yaml:"seed" default:"42"`
		CacheTTL         time.Duration `yaml:"cache_ttl" default:"10m"`
	} `yaml:"prediction"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"stockpulse"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
	} `yaml:"clickhouse"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		WebSocketURL   string        `yaml:"websocket_url" default:"wss://ws.finnhub.io"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"20s"`
	} `yaml:"stream"`
	Kafka struct {
		Brokers      []string      `yaml:"brokers"`
		TicksTopic   string        `yaml:"ticks_topic" default:"stockpulse.ticks"`
		GroupID      string        `yaml:"group_id" default:"stockpulse"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"1s"`
		WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
	} `yaml:"kafka"`
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
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides secrets with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port := splitHostPort(v, c.Cache.Redis.Port)
		c.Cache.Redis.Host = host
		c.Cache.Redis.Port = port
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("STREAM_SYMBOLS"); v != "" {
		c.Stream.Symbols = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is consistent.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if c.Providers.DatabasePath == "" {
		return fmt.Errorf("providers.database_path is required")
	}
	if c.Prediction.ConfidenceHigh <= c.Prediction.ConfidenceMedium {
		return fmt.Errorf("prediction.confidence_high must exceed confidence_medium")
	}
	if c.Prediction.ConfidenceMedium <= 0.5 {
		return fmt.Errorf("prediction.confidence_medium must exceed 0.5")
	}
	if c.Stream.Enabled {
		if c.Providers.Finnhub.APIKey == "" {
			return fmt.Errorf("stream requires providers.finnhub.api_key")
		}
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("stream requires kafka.brokers")
		}
		if len(c.Stream.Symbols) == 0 {
			return fmt.Errorf("stream.symbols cannot be empty")
		}
	}
	return nil
}

func splitHostPort(addr string, defPort int) (string, int) {
	host, portStr, ok := strings.Cut(addr, ":")
	if !ok {
		return addr, defPort
	}
	var port int
	if _, err := fmt.Sscanf(portStr, "%d", &port); err != nil || port <= 0 {
		return host, defPort
	}
	return host, port
}
