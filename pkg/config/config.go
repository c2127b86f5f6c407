package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`
	Resolver struct {
		SkipThreshold  int                      `yaml:"skip_threshold" default:"3"`
		DefaultTimeout time.Duration            `yaml:"default_timeout" default:"15s"`
		Timeouts       map[string]time.Duration `yaml:"timeouts"`
		// Priority overrides the capability ordering per "market.kind" key.
		Priority map[string][]string `yaml:"priority"`
	} `yaml:"resolver"`
	Canonical struct {
		// A-share exchange tokens recognized by the canonicalizer. Empty
		// lists fall back to the built-in defaults.
		Prefixes []string `yaml:"prefixes"`
		Suffixes []string `yaml:"suffixes"`
	} `yaml:"canonical"`
	Providers struct {
		AkShare struct {
			BaseURL string `yaml:"base_url" default:"http://127.0.0.1:8081"`
		} `yaml:"akshare"`
		Tushare struct {
			BaseURL string `yaml:"base_url" default:"https://api.tushare.pro"`
			Token   string `yaml:"token"`
		} `yaml:"tushare"`
		Baostock struct {
			BaseURL string `yaml:"base_url" default:"http://127.0.0.1:8082"`
		} `yaml:"baostock"`
		YFinance struct {
			BaseURL string `yaml:"base_url" default:"https://query1.finance.yahoo.com"`
		} `yaml:"yfinance"`
		Pytdx struct {
			BaseURL string `yaml:"base_url" default:"http://127.0.0.1:8083"`
		} `yaml:"pytdx"`
		// RatePerSec throttles outbound calls per provider.
		RatePerSec float64 `yaml:"rate_per_sec" default:"5"`
	} `yaml:"providers"`
	LLM struct {
		PreferGateway bool `yaml:"prefer_gateway" default:"true"`
		Gemini        struct {
			APIKey string `yaml:"api_key"`
			Model  string `yaml:"model" default:"gemini-2.0-flash"`
		} `yaml:"gemini"`
		Anthropic struct {
			APIKey string `yaml:"api_key"`
			Model  string `yaml:"model" default:"claude-sonnet-4-20250514"`
		} `yaml:"anthropic"`
		OpenAI struct {
			Gateway struct {
				BaseURL string `yaml:"base_url"`
				APIKey  string `yaml:"api_key"`
				Model   string `yaml:"model" default:"gpt-4o-mini"`
			} `yaml:"gateway"`
			Direct struct {
				BaseURL string `yaml:"base_url" default:"https://api.openai.com/v1"`
				APIKey  string `yaml:"api_key"`
				Model   string `yaml:"model" default:"gpt-4o-mini"`
			} `yaml:"direct"`
		} `yaml:"openai"`
	} `yaml:"llm"`
	Cache struct {
		Enabled    bool          `yaml:"enabled"`
		QuoteTTL   time.Duration `yaml:"quote_ttl" default:"5s"`
		HistoryTTL time.Duration `yaml:"history_ttl" default:"10m"`
		Redis      struct {
			Host     string `yaml:"host" default:"localhost"`
			Port     int    `yaml:"port" default:"6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"stockpilot"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Backend struct {
		// Type routes fetch outcomes: "kafka", "clickhouse" or "none".
		Type         string        `yaml:"type" default:"none"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"2s"`
	} `yaml:"backend"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"stockpilot.outcomes"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"stockpilot"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
	Stream struct {
		Enabled        bool          `yaml:"enabled"`
		URL            string        `yaml:"url"`
		Token          string        `yaml:"token"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"stream"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment
// variables. This is the only place the environment is consulted; the
// resulting struct is immutable for the process lifetime.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("TUSHARE_TOKEN"); v != "" {
		c.Providers.Tushare.Token = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		c.LLM.Anthropic.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.OpenAI.Direct.APIKey = v
	}
	if v := os.Getenv("OPENAI_GATEWAY_API_KEY"); v != "" {
		c.LLM.OpenAI.Gateway.APIKey = v
	}
	if v := os.Getenv("OPENAI_GATEWAY_BASE_URL"); v != "" {
		c.LLM.OpenAI.Gateway.BaseURL = v
	}
	if v := os.Getenv("PREFER_GATEWAY"); v != "" {
		c.LLM.PreferGateway = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("SKIP_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Resolver.SkipThreshold = n
		}
	}
	if v := os.Getenv("BACKEND"); v != "" {
		c.Backend.Type = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("STREAM_SYMBOLS"); v != "" {
		c.Stream.Symbols = strings.Split(v, ",")
	}

	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	switch c.Backend.Type {
	case "kafka", "clickhouse", "none":
	default:
		return fmt.Errorf("backend.type must be 'kafka', 'clickhouse' or 'none', got '%s'", c.Backend.Type)
	}
	if c.Backend.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers are required for the kafka backend")
	}
	if c.Backend.Type == "clickhouse" && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required for the clickhouse backend")
	}
	if c.Resolver.SkipThreshold < 1 {
		return fmt.Errorf("resolver.skip_threshold must be >= 1")
	}
	if c.Stream.Enabled && c.Stream.URL == "" {
		return fmt.Errorf("stream.url is required when the stream is enabled")
	}
	return nil
}
