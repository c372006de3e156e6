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
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowRequest     time.Duration `yaml:"slow_request" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
		RatePerSecond   float64       `yaml:"rate_per_second" default:"5"`
		RateBurst       int           `yaml:"rate_burst" default:"20"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
		Digest struct {
			Enabled        bool          `yaml:"enabled"`
			Topic          string        `yaml:"topic" default:"macropulse.errors"`
			FlushInterval  time.Duration `yaml:"flush_interval" default:"1m"`
			CountThreshold int           `yaml:"count_threshold" default:"100"`
		} `yaml:"digest"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	FRED struct {
		APIKey        string        `yaml:"api_key"`
		BaseURL       string        `yaml:"base_url" default:"https://api.stlouisfed.org/fred"`
		Timeout       time.Duration `yaml:"timeout" default:"15s"`
		RatePerSecond float64       `yaml:"rate_per_second" default:"2"`
		Burst         int           `yaml:"burst" default:"4"`
		HistoryYears  int           `yaml:"history_years" default:"5"`
		Breaker       BreakerConfig `yaml:"breaker"`
	} `yaml:"fred"`
	Blockchain struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		BaseURL       string        `yaml:"base_url" default:"https://api.blockchain.info"`
		Timeout       time.Duration `yaml:"timeout" default:"15s"`
		Timespan      string        `yaml:"timespan" default:"2years"`
		RatePerSecond float64       `yaml:"rate_per_second" default:"1"`
		Burst         int           `yaml:"burst" default:"2"`
		Breaker       BreakerConfig `yaml:"breaker"`
	} `yaml:"blockchain"`
	Cache struct {
		SeriesTTL    time.Duration `yaml:"series_ttl" default:"6h"`
		DashboardTTL time.Duration `yaml:"dashboard_ttl" default:"5m"`
		MemoryItems  int           `yaml:"memory_items" default:"512"`
	} `yaml:"cache"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr" default:"localhost:6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"macropulse"`
		PoolSize int    `yaml:"pool_size" default:"10"`
		MinIdle  int    `yaml:"min_idle" default:"2"`
	} `yaml:"redis"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"9000"`
		Database     string        `yaml:"database" default:"macropulse"`
		User         string        `yaml:"user" default:"default"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		DialTimeout  time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout  time.Duration `yaml:"read_timeout" default:"30s"`
		Archive      bool          `yaml:"archive" default:"true"`
		MaxOpenConns int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns int           `yaml:"max_idle_conns" default:"5"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool          `yaml:"enabled"`
		Brokers      []string      `yaml:"brokers"`
		EventsTopic  string        `yaml:"events_topic" default:"macropulse.dashboard"`
		RequiredAcks int           `yaml:"required_acks" default:"-1"`
		Compression  string        `yaml:"compression" default:"gzip"`
		MaxAttempts  int           `yaml:"max_attempts" default:"3"`
		BatchSize    int           `yaml:"batch_size" default:"100"`
		BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
		Consumer     struct {
			Enabled    bool          `yaml:"enabled"`
			Topic      string        `yaml:"topic" default:"macropulse.observations"`
			GroupID    string        `yaml:"group_id" default:"macropulse-ingest"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"256"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"macropulse.observations.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Refresh struct {
		Enabled     bool          `yaml:"enabled" default:"true"`
		Interval    time.Duration `yaml:"interval" default:"15m"`
		Timeout     time.Duration `yaml:"timeout" default:"2m"`
		Concurrency int           `yaml:"concurrency" default:"8"`
		LockTTL     time.Duration `yaml:"lock_ttl" default:"5m"`
		// Queue serves POST /api/dashboard/refresh; it needs Redis.
		Queue struct {
			Workers    int           `yaml:"workers" default:"2"`
			RetryLimit int           `yaml:"retry_limit" default:"3"`
			RetryDelay time.Duration `yaml:"retry_delay" default:"30s"`
		} `yaml:"queue"`
	} `yaml:"refresh"`
	Thresholds Thresholds `yaml:"thresholds"`
	// Portfolios seeds the store at startup, keyed by portfolio id.
	Portfolios map[string]PortfolioSeed `yaml:"portfolios"`
}

type BreakerConfig struct {
	MaxFailures uint32        `yaml:"max_failures" default:"5"`
	OpenTimeout time.Duration `yaml:"open_timeout" default:"1m"`
}

// Thresholds overrides the signal cut-offs. Unset fields keep built-in defaults.
type Thresholds struct {
	Alerts struct {
		HYOASRed        *float64 `yaml:"hy_oas_red"`
		HYOASChangeRed  *float64 `yaml:"hy_oas_change_red"`
		StressRed       *float64 `yaml:"stress_red"`
		LiquidityRed    *float64 `yaml:"liquidity_red"`
		HYOASYellow     *float64 `yaml:"hy_oas_yellow"`
		StressYellow    *float64 `yaml:"stress_yellow"`
		CurveYellow     *float64 `yaml:"curve_yellow"`
		InflationYellow *float64 `yaml:"inflation_yellow"`
		LiquidityYellow *float64 `yaml:"liquidity_yellow"`
		FedFundsYellow  *float64 `yaml:"fed_funds_yellow"`
		HYOASHealthy    *float64 `yaml:"hy_oas_healthy"`
	} `yaml:"alerts"`
	Microstress struct {
		SpreadCautionBps *float64 `yaml:"spread_caution_bps"`
		SpreadStressBps  *float64 `yaml:"spread_stress_bps"`
		SOFRJumpCaution  *float64 `yaml:"sofr_jump_caution"`
		SOFRJumpStress   *float64 `yaml:"sofr_jump_stress"`
		CPJumpCaution    *float64 `yaml:"cp_jump_caution"`
		CPJumpStress     *float64 `yaml:"cp_jump_stress"`
		TEDCaution       *float64 `yaml:"ted_caution"`
		TEDStress        *float64 `yaml:"ted_stress"`
		NFCICaution      *float64 `yaml:"nfci_caution"`
		NFCIStress       *float64 `yaml:"nfci_stress"`
	} `yaml:"microstress"`
	Bitcoin struct {
		HighVolPct      *float64 `yaml:"high_vol_pct"`
		WeakMomentumPct *float64 `yaml:"weak_momentum_pct"`
	} `yaml:"bitcoin"`
}

type PortfolioSeed struct {
	Holdings []struct {
		Ticker    string  `yaml:"ticker"`
		Account   string  `yaml:"account"`
		WeightPct float64 `yaml:"weight_pct"`
		AssetType string  `yaml:"asset_type"`
		Engine    string  `yaml:"engine"`
		Sector    string  `yaml:"sector"`
		Industry  string  `yaml:"industry"`
	} `yaml:"holdings"`
	Targets map[string]struct {
		MinPct    float64 `yaml:"min_pct"`
		TargetPct float64 `yaml:"target_pct"`
		MaxPct    float64 `yaml:"max_pct"`
	} `yaml:"targets"`
}

// Default returns a config with only built-in defaults applied.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return &c, nil
}

func parse(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// Load reads and parses a YAML configuration file over the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := parse(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FRED_API_KEY"); v != "" {
		c.FRED.APIKey = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.FRED.BaseURL == "" {
		return fmt.Errorf("fred.base_url is required")
	}
	if c.FRED.HistoryYears < 3 {
		return fmt.Errorf("fred.history_years must be at least 3 (2y z-score window plus 1y YoY), got %d", c.FRED.HistoryYears)
	}
	if c.Refresh.Enabled && c.Refresh.Interval < time.Minute {
		return fmt.Errorf("refresh.interval must be at least 1m, got %s", c.Refresh.Interval)
	}
	if c.Refresh.Concurrency <= 0 {
		return fmt.Errorf("refresh.concurrency must be positive")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.Log.Digest.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.digest requires kafka")
	}
	if c.Kafka.Consumer.Enabled && !c.ClickHouse.Enabled {
		return fmt.Errorf("kafka.consumer requires clickhouse as the observation sink")
	}
	return nil
}
