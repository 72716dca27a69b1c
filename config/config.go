package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full, typed agent configuration. Risk limits are expressed
// as percentages of Capital so the same file works across account sizes.
type Config struct {
	Symbol  string  `json:"symbol" yaml:"symbol"`
	Capital float64 `json:"capital" yaml:"capital"`
	Live    bool    `json:"live" yaml:"live"`

	// Risk limits.
	MaxDailyLossPct   float64 `json:"max_daily_loss_pct" yaml:"max_daily_loss_pct"`
	MaxDrawdownPct    float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	CooldownThreshold int     `json:"cooldown_threshold" yaml:"cooldown_threshold"`
	MaxPositions      int     `json:"max_positions" yaml:"max_positions"`

	// Loop cadence.
	ThinkIntervalSec     int `json:"think_interval_sec" yaml:"think_interval_sec"`
	OffHoursIntervalSec  int `json:"off_hours_interval_sec" yaml:"off_hours_interval_sec"`
	CheckpointEvery      int `json:"checkpoint_every" yaml:"checkpoint_every"`
	AdaptEvery           int `json:"adapt_every" yaml:"adapt_every"`
	MaxConsecutiveErrors int `json:"max_consecutive_errors" yaml:"max_consecutive_errors"`
	HeartbeatSec         int `json:"heartbeat_sec" yaml:"heartbeat_sec"`

	// Session clock.
	SessionStart    string `json:"session_start" yaml:"session_start"`
	SessionEnd      string `json:"session_end" yaml:"session_end"`
	ForceCloseAt    string `json:"force_close_at" yaml:"force_close_at"`
	SessionTimezone string `json:"session_timezone" yaml:"session_timezone"`

	// Decision tuning seeds.
	MinConfidence float64 `json:"min_confidence" yaml:"min_confidence"`

	// Position management.
	MaxAdjustments     int     `json:"max_adjustments" yaml:"max_adjustments"`
	AdjustCooldownSec  int     `json:"adjust_cooldown_sec" yaml:"adjust_cooldown_sec"`
	AdjustBufferPct    float64 `json:"adjust_buffer_pct" yaml:"adjust_buffer_pct"`
	TrailActivatePct   float64 `json:"trail_activate_pct" yaml:"trail_activate_pct"`
	TrailDistancePct   float64 `json:"trail_distance_pct" yaml:"trail_distance_pct"`

	// Reasoning service.
	LLMProvider     string `json:"llm_provider" yaml:"llm_provider"`
	LLMModel        string `json:"llm_model" yaml:"llm_model"`
	BackendURL      string `json:"backend_url" yaml:"backend_url"`
	DeepSeekAPIKey  string `json:"deepseek_api_key" yaml:"deepseek_api_key"`
	OpenAIAPIKey    string `json:"openai_api_key" yaml:"openai_api_key"`
	MaxTokens       int    `json:"max_tokens" yaml:"max_tokens"`
	DailyCallBudget int    `json:"daily_call_budget" yaml:"daily_call_budget"`
	CacheTTLSec     int    `json:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	CallTimeoutSec  int    `json:"call_timeout_sec" yaml:"call_timeout_sec"`

	// Data sources and storage.
	VolFeedURL  string `json:"vol_feed_url" yaml:"vol_feed_url"`
	DataDir     string `json:"data_dir" yaml:"data_dir"`
	MetricsAddr string `json:"metrics_addr" yaml:"metrics_addr"`
}

// DefaultConfig returns the baseline configuration, then overlays values
// from the environment (a .env file is honored if present).
func DefaultConfig() *Config {
	cfg := &Config{
		Symbol:  "SPY",
		Capital: 100000,
		Live:    false,

		MaxDailyLossPct:   2.0,
		MaxDrawdownPct:    5.0,
		CooldownThreshold: 3,
		MaxPositions:      3,

		ThinkIntervalSec:     60,
		OffHoursIntervalSec:  300,
		CheckpointEvery:      5,
		AdaptEvery:           10,
		MaxConsecutiveErrors: 5,
		HeartbeatSec:         30,

		SessionStart:    "09:30",
		SessionEnd:      "16:00",
		ForceCloseAt:    "15:45",
		SessionTimezone: "America/New_York",

		MinConfidence: 65,

		MaxAdjustments:    2,
		AdjustCooldownSec: 300,
		AdjustBufferPct:   0.5,
		TrailActivatePct:  50,
		TrailDistancePct:  25,

		LLMProvider:     "deepseek",
		LLMModel:        "deepseek-chat",
		BackendURL:      "",
		MaxTokens:       2000,
		DailyCallBudget: 250,
		CacheTTLSec:     120,
		CallTimeoutSec:  45,

		DataDir:     "data",
		MetricsAddr: ":9213",
	}

	// Load environment variables from .env file.
	_ = godotenv.Load()

	cfg.loadFromEnv()

	return cfg
}

// LoadFile overlays a YAML config file onto the receiver.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) loadFromEnv() {
	if val := os.Getenv("VOLTAGENT_SYMBOL"); val != "" {
		c.Symbol = val
	}
	if val := os.Getenv("VOLTAGENT_CAPITAL"); val != "" {
		if v, err := strconv.ParseFloat(val, 64); err == nil {
			c.Capital = v
		}
	}
	if val := os.Getenv("VOLTAGENT_LIVE"); val != "" {
		if v, err := strconv.ParseBool(val); err == nil {
			c.Live = v
		}
	}
	if val := os.Getenv("VOLTAGENT_DATA_DIR"); val != "" {
		c.DataDir = val
	}
	if val := os.Getenv("VOLTAGENT_METRICS_ADDR"); val != "" {
		c.MetricsAddr = val
	}
	if val := os.Getenv("VOLTAGENT_VOL_FEED_URL"); val != "" {
		c.VolFeedURL = val
	}

	if val := os.Getenv("LLM_PROVIDER"); val != "" {
		c.LLMProvider = val
	}
	if val := os.Getenv("LLM_MODEL"); val != "" {
		c.LLMModel = val
	}
	if val := os.Getenv("BACKEND_URL"); val != "" {
		c.BackendURL = val
	}
	if val := os.Getenv("DEEPSEEK_API_KEY"); val != "" {
		c.DeepSeekAPIKey = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.OpenAIAPIKey = val
	}
	if val := os.Getenv("VOLTAGENT_DAILY_CALL_BUDGET"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.DailyCallBudget = v
		}
	}
	if val := os.Getenv("VOLTAGENT_THINK_INTERVAL_SEC"); val != "" {
		if v, err := strconv.Atoi(val); err == nil {
			c.ThinkIntervalSec = v
		}
	}
}

// Validate rejects configurations the loop cannot run with.
func (c *Config) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Capital <= 0 {
		return fmt.Errorf("capital must be > 0")
	}
	if c.MaxDailyLossPct <= 0 || c.MaxDailyLossPct > 100 {
		return fmt.Errorf("max_daily_loss_pct must be in (0,100]")
	}
	if c.MaxDrawdownPct <= 0 || c.MaxDrawdownPct > 100 {
		return fmt.Errorf("max_drawdown_pct must be in (0,100]")
	}
	if c.MaxPositions <= 0 {
		return fmt.Errorf("max_positions must be > 0")
	}
	if c.MinConfidence < 0 || c.MinConfidence > 100 {
		return fmt.Errorf("min_confidence must be in [0,100]")
	}
	if c.ThinkIntervalSec <= 0 {
		return fmt.Errorf("think_interval_sec must be > 0")
	}
	if c.CheckpointEvery <= 0 {
		return fmt.Errorf("checkpoint_every must be > 0")
	}
	if c.AdaptEvery <= 0 {
		return fmt.Errorf("adapt_every must be > 0")
	}
	if _, err := time.LoadLocation(c.SessionTimezone); err != nil {
		return fmt.Errorf("session_timezone: %w", err)
	}
	for _, hm := range []string{c.SessionStart, c.SessionEnd, c.ForceCloseAt} {
		if _, err := time.Parse("15:04", hm); err != nil {
			return fmt.Errorf("session time %q: %w", hm, err)
		}
	}
	return nil
}

// MaxDailyLoss is the absolute daily-loss limit in dollars.
func (c *Config) MaxDailyLoss() float64 {
	return c.Capital * c.MaxDailyLossPct / 100
}

// MaxDrawdown is the absolute drawdown limit in dollars.
func (c *Config) MaxDrawdown() float64 {
	return c.Capital * c.MaxDrawdownPct / 100
}

// ThinkInterval is the between-cycle sleep during session hours.
func (c *Config) ThinkInterval() time.Duration {
	return time.Duration(c.ThinkIntervalSec) * time.Second
}

// OffHoursInterval is the longer sleep used outside session hours.
func (c *Config) OffHoursInterval() time.Duration {
	return time.Duration(c.OffHoursIntervalSec) * time.Second
}

// AdjustCooldown is the minimum spacing between two leg adjustments.
func (c *Config) AdjustCooldown() time.Duration {
	return time.Duration(c.AdjustCooldownSec) * time.Second
}

// CacheTTL is the reasoning response cache lifetime.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// CallTimeout bounds a single reasoning network call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSec) * time.Second
}

// Heartbeat is the liveness self-check period.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatSec) * time.Second
}
