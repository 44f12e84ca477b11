package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the breakout core.
type Config struct {
	Port string

	// Kite Connect
	KiteAPIKey    string
	KiteAPISecret string
	KiteBaseURL   string // override for tests; empty means production
	KiteExchange  string // "NSE" etc.
	KiteProduct   string // "MIS" or "CNC"
	KiteTokenFile string // where the generated access token is persisted

	// Execution
	DryRun          bool // skip the broker; synthesize order ids
	DefaultQuantity int

	// Strategy defaults (per-symbol presets may override)
	Lookback        int
	ProfitTargetPct float64
	StopLossPct     float64
	PresetsPath     string // optional YAML presets file

	// LTP monitor
	MonitorActiveInterval time.Duration
	MonitorIdleInterval   time.Duration
	MonitorStopTimeout    time.Duration

	// Database
	DBPath string
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		KiteAPIKey:            os.Getenv("KITE_API_KEY"),
		KiteAPISecret:         os.Getenv("KITE_API_SECRET"),
		KiteBaseURL:           os.Getenv("KITE_BASE_URL"),
		KiteExchange:          getEnv("KITE_EXCHANGE", "NSE"),
		KiteProduct:           getEnv("KITE_PRODUCT", "MIS"),
		KiteTokenFile:         getEnv("KITE_TOKEN_FILE", "./data/kite_token.json"),
		DryRun:                getEnv("DRY_RUN", "false") == "true",
		DefaultQuantity:       getEnvInt("DEFAULT_QUANTITY", 1),
		Lookback:              getEnvInt("LOOKBACK_PERIOD", 10),
		ProfitTargetPct:       getEnvFloat("PROFIT_TARGET_PCT", 0.03),
		StopLossPct:           getEnvFloat("STOP_LOSS_PCT", 0.01),
		PresetsPath:           os.Getenv("STRATEGY_PRESETS_PATH"),
		MonitorActiveInterval: getEnvDuration("MONITOR_ACTIVE_INTERVAL", 2*time.Second),
		MonitorIdleInterval:   getEnvDuration("MONITOR_IDLE_INTERVAL", 5*time.Second),
		MonitorStopTimeout:    getEnvDuration("MONITOR_STOP_TIMEOUT", 10*time.Second),
		DBPath:                getEnv("DB_PATH", "./data/breakout.db"),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
