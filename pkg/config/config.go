package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultProvider    = "alpaca"
	defaultSourceURL   = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"
	defaultStockLimit  = 100
	defaultSelection   = "fetch-order"
	defaultWorkers     = 8
	defaultBatchSize   = 100
	defaultHTTPTimeout = 30 * time.Second
	defaultLookback    = 7 * 24 * time.Hour
	defaultLogLevel    = "info"
	defaultLogFormat   = "console"
	defaultFeed        = "iex"
)

// Config represents the generator configuration. Every field has a default,
// so the program runs with an empty environment.
type Config struct {
	Provider    string
	SourceURL   string
	OutputPath  string
	StockLimit  int
	Selection   string
	Workers     int
	BatchSize   int
	HTTPTimeout time.Duration
	Lookback    time.Duration
	Interval    time.Duration
	LogLevel    string
	LogFormat   string
	Alpaca      AlpacaConfig

	// EnvFileLoaded reports whether a .env file was found.
	EnvFileLoaded bool
}

type AlpacaConfig struct {
	APIKey    string
	APISecret string
	DataURL   string
	Feed      string
}

// Load reads .env (if present) into the environment and then parses it.
func Load() (*Config, error) {
	loaded := godotenv.Load() == nil

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}
	cfg.EnvFileLoaded = loaded
	return cfg, nil
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		Provider:  stringOr(getenv("SYMBOLS_PROVIDER"), defaultProvider),
		SourceURL: stringOr(getenv("SYMBOLS_SOURCE_URL"), defaultSourceURL),
		Selection: stringOr(getenv("SYMBOLS_SELECTION"), defaultSelection),
		LogLevel:  stringOr(getenv("SYMBOLS_LOG_LEVEL"), defaultLogLevel),
		LogFormat: stringOr(getenv("SYMBOLS_LOG_FORMAT"), defaultLogFormat),
		Alpaca: AlpacaConfig{
			APIKey:    getenv("ALPACA_API_KEY"),
			APISecret: getenv("ALPACA_SECRET_KEY"),
			DataURL:   getenv("ALPACA_DATA_URL"),
			Feed:      stringOr(getenv("ALPACA_FEED"), defaultFeed),
		},
	}

	var err error
	if cfg.OutputPath = getenv("SYMBOLS_OUTPUT_PATH"); cfg.OutputPath == "" {
		if cfg.OutputPath, err = DefaultOutputPath(); err != nil {
			return nil, err
		}
	}

	if cfg.StockLimit, err = positiveInt(getenv, "SYMBOLS_STOCK_LIMIT", defaultStockLimit); err != nil {
		return nil, err
	}
	if cfg.Workers, err = positiveInt(getenv, "SYMBOLS_WORKERS", defaultWorkers); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = positiveInt(getenv, "SYMBOLS_BATCH_SIZE", defaultBatchSize); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = duration(getenv, "SYMBOLS_HTTP_TIMEOUT", defaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.Lookback, err = duration(getenv, "SYMBOLS_LOOKBACK", defaultLookback); err != nil {
		return nil, err
	}
	if cfg.Interval, err = duration(getenv, "SYMBOLS_INTERVAL", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultOutputPath is dist/config/symbols.json two directories above the
// running executable.
func DefaultOutputPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return OutputPathFor(exe), nil
}

// OutputPathFor resolves the default output path for the executable at exe.
func OutputPathFor(exe string) string {
	return filepath.Clean(filepath.Join(filepath.Dir(exe), "..", "..", "dist", "config", "symbols.json"))
}

func stringOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func positiveInt(getenv func(string) string, key string, fallback int) (int, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, raw, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", key, n)
	}
	return n, nil
}

func duration(getenv func(string) string, key string, fallback time.Duration) (time.Duration, error) {
	raw := getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", key, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, d)
	}
	return d, nil
}
