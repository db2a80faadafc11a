package marketdata

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	alpacadata "github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	ProviderAlpaca = "alpaca"
	ProviderYahoo  = "yahoo"

	DefaultLookback  = 7 * 24 * time.Hour
	DefaultWorkers   = 8
	DefaultBatchSize = 100
	DefaultFeed      = "iex"
)

// AlpacaConfig holds the configuration for the daily bar download
type AlpacaConfig struct {
	APIKey    string
	APISecret string
	DataURL   string        // "https://data.alpaca.markets", empty for the library default
	Feed      string        // "iex" or "sip"
	Lookback  time.Duration // window searched for the latest session
	Workers   int           // concurrent batch downloads
	BatchSize int           // symbols per request
}

type barsClient interface {
	GetMultiBars(symbols []string, req alpacadata.GetBarsRequest) (map[string][]alpacadata.Bar, error)
}

// Alpaca reads the volume of the latest daily bar for each ticker.
type Alpaca struct {
	config AlpacaConfig
	client barsClient
	logger *zap.Logger
	now    func() time.Time
}

func NewAlpaca(config AlpacaConfig, logger *zap.Logger) *Alpaca {
	if config.Lookback <= 0 {
		config.Lookback = DefaultLookback
	}
	if config.Workers <= 0 {
		config.Workers = DefaultWorkers
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.Feed == "" {
		config.Feed = DefaultFeed
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Alpaca{
		config: config,
		logger: logger,
		now:    time.Now,
	}

	// without credentials every download fails and the caller falls back
	if config.APIKey != "" && config.APISecret != "" {
		a.client = alpacadata.NewClient(alpacadata.ClientOpts{
			APIKey:    config.APIKey,
			APISecret: config.APISecret,
			BaseURL:   config.DataURL,
			Feed:      alpacadata.Feed(config.Feed),
		})
	}

	return a
}

func (a *Alpaca) Name() string { return ProviderAlpaca }

func (a *Alpaca) Volumes(ctx context.Context, tickers []string) (*VolumeTable, error) {
	if a.client == nil {
		return nil, ErrMissingCredentials
	}

	end := a.now()
	req := alpacadata.GetBarsRequest{
		TimeFrame:  alpacadata.OneDay,
		Adjustment: alpacadata.All,
		Start:      end.Add(-a.config.Lookback),
		End:        end,
		Feed:       alpacadata.Feed(a.config.Feed),
	}

	symbols := make([]string, len(tickers))
	for i, ticker := range tickers {
		symbols[i] = alpacaSymbol(ticker)
	}

	bars, err := a.download(ctx, symbols, req)
	if err != nil {
		return nil, err
	}

	a.logger.Info("[SYMBOLS] Downloaded daily bars",
		zap.Int("requested", len(tickers)),
		zap.Int("returned", len(bars)),
	)

	return ExtractVolumes(tickers, func(ticker string) (decimal.Decimal, error) {
		series := bars[alpacaSymbol(ticker)]
		if len(series) == 0 {
			return decimal.Zero, ErrNoData
		}
		latest := series[len(series)-1]
		return decimal.NewFromInt(int64(latest.Volume)), nil
	}), nil
}

// download fetches every batch concurrently and blocks until all of them
// have returned. Any batch error fails the whole download.
func (a *Alpaca) download(ctx context.Context, tickers []string, req alpacadata.GetBarsRequest) (map[string][]alpacadata.Bar, error) {
	batches := chunk(tickers, a.config.BatchSize)
	result := make(map[string][]alpacadata.Bar, len(tickers))

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)
	semaphore := make(chan struct{}, a.config.Workers)

	for i, batch := range batches {
		wg.Add(1)
		go func(n int, symbols []string) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			if err := ctx.Err(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}

			a.logger.Debug("[SYMBOLS] Fetching bars batch",
				zap.Int("batch", n+1),
				zap.Int("of", len(batches)),
				zap.Int("symbols", len(symbols)),
			)
			bars, err := a.client.GetMultiBars(symbols, req)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("failed to get bars for batch %d/%d: %w", n+1, len(batches), err)
				}
				return
			}
			for symbol, series := range bars {
				result[symbol] = series
			}
		}(i, batch)
	}

	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// alpacaSymbol converts a normalized ticker back to Alpaca's class share
// form, e.g. BRK-B -> BRK.B.
func alpacaSymbol(ticker string) string {
	return strings.ReplaceAll(ticker, "-", ".")
}

func chunk(values []string, size int) [][]string {
	if size <= 0 {
		size = len(values)
	}
	var out [][]string
	for start := 0; start < len(values); start += size {
		end := start + size
		if end > len(values) {
			end = len(values)
		}
		out = append(out, values[start:end])
	}
	return out
}
