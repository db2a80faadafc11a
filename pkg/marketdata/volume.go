package marketdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNoData             = errors.New("no data returned")
	ErrMissingCredentials = errors.New("ALPACA_API_KEY and ALPACA_SECRET_KEY must be set")
	ErrUnknownProvider    = errors.New("unknown market data provider")
)

// Provider downloads the latest session volume for a batch of tickers.
// A failure of the bulk download is returned as an error; a ticker with no
// usable data ends up in VolumeTable.Skipped instead.
type Provider interface {
	Name() string
	Volumes(ctx context.Context, tickers []string) (*VolumeTable, error)
}

// Skip records a ticker whose volume could not be extracted.
type Skip struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// VolumeTable maps tickers to their last session volume. Tickers keeps the
// order in which volumes were extracted.
type VolumeTable struct {
	Tickers []string
	Volumes map[string]decimal.Decimal
	Skipped []Skip
}

// Len is the number of tickers with a volume.
func (v *VolumeTable) Len() int {
	return len(v.Tickers)
}

// Volume reports the volume for ticker and whether one was recorded.
func (v *VolumeTable) Volume(ticker string) (decimal.Decimal, bool) {
	vol, ok := v.Volumes[ticker]
	return vol, ok
}

// ExtractVolumes looks up every ticker in order. Lookup errors and panics
// skip that ticker only. A ticker listed twice keeps its first position and
// its latest volume.
func ExtractVolumes(tickers []string, lookup func(ticker string) (decimal.Decimal, error)) *VolumeTable {
	table := &VolumeTable{
		Tickers: make([]string, 0, len(tickers)),
		Volumes: make(map[string]decimal.Decimal, len(tickers)),
	}

	for _, ticker := range tickers {
		vol, err := safeLookup(lookup, ticker)
		if err != nil {
			table.Skipped = append(table.Skipped, Skip{Ticker: ticker, Reason: err.Error(), Err: err})
			continue
		}
		if _, seen := table.Volumes[ticker]; !seen {
			table.Tickers = append(table.Tickers, ticker)
		}
		table.Volumes[ticker] = vol
	}

	return table
}

func safeLookup(lookup func(string) (decimal.Decimal, error), ticker string) (vol decimal.Decimal, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("volume lookup panicked: %v", r)
		}
	}()
	return lookup(ticker)
}

// NewProvider builds the provider registered under name.
func NewProvider(name string, config AlpacaConfig, logger *zap.Logger) (Provider, error) {
	switch name {
	case "", ProviderAlpaca:
		return NewAlpaca(config, logger), nil
	case ProviderYahoo:
		return NewYahoo(config.BatchSize, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
