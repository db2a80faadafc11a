package marketdata

import (
	"context"
	"fmt"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Yahoo reads the regular market volume from Yahoo Finance quotes.
type Yahoo struct {
	batchSize int
	list      func(symbols []string) ([]*finance.Quote, error)
	logger    *zap.Logger
}

func NewYahoo(batchSize int, logger *zap.Logger) *Yahoo {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Yahoo{
		batchSize: batchSize,
		list:      listQuotes,
		logger:    logger,
	}
}

func listQuotes(symbols []string) ([]*finance.Quote, error) {
	iter := quote.List(symbols)

	var quotes []*finance.Quote
	for iter.Next() {
		quotes = append(quotes, iter.Quote())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (y *Yahoo) Name() string { return ProviderYahoo }

func (y *Yahoo) Volumes(ctx context.Context, tickers []string) (*VolumeTable, error) {
	quotes := make(map[string]*finance.Quote, len(tickers))

	for _, batch := range chunk(tickers, y.batchSize) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		got, err := y.list(batch)
		if err != nil {
			return nil, fmt.Errorf("failed to list quotes: %w", err)
		}
		for _, q := range got {
			if q != nil {
				quotes[q.Symbol] = q
			}
		}
	}

	y.logger.Info("[SYMBOLS] Downloaded quotes",
		zap.Int("requested", len(tickers)),
		zap.Int("returned", len(quotes)),
	)

	return ExtractVolumes(tickers, func(ticker string) (decimal.Decimal, error) {
		q, ok := quotes[ticker]
		if !ok {
			return decimal.Zero, ErrNoData
		}
		return decimal.NewFromInt(int64(q.RegularMarketVolume)), nil
	}), nil
}
