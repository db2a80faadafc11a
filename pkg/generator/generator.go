package generator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"symbolgen/pkg/catalog"
	"symbolgen/pkg/constituents"
	"symbolgen/pkg/marketdata"
)

type StockSource string

const (
	SourceDynamic  StockSource = "dynamic"
	SourceFallback StockSource = "fallback"
)

type Options struct {
	OutputPath string
	StockLimit int
	Selection  Selection
}

// Result describes one generator run.
type Result struct {
	RunID    string
	Path     string
	Catalog  *catalog.Catalog
	Source   StockSource
	Skipped  []marketdata.Skip
	FetchErr error
	Duration time.Duration
}

// Generator builds symbols.json: fetch constituents, download volumes,
// select stocks, fall back on failure, merge the static sets and write.
type Generator struct {
	source   constituents.Source
	provider marketdata.Provider
	options  Options
	logger   *zap.Logger
}

func New(source constituents.Source, provider marketdata.Provider, options Options, logger *zap.Logger) *Generator {
	if options.StockLimit <= 0 {
		options.StockLimit = DefaultStockLimit
	}
	if options.Selection == "" {
		options.Selection = SelectFetchOrder
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		source:   source,
		provider: provider,
		options:  options,
		logger:   logger,
	}
}

// Generate runs the pipeline once. Fetch and download failures are
// recovered with the fallback list; only a failed write is returned.
// A failure caused by ctx being done is not recovered: nothing is written
// and the context error is returned.
func (g *Generator) Generate(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID: uuid.NewString(),
		Path:  g.options.OutputPath,
	}
	logger := g.logger.With(zap.String("run_id", result.RunID))

	stocks, skipped, err := g.fetchStocks(ctx, logger)
	if err != nil && ctx.Err() != nil {
		logger.Info("[SYMBOLS] Generation interrupted, keeping existing symbols.json", zap.Error(err))
		result.FetchErr = err
		result.Duration = time.Since(start)
		return result, fmt.Errorf("generation interrupted: %w", ctx.Err())
	}
	if err != nil {
		logger.Warn("[SYMBOLS] Error fetching dynamic stock list, falling back to hardcoded list", zap.Error(err))
		stocks = catalog.FallbackStocks()
		result.Source = SourceFallback
		result.FetchErr = err
	} else {
		logger.Info("[SYMBOLS] Using dynamically fetched stock list", zap.Int("stocks", len(stocks)))
		result.Source = SourceDynamic
		result.Skipped = skipped
	}

	result.Catalog = catalog.New(stocks)

	logger.Info("[SYMBOLS] Writing symbols.json", zap.String("path", result.Path))
	if err := catalog.Write(result.Path, result.Catalog); err != nil {
		result.Duration = time.Since(start)
		return result, fmt.Errorf("failed to write symbols file: %w", err)
	}

	result.Duration = time.Since(start)
	logger.Info("[SYMBOLS] symbols.json file generated successfully",
		zap.String("source", string(result.Source)),
		zap.Int("stock", len(result.Catalog.Stock)),
		zap.Int("crypto", len(result.Catalog.Crypto)),
		zap.Int("index", len(result.Catalog.Index)),
		zap.Int("commodity", len(result.Catalog.Commodity)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (g *Generator) fetchStocks(ctx context.Context, logger *zap.Logger) ([]string, []marketdata.Skip, error) {
	raw, err := g.source.Tickers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch constituents: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil, constituents.ErrNoTickers
	}
	tickers := catalog.NormalizeTickers(raw)

	table, err := g.provider.Volumes(ctx, tickers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download %s data: %w", g.provider.Name(), err)
	}
	logger.Info("[SYMBOLS] Fetched S&P 500 tickers",
		zap.Int("tickers", len(tickers)),
		zap.Int("with_volume", table.Len()),
		zap.String("provider", g.provider.Name()),
	)

	for _, skip := range table.Skipped {
		logger.Info("[SYMBOLS] Skipping "+skip.Ticker, zap.String("reason", skip.Reason))
	}

	if g.options.Selection == SelectVolume {
		logger.Info("[SYMBOLS] Ranking stocks by volume instead of fetch order")
	}
	return SelectStocks(table, g.options.StockLimit, g.options.Selection), table.Skipped, nil
}
