package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"symbolgen/pkg/catalog"
	"symbolgen/pkg/marketdata"
)

type fakeSource struct {
	tickers []string
	err     error
}

func (f *fakeSource) Tickers(ctx context.Context) ([]string, error) {
	return f.tickers, f.err
}

// fakeProvider reports a volume for every ticker in volumes, skipping the rest.
type fakeProvider struct {
	volumes   map[string]int64
	err       error
	requested []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Volumes(ctx context.Context, tickers []string) (*marketdata.VolumeTable, error) {
	f.requested = tickers
	if f.err != nil {
		return nil, f.err
	}
	return marketdata.ExtractVolumes(tickers, func(ticker string) (decimal.Decimal, error) {
		v, ok := f.volumes[ticker]
		if !ok {
			return decimal.Zero, marketdata.ErrNoData
		}
		return decimal.NewFromInt(v), nil
	}), nil
}

func newTestGenerator(t *testing.T, source *fakeSource, provider *fakeProvider, selection Selection) (*Generator, string, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	path := filepath.Join(t.TempDir(), "dist", "config", "symbols.json")
	g := New(source, provider, Options{OutputPath: path, Selection: selection}, zap.New(core))
	return g, path, logs
}

func readCatalog(t *testing.T, path string) catalog.Catalog {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var c catalog.Catalog
	require.NoError(t, json.Unmarshal(data, &c))
	return c
}

func TestGenerateDynamic(t *testing.T) {
	provider := &fakeProvider{volumes: map[string]int64{"AAA-B": 10, "CCC": 20}}
	g, path, _ := newTestGenerator(t, &fakeSource{tickers: []string{"AAA.B", "CCC"}}, provider, SelectFetchOrder)

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA-B", "CCC"}, provider.requested, "tickers are normalized before lookup")
	assert.Equal(t, SourceDynamic, result.Source)
	assert.NotEmpty(t, result.RunID)

	c := readCatalog(t, path)
	assert.Equal(t, []string{"AAA-B", "CCC"}, c.Stock)
	assert.ElementsMatch(t, catalog.CryptoPairs(), c.Crypto)
	assert.ElementsMatch(t, []string{"SPY", "QQQ", "IWM", "DIA"}, c.Index)
	assert.ElementsMatch(t, []string{"XAU/USD"}, c.Commodity)
}

func TestGenerateFallbackOnConnectionError(t *testing.T) {
	source := &fakeSource{err: errors.New("dial tcp: connection refused")}
	provider := &fakeProvider{}
	g, path, logs := newTestGenerator(t, source, provider, SelectFetchOrder)

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, result.Source)
	assert.Error(t, result.FetchErr)
	assert.Nil(t, provider.requested, "no download after the table fetch failed")

	c := readCatalog(t, path)
	assert.Equal(t, catalog.FallbackStocks(), c.Stock)
	assert.Len(t, c.Crypto, 25)
	assert.Len(t, c.Index, 4)
	assert.Len(t, c.Commodity, 1)

	assert.Equal(t, 1, logs.FilterMessageSnippet("[SYMBOLS] Error fetching dynamic stock list, falling back").Len())
}

func TestGenerateFallbackOnDownloadError(t *testing.T) {
	source := &fakeSource{tickers: []string{"AAPL", "MSFT"}}
	provider := &fakeProvider{err: marketdata.ErrMissingCredentials}
	g, path, _ := newTestGenerator(t, source, provider, SelectFetchOrder)

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, result.Source)
	assert.ErrorIs(t, result.FetchErr, marketdata.ErrMissingCredentials)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, catalog.FallbackStocks(), readCatalog(t, path).Stock)
}

func TestGenerateFallbackOnEmptyTable(t *testing.T) {
	g, path, _ := newTestGenerator(t, &fakeSource{}, &fakeProvider{}, SelectFetchOrder)

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceFallback, result.Source)
	assert.Equal(t, catalog.FallbackStocks(), readCatalog(t, path).Stock)
}

func TestGenerateSkipsTickersWithoutVolume(t *testing.T) {
	provider := &fakeProvider{volumes: map[string]int64{"AAPL": 5, "MSFT": 7}}
	g, path, logs := newTestGenerator(t, &fakeSource{tickers: []string{"AAPL", "DELISTED", "MSFT"}}, provider, SelectFetchOrder)

	result, err := g.Generate(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "DELISTED", result.Skipped[0].Ticker)
	assert.Equal(t, []string{"AAPL", "MSFT"}, readCatalog(t, path).Stock)
	assert.Equal(t, 1, logs.FilterMessage("[SYMBOLS] Skipping DELISTED").Len())
}

func TestGenerateCapsAtLimitInFetchOrder(t *testing.T) {
	var tickers []string
	volumes := make(map[string]int64)
	for i := 0; i < 150; i++ {
		ticker := fmt.Sprintf("T%03d", i)
		tickers = append(tickers, ticker)
		volumes[ticker] = int64(i) // later tickers trade more
	}
	provider := &fakeProvider{volumes: volumes}
	g, path, _ := newTestGenerator(t, &fakeSource{tickers: tickers}, provider, SelectFetchOrder)

	_, err := g.Generate(context.Background())
	require.NoError(t, err)

	stock := readCatalog(t, path).Stock
	require.Len(t, stock, 100)
	assert.Equal(t, tickers[:100], stock, "fetch order, not volume order")
}

func TestGenerateVolumeSelection(t *testing.T) {
	provider := &fakeProvider{volumes: map[string]int64{"LOW": 1, "HIGH": 900, "MID": 50, "MID2": 50}}
	g, path, _ := newTestGenerator(t, &fakeSource{tickers: []string{"LOW", "MID", "HIGH", "MID2"}}, provider, SelectVolume)

	_, err := g.Generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"HIGH", "MID", "MID2", "LOW"}, readCatalog(t, path).Stock)
}

func TestGenerateIsIdempotent(t *testing.T) {
	provider := &fakeProvider{volumes: map[string]int64{"AAA-B": 10, "CCC": 20}}
	g, path, _ := newTestGenerator(t, &fakeSource{tickers: []string{"AAA.B", "CCC"}}, provider, SelectFetchOrder)

	_, err := g.Generate(context.Background())
	require.NoError(t, err)
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = g.Generate(context.Background())
	require.NoError(t, err)
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateWriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "dist")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0644))

	g := New(&fakeSource{err: errors.New("offline")}, &fakeProvider{},
		Options{OutputPath: filepath.Join(blocker, "config", "symbols.json")}, nil)

	result, err := g.Generate(context.Background())
	assert.Error(t, err)
	require.NotNil(t, result)
	assert.Equal(t, SourceFallback, result.Source)
}

func TestGenerateInterruptedKeepsExistingFile(t *testing.T) {
	g, path, logs := newTestGenerator(t, &fakeSource{err: context.Canceled}, &fakeProvider{}, SelectFetchOrder)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	existing := []byte(`{"stock":["PREV"]}`)
	require.NoError(t, os.WriteFile(path, existing, 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := g.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Nil(t, result.Catalog)
	assert.Empty(t, result.Source)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, existing, data)
	assert.Zero(t, logs.FilterMessageSnippet("falling back").Len())
}

func TestGenerateInterruptedDuringDownload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	provider := &fakeProvider{err: ctx.Err()}
	g, path, _ := newTestGenerator(t, &fakeSource{tickers: []string{"AAPL"}}, provider, SelectFetchOrder)

	_, err := g.Generate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestRunCancelledWritesNothing(t *testing.T) {
	g, path, logs := newTestGenerator(t, &fakeSource{err: context.Canceled}, &fakeProvider{}, SelectFetchOrder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NoError(t, g.Run(ctx, 0))
	assert.NoFileExists(t, path)
	assert.Equal(t, 1, logs.FilterMessage("[SYMBOLS] Symbol regeneration interrupted").Len())
	assert.Zero(t, logs.FilterMessage("[SYMBOLS] Symbol regeneration failed").Len())
}

func TestRunOnce(t *testing.T) {
	provider := &fakeProvider{volumes: map[string]int64{"AAPL": 1}}
	g, path, logs := newTestGenerator(t, &fakeSource{tickers: []string{"AAPL"}}, provider, SelectFetchOrder)

	require.NoError(t, g.Run(context.Background(), 0))

	assert.Equal(t, []string{"AAPL"}, readCatalog(t, path).Stock)
	assert.Equal(t, 1, logs.FilterMessage("[SYMBOLS] Symbol regeneration finished").Len())
}

func TestRunOnceReturnsWriteError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "dist")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	g := New(&fakeSource{tickers: []string{"AAPL"}}, &fakeProvider{volumes: map[string]int64{"AAPL": 1}},
		Options{OutputPath: filepath.Join(blocker, "symbols.json")}, nil)

	assert.Error(t, g.Run(context.Background(), 0))
}

func TestRunWithIntervalStopsOnCancel(t *testing.T) {
	provider := &fakeProvider{volumes: map[string]int64{"AAPL": 1}}
	g, _, logs := newTestGenerator(t, &fakeSource{tickers: []string{"AAPL"}}, provider, SelectFetchOrder)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx, 10*time.Millisecond) }()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("[SYMBOLS] Symbol regeneration finished").Len() >= 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
