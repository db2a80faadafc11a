package generator

import (
	"fmt"
	"sort"

	"symbolgen/pkg/marketdata"
)

type Selection string

const (
	// SelectFetchOrder keeps the first N tickers whose volume was extracted,
	// in fetch order. Volume magnitude is not considered.
	SelectFetchOrder Selection = "fetch-order"
	// SelectVolume ranks by volume, highest first, ties in fetch order.
	SelectVolume Selection = "volume"

	DefaultStockLimit = 100
)

func ParseSelection(s string) (Selection, error) {
	switch Selection(s) {
	case "", SelectFetchOrder:
		return SelectFetchOrder, nil
	case SelectVolume:
		return SelectVolume, nil
	default:
		return "", fmt.Errorf("unknown selection policy %q (want %q or %q)", s, SelectFetchOrder, SelectVolume)
	}
}

// SelectStocks picks at most limit tickers from the volume table.
func SelectStocks(table *marketdata.VolumeTable, limit int, policy Selection) []string {
	tickers := make([]string, len(table.Tickers))
	copy(tickers, table.Tickers)

	if policy == SelectVolume {
		sort.SliceStable(tickers, func(i, j int) bool {
			return table.Volumes[tickers[i]].GreaterThan(table.Volumes[tickers[j]])
		})
	}

	if limit >= 0 && len(tickers) > limit {
		tickers = tickers[:limit]
	}
	return tickers
}
