package catalog

import (
	"sort"
	"strings"
)

// Catalog is the categorized symbol universe consumed by the asset manager.
// Stock keeps fetch order. Crypto, Index and Commodity are sets and are kept
// sorted so repeated runs encode to the same bytes.
type Catalog struct {
	Stock     []string `json:"stock"`
	Crypto    []string `json:"crypto"`
	Index     []string `json:"index"`
	Commodity []string `json:"commodity"`
}

// hardcoded stock list (top 100 weighted S&P 500 companies), used when the
// dynamic fetch fails
var fallbackStocks = [...]string{
	"NVDA", "MSFT", "AAPL", "AMZN", "META", "AVGO", "GOOGL", "GOOG", "TSLA", "BRK.B",
	"JPM", "WMT", "LLY", "V", "ORCL", "MA", "NFLX", "XOM", "COST", "JNJ",
	"HD", "PLTR", "PG", "BAC", "ABBV", "CVX", "KO", "GE", "AMD", "CSCO",
	"TMUS", "WFC", "CRM", "UNH", "IBM", "PM", "MS", "INTU", "GS", "LIN",
	"ABT", "DIS", "AXP", "MCD", "MRK", "RTX", "NOW", "CAT", "T", "PEP",
	"UBER", "BKNG", "TMO", "VZ", "BA", "SCHW", "ISRG", "QCOM", "C", "GEV",
	"BLK", "TXN", "ACN", "SPGI", "AMGN", "ADBE", "BSX", "ETN", "SYK", "AMAT",
	"ANET", "NEE", "DHR", "HON", "GILD", "PGR", "TJX", "BX", "PFE", "DE",
	"PANW", "COF", "KKR", "UNP", "APH", "LOW", "LRCX", "CMCSA", "ADP", "MU",
	"KLAC", "COP", "VRTX", "MDT", "CRWD", "NKE", "ADI", "SNPS", "SBUX", "CB",
}

var cryptoPairs = [...]string{
	"BTC/USD", "ETH/USD", "XRP/USD", "USDT/USD", "BNB/USD",
	"SOL/USD", "USDC/USD", "DOGE/USD", "TRX/USD", "ADA/USD",
	"HYPE/USDT", "SUI/USD", "XLM/USD", "LINK/USD", "HBAR/USD",
	"BCH/USD", "AVAX/USD", "LTC/USD", "SHIB/USD", "LEOu/USD",
	"TON/USD", "USDe/USD", "UNI/USD", "DOT/USD", "XMR/USD",
}

var indexTickers = [...]string{"SPY", "QQQ", "IWM", "DIA"}

var commoditySymbols = [...]string{"XAU/USD"}

// FallbackStocks returns a copy of the hardcoded 100 ticker list in its fixed order.
func FallbackStocks() []string {
	out := make([]string, len(fallbackStocks))
	copy(out, fallbackStocks[:])
	return out
}

// CryptoPairs returns the crypto pairs, sorted and deduplicated.
func CryptoPairs() []string { return sortedSet(cryptoPairs[:]) }

// Indices returns the index tickers in sorted order.
func Indices() []string { return sortedSet(indexTickers[:]) }

// Commodities returns the commodity symbols, sorted.
func Commodities() []string { return sortedSet(commoditySymbols[:]) }

// New merges the stock list with the static crypto, index and commodity sets.
func New(stock []string) *Catalog {
	stocks := make([]string, len(stock))
	copy(stocks, stock)

	return &Catalog{
		Stock:     stocks,
		Crypto:    CryptoPairs(),
		Index:     Indices(),
		Commodity: Commodities(),
	}
}

// NormalizeTicker converts a reference-table ticker to the market data
// convention, e.g. BRK.B -> BRK-B.
func NormalizeTicker(ticker string) string {
	return strings.ReplaceAll(ticker, ".", "-")
}

// NormalizeTickers applies NormalizeTicker to every element, keeping order.
func NormalizeTickers(tickers []string) []string {
	out := make([]string, len(tickers))
	for i, ticker := range tickers {
		out[i] = NormalizeTicker(ticker)
	}
	return out
}

func sortedSet(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
