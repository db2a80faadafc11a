package constituents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	DefaultURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

	symbolHeader   = "Symbol"
	errorBodyLimit = 512
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Source returns the raw (un-normalized) ticker universe.
type Source interface {
	Tickers(ctx context.Context) ([]string, error)
}

// Wikipedia scrapes the S&P 500 constituents table.
type Wikipedia struct {
	URL    string
	Client *http.Client
	Logger *zap.Logger
}

func NewWikipedia(url string, client *http.Client, logger *zap.Logger) *Wikipedia {
	if url == "" {
		url = DefaultURL
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Wikipedia{
		URL:    url,
		Client: client,
		Logger: logger,
	}
}

func (w *Wikipedia) Tickers(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := w.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", w.URL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var bodyErr error
		body, _ := io.ReadAll(io.LimitReader(res.Body, errorBodyLimit))
		if text := strings.TrimSpace(string(body)); text != "" {
			bodyErr = errors.New(text)
		}
		return nil, NewHTTPError(w.URL, res.StatusCode, bodyErr)
	}

	tickers, err := ParseTickers(res.Body)
	if err != nil {
		return nil, err
	}

	w.Logger.Debug("[SYMBOLS] Parsed constituents table",
		zap.String("url", w.URL),
		zap.Int("tickers", len(tickers)),
	)
	return tickers, nil
}

// ParseTickers reads the Symbol column of the constituents table. The table
// with id "constituents" is preferred, otherwise the first table on the page.
func ParseTickers(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	table := doc.Find("table#constituents").First()
	if table.Length() == 0 {
		table = doc.Find("table").First()
	}
	if table.Length() == 0 {
		return nil, fmt.Errorf("no table on page: %w", ErrSymbolColumnNotFound)
	}

	column := -1
	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		headers := row.Find("th")
		if headers.Length() == 0 {
			return true
		}
		headers.EachWithBreak(func(j int, th *goquery.Selection) bool {
			if strings.TrimSpace(th.Text()) == symbolHeader {
				column = j
				return false
			}
			return true
		})
		return false
	})
	if column < 0 {
		return nil, ErrSymbolColumnNotFound
	}

	var tickers []string
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() <= column {
			return
		}
		ticker := strings.TrimSpace(cells.Eq(column).Text())
		if ticker != "" {
			tickers = append(tickers, ticker)
		}
	})

	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}
	return tickers, nil
}
