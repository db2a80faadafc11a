package constituents

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrSymbolColumnNotFound = errors.New("symbol column not found in constituents table")
	ErrNoTickers            = errors.New("constituents table has no tickers")
)

// HTTPError is returned when the constituents page answers with a non-200 status.
// Err carries the start of the response body, when there was one.
type HTTPError struct {
	URL        string
	StatusCode int
	Status     string
	Err        error
}

func NewHTTPError(url string, statusCode int, err error) *HTTPError {
	return &HTTPError{
		URL:        url,
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Err:        err,
	}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("GET %s: %d %s: %v", e.URL, e.StatusCode, e.Status, e.Err)
	}
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, e.Status)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}
