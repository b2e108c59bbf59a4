package fetcher

import (
	"errors"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// errNoResponse guards against a visit that returned without ever reaching OnResponse
var errNoResponse = errors.New("no response received")

// CollyFetcher implements the Fetcher interface using colly.
// It is not safe for concurrent use.
type CollyFetcher struct {
	collector *colly.Collector
	transport *http.Transport
	log       *zap.Logger

	// set by OnResponse during Fetch
	body     []byte
	received bool
}

// NewCollyFetcher creates a new CollyFetcher instance.
// A zero timeout keeps the transport default.
func NewCollyFetcher(userAgent string, timeout time.Duration, log *zap.Logger) *CollyFetcher {
	if log == nil {
		log = zap.NewNop()
	}

	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(0),
	)

	transport := http.DefaultTransport.(*http.Transport).Clone()
	c.WithTransport(transport)
	if timeout > 0 {
		c.SetRequestTimeout(timeout)
	}

	cf := &CollyFetcher{
		collector: c,
		transport: transport,
		log:       log,
	}

	// colly has already re-encoded bodies whose Content-Type names a
	// non UTF-8 charset; the HTML parser only reads UTF-8
	c.OnResponse(func(r *colly.Response) {
		cf.received = true
		cf.body = r.Body
		log.Info("Fetched page",
			zap.String("url", r.Request.URL.String()),
			zap.Int("status", r.StatusCode),
			zap.Int("bytes", len(r.Body)),
		)
	})

	c.OnError(func(r *colly.Response, err error) {
		log.Warn("Error fetching page", zap.Stringer("url", r.Request.URL), zap.Error(err))
	})

	return cf
}

// Fetch implements the Fetcher interface
func (cf *CollyFetcher) Fetch(url string) ([]byte, error) {
	cf.body, cf.received = nil, false

	cf.log.Debug("Visiting", zap.String("url", url))
	if err := cf.collector.Visit(url); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	cf.collector.Wait()

	if !cf.received {
		return nil, &FetchError{URL: url, Err: errNoResponse}
	}
	return cf.body, nil
}

// Close drops idle keep-alive connections
func (cf *CollyFetcher) Close() error {
	cf.transport.CloseIdleConnections()
	return nil
}
