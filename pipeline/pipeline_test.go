package pipeline

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"books-scraper/config"
	"books-scraper/fetcher"
	"books-scraper/models"
	"books-scraper/parser"
	"books-scraper/sink"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const catalogPage = `<!DOCTYPE html>
<html lang="en-us">
<head><title>All products | Books to Scrape - Sandbox</title></head>
<body>
<ol class="row">
  <li><article class="product_pod">
    <div class="image_container"><a href="/a.html"><img src="/img/a.jpg" alt="The Great Gatsby" class="thumbnail"></a></div>
    <p class="star-rating Three"><i class="icon-star"></i></p>
    <h3><a href="/a.html" title="The Great Gatsby">The Great Gatsby</a></h3>
    <div class="product_price"><p class="price_color">£12.34</p><p class="instock availability">In stock</p></div>
  </article></li>
  <li><article class="product_pod">
    <div class="image_container"><a href="/b.html"><img src="/img/b.jpg" alt="No price"></a></div>
    <h3><a href="/b.html" title="No Price Here">No Price Here</a></h3>
    <div class="product_price"><p class="instock availability">In stock</p></div>
  </article></li>
  <li><article class="product_pod">
    <div class="image_container"><a href="/c.html"><img src="/img/c.jpg" alt="Sapiens"></a></div>
    <h3><a href="/c.html" title="Sapiens">Sapiens</a></h3>
    <div class="product_price"><p class="price_color">£54.23</p></div>
  </article></li>
</ol>
</body>
</html>`

const header = "URL,Cover Image,Title,Price\n"

func newCatalogServer(t *testing.T, body string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	hits := &atomic.Int64{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)
	return ts, hits
}

func testConfig(t *testing.T, url string) *config.Config {
	cfg := config.GetDefaultConfig()
	cfg.Target.URL = url
	cfg.Output.Path = filepath.Join(t.TempDir(), "books.csv")
	return cfg
}

func TestRun_WritesBooks(t *testing.T) {
	ts, hits := newCatalogServer(t, catalogPage)

	for _, dialect := range []string{config.DialectXPath, config.DialectCSS} {
		t.Run(dialect, func(t *testing.T) {
			cfg := testConfig(t, ts.URL+"/")
			cfg.Extract.Dialect = dialect

			summary, err := Run(cfg, zaptest.NewLogger(t))
			require.NoError(t, err)

			got, err := os.ReadFile(cfg.Output.Path)
			require.NoError(t, err)
			assert.Equal(t, header+
				"/a.html,/img/a.jpg,The Great Gatsby,£12.34\n"+
				"/c.html,/img/c.jpg,Sapiens,£54.23\n", string(got))

			assert.NotEmpty(t, summary.RunID)
			assert.Equal(t, ts.URL+"/", summary.URL)
			assert.Equal(t, 3, summary.Items)
			assert.Equal(t, 2, summary.Written)
			assert.Equal(t, 1, summary.Skipped)
		})
	}
	assert.Equal(t, int64(2), hits.Load())
}

func TestRun_RespectsMaxBooks(t *testing.T) {
	ts, _ := newCatalogServer(t, catalogPage)
	cfg := testConfig(t, ts.URL+"/")
	cfg.Extract.MaxBooks = 1

	summary, err := Run(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Written)

	got, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, header+"/a.html,/img/a.jpg,The Great Gatsby,£12.34\n", string(got))
}

func TestRun_EmptyPageWritesHeaderOnly(t *testing.T) {
	ts, _ := newCatalogServer(t, "")
	cfg := testConfig(t, ts.URL+"/")

	summary, err := Run(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Zero(t, summary.Written)

	got, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, header, string(got))
}

func TestRun_QuotedOutput(t *testing.T) {
	page := strings.Replace(catalogPage, `title="Sapiens"`, `title="Sapiens, A Brief History"`, 1)
	ts, _ := newCatalogServer(t, page)
	cfg := testConfig(t, ts.URL+"/")
	cfg.Output.Quote = true

	_, err := Run(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Contains(t, string(got), "/c.html,/img/c.jpg,\"Sapiens, A Brief History\",£54.23\n")
}

func TestRun_FetchFailureLeavesOutputUntouched(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL + "/"
	ts.Close()

	t.Run("no file created", func(t *testing.T) {
		cfg := testConfig(t, url)

		_, err := Run(cfg, zaptest.NewLogger(t))
		var fetchErr *fetcher.FetchError
		require.True(t, errors.As(err, &fetchErr))

		_, statErr := os.Stat(cfg.Output.Path)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("existing file kept", func(t *testing.T) {
		cfg := testConfig(t, url)
		cfg.Output.Atomic = false
		require.NoError(t, os.WriteFile(cfg.Output.Path, []byte("previous run\n"), 0o644))

		_, err := Run(cfg, zaptest.NewLogger(t))
		require.Error(t, err)

		got, readErr := os.ReadFile(cfg.Output.Path)
		require.NoError(t, readErr)
		assert.Equal(t, "previous run\n", string(got))
	})
}

func TestRun_WriteFailure(t *testing.T) {
	ts, _ := newCatalogServer(t, catalogPage)
	cfg := testConfig(t, ts.URL+"/")
	cfg.Output.Path = filepath.Join(t.TempDir(), "missing", "books.csv")

	summary, err := Run(cfg, zaptest.NewLogger(t))
	var writeErr *sink.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Zero(t, summary.Written)
	assert.Equal(t, 2, summary.Items-summary.Skipped)
}

func TestRun_InvalidConfigSkipsNetwork(t *testing.T) {
	ts, hits := newCatalogServer(t, catalogPage)
	cfg := testConfig(t, ts.URL+"/")
	cfg.Extract.Dialect = "regex"

	summary, err := Run(cfg, nil)
	assert.ErrorContains(t, err, "invalid configuration")
	assert.Zero(t, hits.Load())
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, ts.URL+"/", summary.URL)
}

type stubFetcher struct {
	body   []byte
	err    error
	closed bool
}

func (s *stubFetcher) Fetch(url string) ([]byte, error) {
	return s.body, s.err
}

func (s *stubFetcher) Close() error {
	s.closed = true
	return nil
}

type recordingSink struct {
	calls int
	books []models.Book
}

func (r *recordingSink) WriteBooks(books []models.Book) error {
	r.calls++
	r.books = books
	return nil
}

func TestPipeline_FetchErrorSkipsSink(t *testing.T) {
	f := &stubFetcher{err: &fetcher.FetchError{URL: "http://example.invalid/", Err: errors.New("no such host")}}
	s := &recordingSink{}
	p := NewPipeline(f, parser.NewXPathExtractor(nil), s, zaptest.NewLogger(t))

	_, err := p.Run("http://example.invalid/", 16)
	assert.ErrorContains(t, err, "no such host")
	assert.Zero(t, s.calls)

	require.NoError(t, p.Close())
	assert.True(t, f.closed)
}

func TestPipeline_PassesBooksInOrder(t *testing.T) {
	f := &stubFetcher{body: []byte(catalogPage)}
	s := &recordingSink{}
	p := NewPipeline(f, parser.NewCSSExtractor(nil), s, nil)

	summary, err := p.Run("http://books.example/", 16)
	require.NoError(t, err)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, []models.Book{
		{URL: "/a.html", CoverImage: "/img/a.jpg", Title: "The Great Gatsby", Price: "£12.34"},
		{URL: "/c.html", CoverImage: "/img/c.jpg", Title: "Sapiens", Price: "£54.23"},
	}, s.books)
	assert.Equal(t, 2, summary.Written)
}
