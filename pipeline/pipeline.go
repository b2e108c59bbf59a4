// Package pipeline runs one scrape: fetch the catalog page, parse it, extract
// the product cards and write them out. Stages run once each, in order.
package pipeline

import (
	"fmt"
	"time"

	"books-scraper/config"
	"books-scraper/fetcher"
	"books-scraper/models"
	"books-scraper/parser"
	"books-scraper/sink"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Sink receives the extracted books
type Sink interface {
	WriteBooks(books []models.Book) error
}

// Summary describes a finished run
type Summary struct {
	RunID    string
	URL      string
	Items    int // product containers examined
	Written  int
	Skipped  int
	Duration time.Duration
}

// Pipeline wires the fetch, parse, extract and write stages together
type Pipeline struct {
	fetcher   fetcher.Fetcher
	extractor parser.Extractor
	sink      Sink
	log       *zap.Logger
}

// NewPipeline creates a Pipeline from already built stages
func NewPipeline(f fetcher.Fetcher, x parser.Extractor, s Sink, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{fetcher: f, extractor: x, sink: s, log: log}
}

// Run performs a single scrape of url keeping at most limit books.
// Nothing is written when the fetch fails.
func (p *Pipeline) Run(url string, limit int) (Summary, error) {
	return p.run(uuid.NewString(), url, limit)
}

func (p *Pipeline) run(runID, url string, limit int) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: runID, URL: url}
	log := p.log.With(zap.String("run_id", summary.RunID))

	log.Info("Starting scrape", zap.String("url", url), zap.Int("limit", limit))

	body, err := p.fetcher.Fetch(url)
	if err != nil {
		return summary, err
	}

	doc := parser.Parse(body)
	result := p.extractor.Extract(doc, limit)
	summary.Items = result.Items
	summary.Skipped = len(result.Skipped)

	if err := p.sink.WriteBooks(result.Books); err != nil {
		return summary, err
	}
	summary.Written = len(result.Books)
	summary.Duration = time.Since(start)

	log.Info("Scrape completed",
		zap.Int("items", summary.Items),
		zap.Int("written", summary.Written),
		zap.Int("skipped", summary.Skipped),
		zap.Duration("duration", summary.Duration),
	)
	return summary, nil
}

// Close releases the fetcher
func (p *Pipeline) Close() error {
	return p.fetcher.Close()
}

// Run builds the stages described by cfg, runs them once and releases them on every exit path
func Run(cfg *config.Config, log *zap.Logger) (Summary, error) {
	if log == nil {
		log = zap.NewNop()
	}
	runID := uuid.NewString()
	if err := cfg.Validate(); err != nil {
		return Summary{RunID: runID, URL: cfg.Target.URL}, fmt.Errorf("invalid configuration: %w", err)
	}

	extractor, err := parser.NewExtractor(cfg.Extract.Dialect, log)
	if err != nil {
		return Summary{RunID: runID, URL: cfg.Target.URL}, err
	}
	writer := sink.NewWriter(cfg.Output.Path, sink.Options{
		Quote:  cfg.Output.Quote,
		Atomic: cfg.Output.Atomic,
	}, log)
	f := fetcher.NewCollyFetcher(cfg.Target.UserAgent, cfg.Fetch.Timeout, log)

	p := NewPipeline(f, extractor, writer, log)
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn("Failed to release fetcher", zap.Error(err))
		}
	}()

	return p.run(runID, cfg.Target.URL, cfg.Extract.MaxBooks)
}
