package parser

import (
	"fmt"

	"books-scraper/config"
	"books-scraper/models"

	"go.uber.org/zap"
)

// Field names reported in MissingFieldError
const (
	FieldURL        = "url"
	FieldTitle      = "title"
	FieldCoverImage = "cover image"
	FieldPrice      = "price"
)

// Extractor pulls books out of a parsed catalog page
type Extractor interface {
	// Extract returns at most limit books in document order.
	// A limit of zero or less means no cap.
	Extract(doc *Document, limit int) Result
}

// Result is the outcome of one extraction pass
type Result struct {
	Books   []models.Book
	Skipped []*MissingFieldError
	// Items is the number of product containers examined
	Items int
}

// MissingFieldError marks a product container that lacks one of its fields
type MissingFieldError struct {
	Index int // zero-based position of the container in the page
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("product %d: missing %s", e.Index, e.Field)
}

// NewExtractor returns the extractor for the configured dialect
func NewExtractor(dialect string, log *zap.Logger) (Extractor, error) {
	switch dialect {
	case config.DialectXPath:
		return NewXPathExtractor(log), nil
	case config.DialectCSS:
		return NewCSSExtractor(log), nil
	default:
		return nil, fmt.Errorf("unknown extract dialect %q", dialect)
	}
}

// collector accumulates books and skips while enforcing the limit
type collector struct {
	log    *zap.Logger
	limit  int
	result Result
}

func (c *collector) full() bool {
	return c.limit > 0 && len(c.result.Books) >= c.limit
}

// add records the outcome for the item at index. A non-nil err means the item was dropped.
func (c *collector) add(index int, book models.Book, err *MissingFieldError) {
	c.result.Items++
	if err != nil {
		err.Index = index
		c.log.Warn("Skipping malformed product", zap.Int("index", index), zap.String("field", err.Field))
		c.result.Skipped = append(c.result.Skipped, err)
		return
	}
	c.result.Books = append(c.result.Books, book)
}
