package parser

import (
	"books-scraper/models"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// CSS selectors matching the same product card markup as the XPath dialect.
// Class selectors match on a class token rather than the whole attribute.
const (
	cssProduct = "article.product_pod"
	cssAnchor  = "h3 > a"
	cssCover   = "div.image_container > a > img"
	cssPrice   = "div.product_price > p.price_color"
)

// CSSExtractor extracts books with goquery selections
type CSSExtractor struct {
	log *zap.Logger
}

// NewCSSExtractor creates a new CSSExtractor instance
func NewCSSExtractor(log *zap.Logger) *CSSExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSSExtractor{log: log}
}

// Extract implements the Extractor interface
func (x *CSSExtractor) Extract(doc *Document, limit int) Result {
	c := &collector{log: x.log, limit: limit}

	goquery.NewDocumentFromNode(doc.Root).Find(cssProduct).EachWithBreak(func(i int, s *goquery.Selection) bool {
		if c.full() {
			return false
		}
		book, err := x.extractBook(s)
		c.add(i, book, err)
		return true
	})

	return c.result
}

// extractBook reads the four fields; every Find is scoped to the item selection
func (x *CSSExtractor) extractBook(s *goquery.Selection) (models.Book, *MissingFieldError) {
	var book models.Book

	anchor := s.Find(cssAnchor).First()
	if anchor.Length() == 0 {
		return book, &MissingFieldError{Field: FieldURL}
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return book, &MissingFieldError{Field: FieldURL}
	}
	title, ok := anchor.Attr("title")
	if !ok {
		return book, &MissingFieldError{Field: FieldTitle}
	}

	src, ok := s.Find(cssCover).First().Attr("src")
	if !ok {
		return book, &MissingFieldError{Field: FieldCoverImage}
	}

	price := s.Find(cssPrice).First()
	if price.Length() == 0 {
		return book, &MissingFieldError{Field: FieldPrice}
	}

	book.URL = href
	book.Title = title
	book.CoverImage = src
	book.Price = price.Text()
	return book, nil
}
