package parser

import (
	"books-scraper/models"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// XPath expressions for the product card markup. Field expressions are
// evaluated with the product container as the navigator root.
var (
	xpathProduct = xpath.MustCompile(`//article[@class='product_pod']`)
	xpathAnchor  = xpath.MustCompile(`.//h3/a`)
	xpathCover   = xpath.MustCompile(`.//div[@class='image_container']/a/img`)
	xpathPrice   = xpath.MustCompile(`.//div[@class='product_price']/p[@class='price_color']`)
)

// XPathExtractor extracts books using XPath queries over the html.Node tree
type XPathExtractor struct {
	log *zap.Logger
}

// NewXPathExtractor creates a new XPathExtractor instance
func NewXPathExtractor(log *zap.Logger) *XPathExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &XPathExtractor{log: log}
}

// Extract implements the Extractor interface
func (x *XPathExtractor) Extract(doc *Document, limit int) Result {
	c := &collector{log: x.log, limit: limit}

	for i, item := range htmlquery.QuerySelectorAll(doc.Root, xpathProduct) {
		if c.full() {
			break
		}
		book, err := x.extractBook(item)
		c.add(i, book, err)
	}

	return c.result
}

// extractBook reads the four fields from the subtree rooted at item
func (x *XPathExtractor) extractBook(item *html.Node) (models.Book, *MissingFieldError) {
	var book models.Book

	anchor := htmlquery.QuerySelector(item, xpathAnchor)
	if anchor == nil {
		return book, &MissingFieldError{Field: FieldURL}
	}
	href, ok := attr(anchor, "href")
	if !ok {
		return book, &MissingFieldError{Field: FieldURL}
	}
	title, ok := attr(anchor, "title")
	if !ok {
		return book, &MissingFieldError{Field: FieldTitle}
	}

	img := htmlquery.QuerySelector(item, xpathCover)
	if img == nil {
		return book, &MissingFieldError{Field: FieldCoverImage}
	}
	src, ok := attr(img, "src")
	if !ok {
		return book, &MissingFieldError{Field: FieldCoverImage}
	}

	price := htmlquery.QuerySelector(item, xpathPrice)
	if price == nil {
		return book, &MissingFieldError{Field: FieldPrice}
	}

	book.URL = href
	book.Title = title
	book.CoverImage = src
	book.Price = htmlquery.InnerText(price)
	return book, nil
}

// attr distinguishes an absent attribute from an empty one
func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}
