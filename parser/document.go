package parser

import (
	"bytes"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a parsed page. Nodes handed out by extractors are owned by it.
type Document struct {
	Root *html.Node
}

// Parse builds a Document from raw markup. Malformed or truncated input is
// repaired by the HTML5 tree builder; empty input yields an empty tree.
func Parse(data []byte) *Document {
	root, err := htmlquery.Parse(bytes.NewReader(data))
	if err != nil || root == nil {
		// Only reachable on reader failure, which bytes.Reader never reports
		return &Document{Root: &html.Node{Type: html.DocumentNode}}
	}
	return &Document{Root: root}
}
