package models

// Book represents one product card scraped from a catalog listing page
type Book struct {
	URL        string // Link to the detail page, relative or absolute as found
	CoverImage string // Thumbnail reference, relative or absolute as found
	Title      string
	Price      string // Display text including the currency symbol
}
