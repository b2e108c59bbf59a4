package fetcher

import "fmt"

// Fetcher interface defines the contract for fetching implementations
type Fetcher interface {
	// Fetch performs a single GET against url and returns the raw body.
	// The status code is not inspected; only transport failures are errors.
	Fetch(url string) ([]byte, error)
	// Close releases the connections held by the fetcher
	Close() error
}

// FetchError reports a transport level failure for a page request
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
