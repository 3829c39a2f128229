package ports

import "net/http"

// HTTPClient sends provider API requests. *http.Client from pkg/http satisfies it;
// tests substitute a recording client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ HTTPClient = (*http.Client)(nil)
