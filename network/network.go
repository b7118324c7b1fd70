// Package network performs every HTTP exchange of a resolution: catalog pages, redirect hops and embed pages.
//
// All stages share one Fetcher so that proxy routing, TLS fingerprinting, pacing and connection reuse
// are configured in a single place.
package network

import (
	"context"
	"net/http"

	"github.com/aniresolve/aniresolve/source"
)

// Fetcher issues a single request and returns the decoded response.
// Non-2xx statuses are not errors at this level, use Response.Check or Get for that.
type Fetcher interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// Request describes a fetch. Method defaults to GET.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string

	// NoRedirect returns 3xx responses as-is instead of following them.
	NoRedirect bool
}

// Response is a fully read response.
type Response struct {
	// URL is the final URL after any redirects were followed.
	URL    string
	Status int
	Header http.Header
	Body   []byte

	// Location is the absolute redirect target of a 3xx response, empty otherwise.
	Location string
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// IsRedirect reports a 3xx status carrying a Location.
func (r *Response) IsRedirect() bool {
	return r.Status >= 300 && r.Status < 400 && r.Location != ""
}

// Check converts an error status into a FetchError.
func (r *Response) Check() error {
	if r.Status >= http.StatusBadRequest {
		return &source.FetchError{Cause: source.HTTPStatus, URL: r.URL, Status: r.Status}
	}
	return nil
}

// Get fetches url with optional headers and fails on error statuses.
func Get(ctx context.Context, f Fetcher, url string, headers map[string]string) (*Response, error) {
	resp, err := f.Do(ctx, &Request{URL: url, Headers: headers})
	if err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, err
	}
	return resp, nil
}
