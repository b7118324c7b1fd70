package catalog

import (
	"context"
	"sort"

	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/source"
)

// Client fetches and parses episode pages.
type Client struct {
	fetcher network.Fetcher
	parser  *Parser
	base    string
}

// NewClient returns a client resolving slug references against base.
func NewClient(fetcher network.Fetcher, parser *Parser, base string) *Client {
	return &Client{fetcher: fetcher, parser: parser, base: base}
}

// Base returns the aggregator base URL.
func (c *Client) Base() string {
	return c.base
}

// Fetch loads and parses the page of ref.
func (c *Client) Fetch(ctx context.Context, ref source.MediaReference) (*Page, error) {
	pageURL := ref.URL(c.base)
	log.WithFields(log.Fields{"url": pageURL}).Debug("fetching catalog page")

	resp, err := c.fetcher.Do(ctx, &network.Request{
		URL:     pageURL,
		Headers: map[string]string{"Referer": c.base},
	})
	if err != nil {
		return nil, err
	}

	page, err := c.parser.ParseResponse(resp)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"url":       pageURL,
		"title":     page.Title,
		"providers": len(page.Providers),
	}).Debug("parsed catalog page")
	return page, nil
}

func sortNames(names []source.ProviderName) {
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
}
