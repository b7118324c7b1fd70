// Package redirect follows the aggregator's redirect links to the provider embed page.
package redirect

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/source"
)

// DefaultMaxHops bounds the number of requests spent on one chain.
const DefaultMaxHops = 5

// Policy adds headers to every hop whose host matches one of Hosts.
// A host matches when it equals an entry or is a subdomain of it.
type Policy struct {
	Hosts   []string
	Headers map[string]string
}

func (p Policy) matches(host string) bool {
	host = strings.ToLower(host)
	for _, h := range p.Hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// ProviderPolicies present each embed host with its own origin as Referer.
var ProviderPolicies = []Policy{
	{Hosts: []string{"vidmoly.to", "vidmoly.me", "vidmoly.net"}, Headers: map[string]string{"Referer": "https://vidmoly.to/"}},
	{Hosts: []string{"luluvdo.com", "luluvid.com"}, Headers: map[string]string{"Referer": "https://luluvdo.com/"}},
	{Hosts: []string{"dood.li", "dood.wf", "dood.so", "dood.to", "dood.pm", "doodstream.com", "d0000d.com", "d000d.com", "ds2play.com"}, Headers: map[string]string{"Referer": "https://dood.li/"}},
	{Hosts: []string{"vidoza.net", "videzz.net"}, Headers: map[string]string{"Referer": "https://vidoza.net/"}},
}

// Resolver follows redirect chains without letting the client follow them, so hops can be counted.
type Resolver struct {
	fetcher  network.Fetcher
	policies []Policy
	maxHops  int
}

// New returns a resolver. The aggregator at base is added as a policy of its own.
// maxHops below one falls back to DefaultMaxHops.
func New(fetcher network.Fetcher, base string, maxHops int) *Resolver {
	if maxHops < 1 {
		maxHops = DefaultMaxHops
	}

	policies := append([]Policy(nil), ProviderPolicies...)
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		policies = append(policies, Policy{
			Hosts:   []string{strings.ToLower(u.Hostname())},
			Headers: map[string]string{"Referer": u.Scheme + "://" + u.Host + "/"},
		})
	}

	return &Resolver{fetcher: fetcher, policies: policies, maxHops: maxHops}
}

// Headers returns the headers the policy table assigns to rawURL.
func (r *Resolver) Headers(rawURL string) map[string]string {
	headers := make(map[string]string)
	u, err := url.Parse(rawURL)
	if err != nil {
		return headers
	}
	for _, p := range r.policies {
		if p.matches(u.Hostname()) {
			for k, v := range p.Headers {
				headers[k] = v
			}
		}
	}
	return headers
}

// Resolve returns the URL of the first non-redirect response reached from link.
// At most maxHops requests are made.
func (r *Resolver) Resolve(ctx context.Context, link string) (string, error) {
	current := link
	for hop := 1; hop <= r.maxHops; hop++ {
		resp, err := r.fetcher.Do(ctx, &network.Request{
			URL:        current,
			Headers:    r.Headers(current),
			NoRedirect: true,
		})
		if err != nil {
			return "", atHop(err, hop)
		}

		if resp.IsRedirect() {
			log.WithFields(log.Fields{"hop": hop, "from": current, "to": resp.Location}).Debug("redirect")
			current = resp.Location
			continue
		}
		if resp.Status >= 300 && resp.Status < 400 {
			// a redirect without a target is not an embed page
			return "", &source.FetchError{Cause: source.HTTPStatus, URL: current, Hop: hop, Status: resp.Status}
		}
		if err := resp.Check(); err != nil {
			return "", atHop(err, hop)
		}
		return current, nil
	}

	return "", &source.TooManyRedirectsError{URL: link, Hops: r.maxHops}
}

func atHop(err error, hop int) error {
	var fetchErr *source.FetchError
	if errors.As(err, &fetchErr) {
		fetchErr.Hop = hop
	}
	return err
}
