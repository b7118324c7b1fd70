package provider

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/source"
)

var doodToken = regexp.MustCompile(`(/pass_md5/[\w-]+/([\w-]+))`)

const alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// doodstream exchanges the pass_md5 token of the embed page for the base media URL.
// The embed host redirects once to its API sibling, which then serves every further request.
func (d *decoder) doodstream(ctx context.Context, embed string) (source.DirectLink, error) {
	resp, err := d.fetcher.Do(ctx, &network.Request{URL: embed, Headers: d.headers(nil), NoRedirect: true})
	if err != nil {
		return source.DirectLink{}, err
	}

	api, err := url.Parse(embed)
	if err != nil {
		return source.DirectLink{}, d.invalid(embed, "embed url", err)
	}

	if resp.IsRedirect() {
		target, err := url.Parse(resp.Location)
		if err != nil {
			return source.DirectLink{}, d.invalid(embed, "redirect location", err)
		}
		api = target
		if resp, err = d.page(ctx, resp.Location, nil); err != nil {
			return source.DirectLink{}, err
		}
	} else if err := resp.Check(); err != nil {
		return source.DirectLink{}, err
	}

	m := doodToken.FindStringSubmatch(resp.Text())
	if m == nil {
		return source.DirectLink{}, &source.DecodeError{Provider: d.name, URL: embed, Kind: source.ErrTokenNotFound}
	}
	path, token := m[1], m[2]

	origin := api.Scheme + "://" + api.Host
	d.referer = origin + "/"

	pass, err := d.page(ctx, origin+path, map[string]string{"Referer": resp.URL})
	if err != nil {
		return source.DirectLink{}, err
	}

	base := strings.TrimSpace(pass.Text())
	if base == "" || strings.EqualFold(base, "RELOAD") {
		return source.DirectLink{}, d.invalid(embed, "empty pass_md5 answer", nil)
	}

	expiry := strconv.FormatInt(d.opts.Now().UnixMilli(), 10)
	return d.link(base + d.random(10) + "?token=" + token + "&expiry=" + expiry)
}

func (d *decoder) random(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[d.opts.Rand.IntN(len(alphanumeric))]
	}
	return string(b)
}
