// Package provider turns provider embed pages into direct media links.
//
// Every supported host has its own decoding strategy. Decode dispatches on the provider name;
// the strategies share nothing but the fetcher and the per-call Options.
package provider

import (
	"context"
	"math/rand/v2"
	"net/url"
	"strings"
	"time"

	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/source"
	"github.com/samber/lo"
)

// Provider describes a supported host.
type Provider struct {
	Name     source.ProviderName
	Strategy string

	// Referer is sent with embed requests and attached to the resulting link. Empty means none.
	Referer string
}

func (p Provider) String() string {
	return string(p.Name)
}

var builtins = []Provider{
	{Name: source.VOE, Strategy: "script redirect, node prompt or base64 hls field"},
	{Name: source.Doodstream, Strategy: "pass_md5 token exchange", Referer: "https://dood.li/"},
	{Name: source.SpeedFiles, Strategy: "ten stage deobfuscation"},
	{Name: source.Vidmoly, Strategy: "script file literal", Referer: "https://vidmoly.to/"},
	{Name: source.Luluvdo, Strategy: "script file literal", Referer: "https://luluvdo.com/"},
	{Name: source.Streamtape, Strategy: "two part literal join"},
	{Name: source.Vidoza, Strategy: "script or video source literal", Referer: "https://vidoza.net/"},
}

// Builtins returns the supported providers in declared order.
func Builtins() []Provider {
	return append([]Provider(nil), builtins...)
}

// Get finds a provider by name, ignoring case.
func Get(name string) (Provider, bool) {
	parsed := source.ParseProviderName(name)
	return lo.Find(builtins, func(p Provider) bool { return p.Name == parsed })
}

// Options are per-call decoding settings. Zero values pick sensible defaults.
type Options struct {
	// UserAgent is sent with every decoder request.
	UserAgent string

	// Timeout bounds the whole decode, all requests included.
	Timeout time.Duration

	// Rand feeds the random parts of generated links.
	Rand *rand.Rand

	// Now stamps expiry parameters.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = constant.UserAgent
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Decode fetches the embed page of name and extracts its direct link. There is no internal retry.
func Decode(ctx context.Context, fetcher network.Fetcher, name source.ProviderName, embed string, opts Options) (source.DirectLink, error) {
	opts = opts.withDefaults()
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	d := &decoder{fetcher: fetcher, opts: opts, name: name}
	if p, ok := Get(string(name)); ok {
		d.referer = p.Referer
	}

	log.WithFields(log.Fields{"provider": name, "embed": embed}).Debug("decoding embed page")

	switch name {
	case source.VOE:
		return d.voe(ctx, embed)
	case source.Doodstream:
		return d.doodstream(ctx, embed)
	case source.SpeedFiles:
		return d.speedfiles(ctx, embed)
	case source.Vidmoly, source.Luluvdo:
		return d.fileLiteral(ctx, embed)
	case source.Streamtape:
		return d.streamtape(ctx, embed)
	case source.Vidoza:
		return d.vidoza(ctx, embed)
	default:
		return source.DirectLink{}, &source.UnsupportedProviderError{Provider: name}
	}
}

// decoder carries the state of one Decode call.
type decoder struct {
	fetcher network.Fetcher
	opts    Options
	name    source.ProviderName
	referer string
}

func (d *decoder) headers(extra map[string]string) map[string]string {
	headers := map[string]string{"User-Agent": d.opts.UserAgent}
	if d.referer != "" {
		headers["Referer"] = d.referer
	}
	for k, v := range extra {
		headers[k] = v
	}
	return headers
}

// page fetches rawURL and fails on error statuses.
func (d *decoder) page(ctx context.Context, rawURL string, extra map[string]string) (*network.Response, error) {
	return network.Get(ctx, d.fetcher, rawURL, d.headers(extra))
}

// link validates raw and attaches the provider's Referer, if any.
func (d *decoder) link(raw string) (source.DirectLink, error) {
	var headers map[string]string
	if d.referer != "" {
		headers = map[string]string{"Referer": d.referer}
	}
	return source.NewDirectLink(d.name, raw, headers)
}

func (d *decoder) notFound(embed, what string) error {
	return &source.DecodeError{Provider: d.name, URL: embed, Kind: source.ErrPatternNotFound, Detail: what}
}

func (d *decoder) invalid(embed, what string, err error) error {
	return &source.DecodeError{Provider: d.name, URL: embed, Kind: source.ErrDecode, Detail: what, Err: err}
}

// absolute resolves ref against base, keeping ref untouched when either fails to parse.
func absolute(base, ref string) string {
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := b.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return r.String()
}
