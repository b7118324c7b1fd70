package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/source"
	"github.com/spf13/viper"
	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// maxBodySize bounds how much of a response is read into memory.
const maxBodySize = 16 << 20

// Options configure a Client.
type Options struct {
	// Timeout applies to each Do call, including reading the body.
	Timeout   time.Duration
	UserAgent string

	// Proxy is a proxy URL. socks5 and socks5h are dialed through x/net/proxy, http and https are passed to the transport.
	Proxy string

	// Fingerprint mimics a Chrome TLS handshake.
	Fingerprint bool

	// RateLimit caps requests per second. Zero or less disables pacing.
	RateLimit float64
}

// OptionsFromConfig reads the network and tor sections of the configuration.
// Enabling tor routes everything through its SOCKS listener, overriding network.proxy.
func OptionsFromConfig() Options {
	opts := Options{
		Timeout:     time.Duration(viper.GetInt(key.NetworkTimeout)) * time.Second,
		UserAgent:   viper.GetString(key.NetworkUserAgent),
		Proxy:       viper.GetString(key.NetworkProxy),
		Fingerprint: viper.GetBool(key.NetworkTLSFingerprint),
		RateLimit:   viper.GetFloat64(key.NetworkRateLimit),
	}
	if viper.GetBool(key.TorEnable) {
		opts.Proxy = "socks5h://" + viper.GetString(key.TorSocksAddress)
	}
	return opts
}

// Client is the production Fetcher.
type Client struct {
	follow    *http.Client
	manual    *http.Client
	limiter   *rate.Limiter
	timeout   time.Duration
	userAgent string
	proxied   bool
}

// New builds a Client. Both redirect modes share one transport and therefore one connection pool.
func New(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = constant.UserAgent
	}

	base := &net.Dialer{Timeout: opts.Timeout, KeepAlive: 30 * time.Second}
	var dial proxy.ContextDialer = base
	var httpProxy *url.URL

	if opts.Proxy != "" {
		u, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		switch u.Scheme {
		case "socks5", "socks5h":
			d, err := proxy.FromURL(u, base)
			if err != nil {
				return nil, fmt.Errorf("socks dialer: %w", err)
			}
			cd, ok := d.(proxy.ContextDialer)
			if !ok {
				return nil, errors.New("socks dialer does not support contexts")
			}
			dial = cd
		case "http", "https":
			httpProxy = u
		default:
			return nil, fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
		}
	}

	var transport http.RoundTripper
	if opts.Fingerprint {
		transport = newFingerprintTransport(dial, opts.Timeout, httpProxy)
	} else {
		transport = newTransport(dial, httpProxy)
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &Client{
		follow: &http.Client{Transport: transport},
		manual: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		limiter:   rate.NewLimiter(limit, 1),
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		proxied:   opts.Proxy != "",
	}, nil
}

// newTransport initializes a tuned http.Transport with optimized pool and timeout parameters.
func newTransport(dial proxy.ContextDialer, httpProxy *url.URL) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DialContext = dial.DialContext
	t.Proxy = nil
	if httpProxy != nil {
		t.Proxy = http.ProxyURL(httpProxy)
	}
	t.MaxIdleConns = 100
	t.MaxIdleConnsPerHost = 100
	t.MaxConnsPerHost = 200
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 30 * time.Second
	t.ExpectContinueTimeout = 30 * time.Second
	t.DisableCompression = true
	return t
}

// Anonymized reports whether requests leave through a proxy.
func (c *Client) Anonymized() bool {
	return c.proxied
}

// CloseIdleConnections drops pooled connections, so the next request opens a fresh circuit after an identity rotation.
func (c *Client) CloseIdleConnections() {
	c.follow.CloseIdleConnections()
}

// Do implements Fetcher.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, classify(ctx, r.URL, err)
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, r.URL, nil)
	if err != nil {
		return nil, &source.FetchError{Cause: source.Connection, URL: r.URL, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7")
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Accept-Encoding", acceptEncoding)

	client := c.follow
	if r.NoRedirect {
		client = c.manual
	}

	log.WithFields(log.Fields{"method": method, "url": r.URL, "manual": r.NoRedirect}).Debug("fetch")

	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(ctx, r.URL, err)
	}
	defer resp.Body.Close()

	reader, err := decodeBody(resp)
	if err != nil {
		return nil, &source.FetchError{Cause: source.Connection, URL: r.URL, Err: err}
	}
	body, err := io.ReadAll(io.LimitReader(reader, maxBodySize))
	if err != nil {
		return nil, classify(ctx, r.URL, err)
	}

	out := &Response{
		URL:    resp.Request.URL.String(),
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   body,
	}
	if loc := resp.Header.Get("Location"); loc != "" && resp.StatusCode >= 300 && resp.StatusCode < 400 {
		if target, err := resp.Request.URL.Parse(strings.TrimSpace(loc)); err == nil {
			out.Location = target.String()
		}
	}
	return out, nil
}

// classify maps transport failures onto the fetch taxonomy.
func classify(ctx context.Context, url string, err error) error {
	cause := source.Connection

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctx.Err(), context.DeadlineExceeded):
		cause = source.Timeout
	case errors.As(err, &netErr) && netErr.Timeout():
		cause = source.Timeout
	case strings.Contains(err.Error(), "would exceed context deadline"):
		cause = source.Timeout
	}

	return &source.FetchError{Cause: cause, URL: url, Err: err}
}
