package network

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	utls "github.com/refraction-networking/utls"
	"golang.org/x/net/http2"
	"golang.org/x/net/proxy"
)

// fingerprintTransport sends requests with a Chrome ClientHello. HTTPS requests try HTTP/2 first
// and fall back to an HTTP/1.1-only handshake when the host refuses h2.
type fingerprintTransport struct {
	h2 *http2.Transport
	h1 *http.Transport
}

func newFingerprintTransport(dial proxy.ContextDialer, timeout time.Duration, httpProxy *url.URL) *fingerprintTransport {
	h1 := newTransport(dial, httpProxy)
	h1.DialTLSContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		return dialTLS(ctx, dial, network, addr, []string{"http/1.1"})
	}

	t := &fingerprintTransport{h1: h1}
	if httpProxy == nil {
		t.h2 = &http2.Transport{
			ReadIdleTimeout: timeout,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialTLS(ctx, dial, network, addr, nil)
			},
		}
	}
	return t
}

func (t *fingerprintTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.h2 == nil || req.URL.Scheme != "https" {
		return t.h1.RoundTrip(req)
	}

	resp, err := t.h2.RoundTrip(req)
	if err == nil {
		return resp, nil
	}
	if req.Context().Err() != nil || req.Body != nil {
		return nil, err
	}
	return t.h1.RoundTrip(req)
}

// CloseIdleConnections lets http.Client.CloseIdleConnections reach both pools.
func (t *fingerprintTransport) CloseIdleConnections() {
	t.h1.CloseIdleConnections()
	if t.h2 != nil {
		t.h2.CloseIdleConnections()
	}
}

// dialTLS creates a TLS connection mimicking Chrome's fingerprint. A nil protos keeps Chrome's own ALPN list.
func dialTLS(ctx context.Context, dial proxy.ContextDialer, network, addr string, protos []string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	conn, err := dial.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	tlsConn := utls.UClient(conn, &utls.Config{
		ServerName: host,
		MinVersion: tls.VersionTLS12,
		NextProtos: protos,
	}, utls.HelloChrome_120)

	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}

	return tlsConn, nil
}
