package provider

import (
	"context"
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/aniresolve/aniresolve/source"
)

var (
	voeRedirect = regexp.MustCompile(`location\.href\s*=\s*'([^']+)'`)
	voeNode     = regexp.MustCompile(`nodeDetails\s*=\s*prompt\("Node",\s*"([^"]+)"\)`)
	voeHLS      = regexp.MustCompile(`['"]hls['"]\s*:\s*['"]([^'"]+)['"]`)
)

// voe follows the script redirect of the embed page and reads the node prompt.
// Pages without a redirect carry the playlist as a base64 hls field instead.
func (d *decoder) voe(ctx context.Context, embed string) (source.DirectLink, error) {
	resp, err := d.page(ctx, embed, nil)
	if err != nil {
		return source.DirectLink{}, err
	}

	body := resp.Text()
	if m := voeRedirect.FindStringSubmatch(body); m != nil {
		target := absolute(resp.URL, m[1])
		redirected, err := d.page(ctx, target, nil)
		if err != nil {
			return source.DirectLink{}, err
		}
		if node := voeNode.FindStringSubmatch(redirected.Text()); node != nil {
			return d.link(node[1])
		}
		body = redirected.Text()
	}

	m := voeHLS.FindStringSubmatch(body)
	if m == nil {
		return source.DirectLink{}, d.notFound(embed, "neither node prompt nor hls field")
	}

	decoded, err := decodeBase64(m[1])
	if err != nil {
		return source.DirectLink{}, d.invalid(embed, "hls field", err)
	}
	return d.link(decoded)
}

// decodeBase64 accepts padded and unpadded standard encoding.
func decodeBase64(s string) (string, error) {
	s = strings.TrimSpace(s)
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
		if err != nil {
			return "", err
		}
	}
	return string(b), nil
}
