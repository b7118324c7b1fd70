package source

import (
	"net/url"
	"strings"
)

// DirectLink is the final consumable artifact: a media URL plus the headers a player must send.
// It is only valid for the session that produced it and is never cached.
type DirectLink struct {
	URL     string            `json:"url" jsonschema:"description=Direct media URL (mp4 or m3u8)"`
	Headers map[string]string `json:"headers,omitempty" jsonschema:"description=Header overrides required by the host, e.g. Referer"`
}

// NewDirectLink validates that raw carries an http(s) scheme. Protocol-relative URLs are upgraded to https.
func NewDirectLink(provider ProviderName, raw string, headers map[string]string) (DirectLink, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return DirectLink{}, &DecodeError{Provider: provider, URL: raw, Kind: ErrDecode, Err: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return DirectLink{}, &DecodeError{Provider: provider, URL: raw, Kind: ErrDecode, Detail: "decoded value is not an http(s) url"}
	}

	if headers == nil {
		headers = make(map[string]string)
	}
	return DirectLink{URL: raw, Headers: headers}, nil
}

func (l DirectLink) String() string {
	return l.URL
}
