package provider

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aniresolve/aniresolve/source"
)

var speedfilesLiteral = regexp.MustCompile(`var\s+_0x5opu234\s*=\s*"([^"]+)"`)

const speedfilesDown = "Web server is down"

// speedfiles reads the obfuscated literal of the embed page and unwraps it.
func (d *decoder) speedfiles(ctx context.Context, embed string) (source.DirectLink, error) {
	resp, err := d.page(ctx, embed, nil)
	if err != nil {
		return source.DirectLink{}, err
	}

	body := resp.Text()
	if strings.Contains(body, speedfilesDown) {
		return source.DirectLink{}, d.invalid(embed, "host reports its web server is down", nil)
	}

	m := speedfilesLiteral.FindStringSubmatch(body)
	if m == nil {
		return source.DirectLink{}, d.notFound(embed, "obfuscated literal")
	}

	decoded, err := deobfuscate(m[1])
	if err != nil {
		return source.DirectLink{}, d.invalid(embed, "obfuscated literal", err)
	}
	return d.link(decoded)
}

// deobfuscate applies the ten stages in order. Any change to the order yields garbage.
func deobfuscate(s string) (string, error) {
	var err error

	if s, err = decodeBase64(s); err != nil {
		return "", fmt.Errorf("stage 1: %w", err)
	}
	s = swapCase(reverse(s))
	if s, err = decodeBase64(s); err != nil {
		return "", fmt.Errorf("stage 4: %w", err)
	}
	s = reverse(s)
	if s, err = hexPairs(s); err != nil {
		return "", fmt.Errorf("stage 6: %w", err)
	}
	s = swapCase(reverse(shift(s, -3)))
	if s, err = decodeBase64(s); err != nil {
		return "", fmt.Errorf("stage 10: %w", err)
	}
	return s, nil
}

func reverse(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

func swapCase(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z':
			b[i] = c - 'a' + 'A'
		case c >= 'A' && c <= 'Z':
			b[i] = c - 'A' + 'a'
		}
	}
	return string(b)
}

// hexPairs reads s as two-digit hex character codes.
func hexPairs(s string) (string, error) {
	if len(s)%2 != 0 {
		return "", fmt.Errorf("odd hex length %d", len(s))
	}
	b := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		v, err := strconv.ParseUint(s[i:i+2], 16, 8)
		if err != nil {
			return "", err
		}
		b = append(b, byte(v))
	}
	return string(b), nil
}

func shift(s string, by int) string {
	b := []byte(s)
	for i, c := range b {
		b[i] = byte(int(c) + by)
	}
	return string(b)
}
