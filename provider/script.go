package provider

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aniresolve/aniresolve/source"
)

var (
	fileLiteral  = regexp.MustCompile(`file\s*:\s*"([^"]+)"`)
	srcLiteral   = regexp.MustCompile(`src\s*:\s*"([^"]+)"`)
	streamtapeJS = regexp.MustCompile(`botlink'\)\.innerHTML\s*=\s*'([^']+)'\s*\+\s*\('xcd([^']+)'\)`)
)

// scripts returns the text of every inline script block, in document order.
func scripts(content string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}

	var out []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if _, external := s.Attr("src"); !external {
			out = append(out, s.Text())
		}
	})
	return out, nil
}

// firstMatch returns the first capture of re across the inline scripts of content.
func firstMatch(content string, re *regexp.Regexp) (string, bool, error) {
	blocks, err := scripts(content)
	if err != nil {
		return "", false, err
	}
	for _, block := range blocks {
		if m := re.FindStringSubmatch(block); m != nil {
			return m[1], true, nil
		}
	}
	return "", false, nil
}

// fileLiteral serves the player setups that declare sources as file: "<url>".
func (d *decoder) fileLiteral(ctx context.Context, embed string) (source.DirectLink, error) {
	resp, err := d.page(ctx, embed, nil)
	if err != nil {
		return source.DirectLink{}, err
	}

	file, found, err := firstMatch(resp.Text(), fileLiteral)
	if err != nil {
		return source.DirectLink{}, d.invalid(embed, "malformed html", err)
	}
	if !found {
		return source.DirectLink{}, d.notFound(embed, "file literal")
	}
	return d.link(file)
}

// vidoza reads the player source from a script literal or, failing that, the video element.
func (d *decoder) vidoza(ctx context.Context, embed string) (source.DirectLink, error) {
	resp, err := d.page(ctx, embed, nil)
	if err != nil {
		return source.DirectLink{}, err
	}

	src, found, err := firstMatch(resp.Text(), srcLiteral)
	if err != nil {
		return source.DirectLink{}, d.invalid(embed, "malformed html", err)
	}
	if !found {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.Text()))
		if err != nil {
			return source.DirectLink{}, d.invalid(embed, "malformed html", err)
		}
		src, found = doc.Find("video source[src]").First().Attr("src")
	}
	if !found || strings.TrimSpace(src) == "" {
		return source.DirectLink{}, d.notFound(embed, "video source")
	}
	return d.link(absolute(resp.URL, src))
}

// streamtape joins the two halves of the link the page assembles in script.
func (d *decoder) streamtape(ctx context.Context, embed string) (source.DirectLink, error) {
	resp, err := d.page(ctx, embed, nil)
	if err != nil {
		return source.DirectLink{}, err
	}

	m := streamtapeJS.FindStringSubmatch(resp.Text())
	if m == nil {
		return source.DirectLink{}, d.notFound(embed, "robot link assignment")
	}
	return d.link("https:" + m[1] + m[2])
}
