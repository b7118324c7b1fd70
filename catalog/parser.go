// Package catalog extracts the provider map of an episode page on the aggregator.
package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aniresolve/aniresolve/guard"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/source"
	"github.com/samber/lo"
)

// Page is the parsed content of one episode page.
type Page struct {
	URL string `json:"url"`

	// Title is the series title.
	Title string `json:"title"`

	// EpisodeTitle and EpisodeTitleForeign are empty for pages that do not show them.
	EpisodeTitle        string `json:"episode_title,omitempty"`
	EpisodeTitleForeign string `json:"episode_title_foreign,omitempty"`

	Providers source.ProviderMap `json:"-"`

	// Languages lists the page's language selector, with ForeignSub always ahead of NativeSub.
	Languages []source.Language `json:"languages"`
}

// ProviderNames returns the providers listed on the page, sorted by name.
func (p *Page) ProviderNames() []source.ProviderName {
	names := lo.Keys(p.Providers)
	sortNames(names)
	return names
}

// Offers returns the providers that carry the given language, sorted by name.
func (p *Page) Offers(language source.Language) []source.ProviderName {
	return lo.Filter(p.ProviderNames(), func(name source.ProviderName, _ int) bool {
		_, ok := p.Providers.Link(name, language)
		return ok
	})
}

// Parser turns episode page HTML into a Page.
type Parser struct {
	guard *guard.Guard
}

// NewParser returns a parser that rejects pages matched by g.
func NewParser(g *guard.Guard) *Parser {
	return &Parser{guard: g}
}

// Parse checks content for anti-bot signatures, then extracts the page.
func (p *Parser) Parse(pageURL, content string) (*Page, error) {
	if err := p.guard.Check(pageURL, content); err != nil {
		return nil, err
	}
	return parse(pageURL, content)
}

// ParseResponse parses a fetched page. Block signatures are checked before the
// status code, since challenge pages are usually served with an error status.
func (p *Parser) ParseResponse(resp *network.Response) (*Page, error) {
	if err := p.guard.Check(resp.URL, resp.Text()); err != nil {
		return nil, err
	}
	if err := resp.Check(); err != nil {
		return nil, err
	}
	return parse(resp.URL, resp.Text())
}

func parse(pageURL, content string) (*Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, &source.ParseError{URL: pageURL, What: "invalid page url"}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, &source.ParseError{URL: pageURL, What: "malformed html: " + err.Error()}
	}

	page := &Page{
		URL:       pageURL,
		Title:     clean(doc.Find(".series-title h1 span").First().Text()),
		Providers: make(source.ProviderMap),
	}
	if page.Title == "" {
		return nil, &source.ParseError{URL: pageURL, What: "series title not found"}
	}

	heading := doc.Find(".hosterSiteTitle").First()
	page.EpisodeTitle = clean(heading.Find(".episodeGermanTitle").First().Text())
	page.EpisodeTitleForeign = clean(heading.Find(".episodeEnglishTitle").First().Text())

	entries := doc.Find(".hosterSiteVideo ul.row li[data-link-target]")
	if entries.Length() == 0 {
		return nil, &source.ParseError{URL: pageURL, What: "provider list not found"}
	}

	entries.Each(func(_ int, li *goquery.Selection) {
		name := source.ParseProviderName(clean(li.Find("h4").First().Text()))
		if name == "" {
			return
		}

		language, ok := languageKey(li)
		if !ok {
			return
		}

		target, _ := li.Attr("data-link-target")
		link, err := base.Parse(strings.TrimSpace(target))
		if err != nil || strings.TrimSpace(target) == "" {
			return
		}

		page.Providers.Add(name, language, link.String())
	})

	var declared []source.Language
	doc.Find(".changeLanguageBox img[data-lang-key]").Each(func(_ int, img *goquery.Selection) {
		if language, ok := languageKey(img); ok {
			declared = append(declared, language)
		}
	})
	if len(declared) == 0 {
		declared = page.Providers.Languages()
	}
	page.Languages = source.OrderLanguages(lo.Uniq(declared))

	return page, nil
}

func languageKey(s *goquery.Selection) (source.Language, bool) {
	raw, _ := s.Attr("data-lang-key")
	code, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	language := source.Language(code)
	return language, language.Valid()
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
