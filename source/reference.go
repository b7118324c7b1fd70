package source

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/mo"
)

// MediaReference identifies one episode, either by an explicit absolute URL or by series slug, season and episode.
// Season 0 addresses the movie listing of a series.
type MediaReference struct {
	explicit mo.Option[string]
	slug     string
	season   int
	episode  int
}

var episodePath = regexp.MustCompile(`/anime/stream/(?P<slug>[^/]+)(?:/(?:staffel-(?P<season>\d+)/episode-(?P<episode>\d+)|filme/film-(?P<film>\d+)))?/?$`)

// ReferenceFromURL builds a reference from an absolute http(s) URL.
func ReferenceFromURL(raw string) (MediaReference, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return MediaReference{}, fmt.Errorf("parse reference url: %w", err)
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return MediaReference{}, fmt.Errorf("reference url %q is not absolute", raw)
	}

	ref := MediaReference{explicit: mo.Some(u.String())}
	if m := episodePath.FindStringSubmatch(u.Path); m != nil {
		ref.slug = m[episodePath.SubexpIndex("slug")]
		if film := m[episodePath.SubexpIndex("film")]; film != "" {
			ref.episode, _ = strconv.Atoi(film)
		} else {
			ref.season, _ = strconv.Atoi(m[episodePath.SubexpIndex("season")])
			ref.episode, _ = strconv.Atoi(m[episodePath.SubexpIndex("episode")])
		}
	}
	return ref, nil
}

// NewReference builds a reference from its parts.
func NewReference(slug string, season, episode int) (MediaReference, error) {
	slug = strings.Trim(strings.TrimSpace(slug), "/")
	switch {
	case slug == "" || strings.Contains(slug, "/"):
		return MediaReference{}, fmt.Errorf("invalid series slug %q", slug)
	case season < 0:
		return MediaReference{}, fmt.Errorf("invalid season %d", season)
	case episode < 1:
		return MediaReference{}, fmt.Errorf("invalid episode %d", episode)
	}
	return MediaReference{slug: slug, season: season, episode: episode}, nil
}

// ParseReference accepts either an absolute URL or a bare slug combined with season and episode.
func ParseReference(s string, season, episode int) (MediaReference, error) {
	if strings.Contains(s, "://") {
		return ReferenceFromURL(s)
	}
	return NewReference(s, season, episode)
}

// URL returns the episode page location, resolving slug references against base.
func (r MediaReference) URL(base string) string {
	if explicit, ok := r.explicit.Get(); ok {
		return explicit
	}
	base = strings.TrimRight(base, "/")
	if r.season == 0 {
		return fmt.Sprintf("%s/anime/stream/%s/filme/film-%d", base, r.slug, r.episode)
	}
	return fmt.Sprintf("%s/anime/stream/%s/staffel-%d/episode-%d", base, r.slug, r.season, r.episode)
}

// Slug returns the series slug, empty when an explicit URL does not follow the catalog layout.
func (r MediaReference) Slug() string { return r.slug }

func (r MediaReference) Season() int  { return r.season }
func (r MediaReference) Episode() int { return r.episode }

// IsExplicit reports whether the reference was built from a URL.
func (r MediaReference) IsExplicit() bool { return r.explicit.IsPresent() }

func (r MediaReference) String() string {
	if explicit, ok := r.explicit.Get(); ok {
		return explicit
	}
	if r.season == 0 {
		return fmt.Sprintf("%s film %d", r.slug, r.episode)
	}
	return fmt.Sprintf("%s S%02dE%02d", r.slug, r.season, r.episode)
}
