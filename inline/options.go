// Package inline implements the non-interactive, scriptable resolution mode: one or many episodes,
// printed as plain links or as a JSON report.
package inline

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/aniresolve/aniresolve/resolve"
	"github.com/aniresolve/aniresolve/source"
	"github.com/samber/lo"
)

// Options configure a Run.
type Options struct {
	Out io.Writer

	// Requests holds one request per episode, in output order.
	Requests []resolve.Request

	Json     bool
	Fallback bool
	Workers  int
}

// ParseEpisodes expands an episode selector into episode numbers.
// Accepted forms: "5", "1-12", "1,3,8-10". Numbers are returned sorted and unique.
func ParseEpisodes(description string) ([]int, error) {
	var episodes []int
	for _, part := range strings.Split(description, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if from, to, isRange := strings.Cut(part, "-"); isRange {
			start, err1 := strconv.Atoi(strings.TrimSpace(from))
			end, err2 := strconv.Atoi(strings.TrimSpace(to))
			if err1 != nil || err2 != nil || start < 1 || end < start {
				return nil, fmt.Errorf("invalid episode range: %s", part)
			}
			for e := start; e <= end; e++ {
				episodes = append(episodes, e)
			}
			continue
		}

		e, err := strconv.Atoi(part)
		if err != nil || e < 1 {
			return nil, fmt.Errorf("invalid episode: %s", part)
		}
		episodes = append(episodes, e)
	}

	if len(episodes) == 0 {
		return nil, fmt.Errorf("invalid episode filter: %q", description)
	}

	episodes = lo.Uniq(episodes)
	sort.Ints(episodes)
	return episodes, nil
}

// References builds one reference per selected episode of a series.
func References(slug string, season int, selector string) ([]source.MediaReference, error) {
	episodes, err := ParseEpisodes(selector)
	if err != nil {
		return nil, err
	}

	refs := make([]source.MediaReference, 0, len(episodes))
	for _, e := range episodes {
		ref, err := source.NewReference(slug, season, e)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
