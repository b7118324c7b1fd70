// Package version tracks the application version and discovers newer releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/where"
	"github.com/metafates/gache"
)

// ReleasesURL is the endpoint describing the latest published release.
var ReleasesURL = "https://api.github.com/repos/aniresolve/aniresolve/releases/latest"

var versionCacher = gache.New[string](&gache.Options{
	Path:       filepath.Join(where.Cache(), "version.json"),
	Lifetime:   time.Hour * 24 * 2,
	FileSystem: &filesystem.GacheFs{},
})

// Latest returns the newest released version. Results are cached for two days.
func Latest(ctx context.Context, fetcher network.Fetcher) (version string, err error) {
	ver, expired, err := versionCacher.Get()
	if err != nil {
		return "", err
	}

	if !expired && ver != "" {
		return ver, nil
	}

	resp, err := network.Get(ctx, fetcher, ReleasesURL, map[string]string{
		"Accept": "application/vnd.github+json",
	})
	if err != nil {
		return "", err
	}

	var release struct {
		TagName string `json:"tag_name"`
	}

	if err = json.Unmarshal(resp.Body, &release); err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	version = strings.TrimPrefix(release.TagName, "v")
	_ = versionCacher.Set(version)
	return version, nil
}
