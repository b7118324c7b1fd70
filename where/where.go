// Package where implements a cross-platform resolver for application-specific filesystem paths.
package where

import (
	"os"
	"path/filepath"

	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/samber/lo"
)

// EnvConfigPath is the environment variable identifier used to override the default configuration directory.
const EnvConfigPath = "ANIRESOLVE_CONFIG_PATH"

func ensureDir(path string) string {
	lo.Must0(filesystem.API().MkdirAll(path, os.ModePerm))
	return path
}

// Config resolves the absolute path to the primary application configuration directory.
// The path can be overridden through the ANIRESOLVE_CONFIG_PATH environment variable.
func Config() string {
	if custom, ok := os.LookupEnv(EnvConfigPath); ok {
		return ensureDir(custom)
	}

	base := lo.Must(os.UserConfigDir())
	return ensureDir(filepath.Join(base, constant.App))
}

// Cache resolves the absolute path to the application's persistent cache directory.
func Cache() string {
	base, err := os.UserCacheDir()
	if err != nil {
		base = filepath.Join(".", "cache")
	}
	return ensureDir(filepath.Join(base, constant.App))
}

// Logs resolves the absolute path to the directory used for application diagnostic logs.
func Logs() string {
	return ensureDir(filepath.Join(Config(), "logs"))
}

// Hints resolves the path of the per-series provider hint store.
func Hints() string {
	return filepath.Join(Cache(), "hints.json")
}

// RotationLock resolves the lock file that serialises Tor identity rotations across processes.
// It always lives on the real filesystem since flock needs a file descriptor.
func RotationLock() string {
	dir := filepath.Join(os.TempDir(), constant.App)
	_ = os.MkdirAll(dir, os.ModePerm)
	return filepath.Join(dir, "newnym.lock")
}
