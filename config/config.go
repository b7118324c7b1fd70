// Package config registers every setting with its default and loads overrides from the
// TOML file under where.Config() and ANIRESOLVE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/filesystem"
	"github.com/aniresolve/aniresolve/where"
	"github.com/spf13/viper"
)

// EnvKeyReplacer maps dotted keys to environment variable suffixes.
var EnvKeyReplacer = strings.NewReplacer(".", "_")

// FileType is the format of the config file.
const FileType = "toml"

// Path returns the location of the config file, whether or not it exists.
func Path() string {
	return filepath.Join(where.Config(), fmt.Sprintf("%s.%s", constant.App, FileType))
}

// Setup applies defaults, binds the environment and reads the config file if there is one.
func Setup() error {
	viper.SetFs(filesystem.API())
	viper.SetConfigName(constant.App)
	viper.SetConfigType(FileType)
	viper.AddConfigPath(where.Config())

	viper.SetTypeByDefaultValue(true)
	for name, field := range Default {
		viper.SetDefault(name, field.Value)
	}

	viper.SetEnvPrefix(constant.App)
	viper.SetEnvKeyReplacer(EnvKeyReplacer)
	for _, env := range EnvExposed {
		viper.MustBindEnv(env)
	}

	err := viper.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// Save writes the current settings, creating the config file when it does not exist yet.
func Save() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}
