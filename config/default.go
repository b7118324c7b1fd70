// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/aniresolve/aniresolve/color"
	"github.com/aniresolve/aniresolve/constant"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

// DefaultSignatures are the block signatures shipped with the application, as reason=phrase pairs.
var DefaultSignatures = []string{
	"spam=Deine Anfrage wurde als Spam erkannt.",
	"challenge=Checking your browser before accessing",
	"challenge=<title>Just a moment...</title>",
	"server-error=<title>502 Bad Gateway</title>",
}

// DefaultFallbackOrder is the declared provider order used after the preferred provider.
var DefaultFallbackOrder = []string{"VOE", "Doodstream", "Vidmoly", "Vidoza", "SpeedFiles", "Luluvdo", "Streamtape"}

func init() {
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		Default[k] = Field{Key: k, Value: v, Description: desc}
		EnvExposed = append(EnvExposed, k)
	}

	register(key.CatalogBaseURL, "https://aniworld.to", "Base URL of the streaming aggregator")
	register(key.NetworkTimeout, 15, "Timeout in seconds applied to every single fetch")
	register(key.NetworkUserAgent, constant.UserAgent, "User-Agent sent with every request")
	register(key.NetworkProxy, "", "Proxy URL for all requests, e.g. socks5://127.0.0.1:9050.\nIgnored when tor.enable is set")
	register(key.NetworkTLSFingerprint, false, "Mimic a Chrome TLS handshake when talking to hosts")
	register(key.NetworkRateLimit, 0, "Maximum requests per second. 0 disables pacing")
	register(key.TorEnable, false, "Route catalog fetches through Tor and rotate the exit on anti-bot blocks")
	register(key.TorSocksAddress, "127.0.0.1:9050", "Tor SOCKS5 listener")
	register(key.TorControlAddress, "127.0.0.1:9051", "Tor control port")
	register(key.TorControlPassword, "", "Password sent with AUTHENTICATE on the control port")
	register(key.TorSettleSeconds, 1, "Seconds to wait after NEWNYM before retrying")
	register(key.GuardSignatures, DefaultSignatures, "Block signatures as reason=phrase.\nReloaded when the config file changes")
	register(key.ResolveLanguage, "native-dub", "Desired language.\nAvailable options are: native-dub, foreign-sub, native-sub (or 1, 2, 3)")
	register(key.ResolveProvider, "VOE", "Preferred provider")
	register(key.ResolveFallbackOrder, DefaultFallbackOrder, "Providers tried after the preferred one, in order")
	register(key.ResolveMaxHops, 5, "Maximum number of redirect hops")
	register(key.ResolveRememberProvider, true, "Remember the last working provider per series")
	register(key.ResolveWorkers, 4, "Concurrent resolutions when several episodes are requested")
	register(key.ServerAddress, "127.0.0.1:8787", "Listen address of the serve command")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, plain, squares, nerd (nerd-font required)")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, false, "Check for a newer release when showing help or the version")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
