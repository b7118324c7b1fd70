package resolve

import (
	"fmt"
	"time"

	"github.com/aniresolve/aniresolve/catalog"
	"github.com/aniresolve/aniresolve/guard"
	"github.com/aniresolve/aniresolve/hint"
	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/provider"
	"github.com/aniresolve/aniresolve/redirect"
	"github.com/aniresolve/aniresolve/source"
	"github.com/aniresolve/aniresolve/tor"
	"github.com/spf13/viper"
)

// Stack is a fully wired coordinator together with the pieces callers may need directly.
type Stack struct {
	*Coordinator

	Client *network.Client
	Guard  *guard.Guard
}

// FromConfig wires a coordinator from the current configuration.
func FromConfig() (*Stack, error) {
	client, err := network.New(network.OptionsFromConfig())
	if err != nil {
		return nil, fmt.Errorf("network: %w", err)
	}

	g, err := guard.FromConfig()
	if err != nil {
		return nil, fmt.Errorf("guard: %w", err)
	}

	base := viper.GetString(key.CatalogBaseURL)
	timeout := time.Duration(viper.GetInt(key.NetworkTimeout)) * time.Second

	c := New(Deps{
		Fetcher:   client,
		Catalog:   catalog.NewClient(client, catalog.NewParser(g), base),
		Redirects: redirect.New(client, base, viper.GetInt(key.ResolveMaxHops)),
		Rotator:   tor.FromConfig(),
		Decode: provider.Options{
			UserAgent: viper.GetString(key.NetworkUserAgent),
			Timeout:   2 * timeout,
		},
	})

	return &Stack{Coordinator: c, Client: client, Guard: g}, nil
}

// NewRequest fills language, preferred provider and fallback order from the configuration.
// With resolve.remember_provider set, a stored hint for the series replaces the configured provider.
func NewRequest(ref source.MediaReference) (Request, error) {
	language, err := source.ParseLanguage(viper.GetString(key.ResolveLanguage))
	if err != nil {
		return Request{}, err
	}

	req := Request{
		Reference: ref,
		Language:  language,
		Preferred: source.ParseProviderName(viper.GetString(key.ResolveProvider)),
		Fallback:  source.ParseProviderNames(viper.GetStringSlice(key.ResolveFallbackOrder)),
	}

	if viper.GetBool(key.ResolveRememberProvider) {
		if h, ok := hint.Get(ref.Slug()).Get(); ok {
			req.Preferred = h.Provider
		}
	}
	return req, nil
}

// Remember stores the provider of a successful result as the hint for its series.
func Remember(req Request, result *Result) error {
	if !viper.GetBool(key.ResolveRememberProvider) || result == nil {
		return nil
	}
	return hint.Save(req.Reference.Slug(), result.Provider, result.Language)
}
