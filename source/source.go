// Package source defines the domain model shared by every resolution stage:
// media references, languages, provider names, provider maps, direct links and the typed error taxonomy.
package source

// ProviderMap maps a provider to its per-language redirect links on the aggregator.
type ProviderMap map[ProviderName]map[Language]string

// Add records the redirect link of a provider/language pair. The first link seen for a pair wins.
func (m ProviderMap) Add(provider ProviderName, language Language, link string) {
	langs, ok := m[provider]
	if !ok {
		langs = make(map[Language]string)
		m[provider] = langs
	}
	if _, exists := langs[language]; !exists {
		langs[language] = link
	}
}

// Link returns the redirect link for the pair, if present.
func (m ProviderMap) Link(provider ProviderName, language Language) (string, bool) {
	link, ok := m[provider][language]
	return link, ok
}

// Has reports whether the provider is listed at all.
func (m ProviderMap) Has(provider ProviderName) bool {
	_, ok := m[provider]
	return ok
}

// Languages returns the languages offered by any provider, in code order.
func (m ProviderMap) Languages() []Language {
	var out []Language
	for _, l := range AllLanguages() {
		for _, langs := range m {
			if _, ok := langs[l]; ok {
				out = append(out, l)
				break
			}
		}
	}
	return out
}
