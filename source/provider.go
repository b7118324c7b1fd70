package source

import (
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// ProviderName identifies a streaming host. Names outside the known set are kept verbatim
// so they can be reported as unsupported.
type ProviderName string

const (
	VOE        ProviderName = "VOE"
	Doodstream ProviderName = "Doodstream"
	SpeedFiles ProviderName = "SpeedFiles"
	Vidmoly    ProviderName = "Vidmoly"
	Luluvdo    ProviderName = "Luluvdo"
	Streamtape ProviderName = "Streamtape"
	Vidoza     ProviderName = "Vidoza"
)

// KnownProviders returns the supported providers in their declared order.
func KnownProviders() []ProviderName {
	return []ProviderName{VOE, Doodstream, SpeedFiles, Vidmoly, Luluvdo, Streamtape, Vidoza}
}

var fold = cases.Fold()

// ParseProviderName maps a free-form name to its canonical spelling. Unknown names are returned trimmed.
func ParseProviderName(s string) ProviderName {
	s = strings.TrimSpace(s)
	folded := fold.String(s)
	if known, ok := lo.Find(KnownProviders(), func(p ProviderName) bool {
		return fold.String(string(p)) == folded
	}); ok {
		return known
	}
	return ProviderName(s)
}

// ParseProviderNames maps every entry through ParseProviderName, dropping empty ones.
func ParseProviderNames(names []string) []ProviderName {
	return lo.FilterMap(names, func(s string, _ int) (ProviderName, bool) {
		p := ParseProviderName(s)
		return p, p != ""
	})
}

// Known reports whether a decoder exists for the provider.
func (p ProviderName) Known() bool {
	return lo.Contains(KnownProviders(), p)
}

func (p ProviderName) String() string {
	return string(p)
}
