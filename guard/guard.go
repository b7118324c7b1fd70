// Package guard recognizes pages served by anti-bot protection instead of the requested content.
package guard

import (
	"fmt"
	"strings"
	"sync"

	"github.com/aniresolve/aniresolve/key"
	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/source"
	"github.com/fsnotify/fsnotify"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Signature is a literal phrase whose presence marks a page as blocked.
type Signature struct {
	Reason string
	Phrase string
}

// Verdict is the outcome of inspecting one page.
type Verdict struct {
	Blocked bool
	Reason  string
}

// Guard matches page content against a signature set that may be swapped at runtime.
type Guard struct {
	mu         sync.RWMutex
	signatures []Signature
}

// New returns a guard over the given signatures.
func New(signatures ...Signature) *Guard {
	g := &Guard{}
	g.Update(signatures)
	return g
}

// ParseSignatures reads reason=phrase entries. An entry without a reason uses "blocked".
func ParseSignatures(entries []string) ([]Signature, error) {
	var out []Signature
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}

		reason, phrase, found := strings.Cut(entry, "=")
		if !found {
			reason, phrase = "blocked", entry
		}
		reason = strings.TrimSpace(reason)
		if phrase == "" {
			return nil, fmt.Errorf("signature %q has an empty phrase", entry)
		}
		if reason == "" {
			reason = "blocked"
		}
		out = append(out, Signature{Reason: reason, Phrase: phrase})
	}
	return out, nil
}

// FromConfig builds a guard from guard.signatures.
func FromConfig() (*Guard, error) {
	signatures, err := ParseSignatures(viper.GetStringSlice(key.GuardSignatures))
	if err != nil {
		return nil, err
	}
	return New(signatures...), nil
}

// Update replaces the signature set.
func (g *Guard) Update(signatures []Signature) {
	cp := make([]Signature, len(signatures))
	copy(cp, signatures)

	g.mu.Lock()
	g.signatures = cp
	g.mu.Unlock()
}

// Signatures returns a copy of the current set.
func (g *Guard) Signatures() []Signature {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Signature(nil), g.signatures...)
}

// Inspect reports the first signature contained in content. Matching is case-sensitive.
func (g *Guard) Inspect(content string) Verdict {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sig, found := lo.Find(g.signatures, func(s Signature) bool {
		return strings.Contains(content, s.Phrase)
	})
	if !found {
		return Verdict{}
	}
	return Verdict{Blocked: true, Reason: sig.Reason}
}

// Check returns a BlockedError when content from url matches a signature.
func (g *Guard) Check(url, content string) error {
	verdict := g.Inspect(content)
	if !verdict.Blocked {
		return nil
	}
	log.WithFields(log.Fields{"url": url, "reason": verdict.Reason}).Warn("anti-bot page detected")
	return &source.BlockedError{URL: url, Reason: verdict.Reason}
}

// Watch reloads the signatures whenever the config file changes. Invalid edits keep the previous set.
func (g *Guard) Watch() {
	viper.OnConfigChange(func(fsnotify.Event) {
		signatures, err := ParseSignatures(viper.GetStringSlice(key.GuardSignatures))
		if err != nil {
			log.Warnf("ignoring signature reload: %s", err)
			return
		}
		g.Update(signatures)
		log.Infof("reloaded %d block signatures", len(signatures))
	})
	viper.WatchConfig()
}
