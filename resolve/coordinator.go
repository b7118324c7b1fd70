// Package resolve orchestrates a resolution: catalog page, redirect chain, provider decoding.
//
// The coordinator is fail-fast: the first provider offering the wanted language is attempted
// and its failure is returned as is. Fallback drives the retry across the remaining providers.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/aniresolve/aniresolve/catalog"
	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/metrics"
	"github.com/aniresolve/aniresolve/network"
	"github.com/aniresolve/aniresolve/provider"
	"github.com/aniresolve/aniresolve/redirect"
	"github.com/aniresolve/aniresolve/source"
	"github.com/aniresolve/aniresolve/tor"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// Request is a single resolution.
type Request struct {
	Reference source.MediaReference
	Language  source.Language

	// Preferred is tried first when the page lists it.
	Preferred source.ProviderName

	// Fallback is the declared order of the remaining providers. Nil means every known provider.
	Fallback []source.ProviderName

	// Page skips the catalog fetch when set.
	Page *catalog.Page
}

// Result is a successful resolution.
type Result struct {
	ID       string              `json:"id"`
	Link     source.DirectLink   `json:"link"`
	Provider source.ProviderName `json:"provider"`
	Language source.Language     `json:"language"`
	Page     *catalog.Page       `json:"page"`
	Attempts []source.Attempt    `json:"-"`
}

// Coordinator resolves requests. It keeps no per-request state and is safe for concurrent use.
type Coordinator struct {
	fetcher   network.Fetcher
	catalog   *catalog.Client
	redirects *redirect.Resolver
	rotator   tor.Rotator
	decode    provider.Options
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Fetcher   network.Fetcher
	Catalog   *catalog.Client
	Redirects *redirect.Resolver

	// Rotator defaults to tor.Noop.
	Rotator tor.Rotator

	Decode provider.Options
}

// New returns a coordinator over deps.
func New(deps Deps) *Coordinator {
	if deps.Rotator == nil {
		deps.Rotator = tor.Noop{}
	}
	return &Coordinator{
		fetcher:   deps.Fetcher,
		catalog:   deps.Catalog,
		redirects: deps.Redirects,
		rotator:   deps.Rotator,
		decode:    deps.Decode,
	}
}

// Rotator returns the identity rotator in use.
func (c *Coordinator) Rotator() tor.Rotator {
	return c.rotator
}

// Page fetches the catalog page of ref. A blocked page triggers one identity rotation and one
// more fetch; a second block is final.
func (c *Coordinator) Page(ctx context.Context, ref source.MediaReference) (*catalog.Page, error) {
	page, err := c.catalog.Fetch(ctx, ref)
	if !errors.Is(err, source.ErrBlocked) {
		return page, err
	}
	metrics.Blocks.Inc()

	if !c.rotator.Enabled() {
		return nil, err
	}

	if rotateErr := c.rotator.Rotate(ctx); rotateErr != nil {
		metrics.Rotations.WithLabelValues("failed").Inc()
		log.Warnf("identity rotation failed: %s", rotateErr)
		if ctx.Err() != nil {
			return nil, errors.Join(err, rotateErr)
		}
		page, err = c.catalog.Fetch(ctx, ref)
		if err != nil {
			return nil, errors.Join(err, rotateErr)
		}
		return page, nil
	}

	metrics.Rotations.WithLabelValues("ok").Inc()
	if idle, ok := c.fetcher.(interface{ CloseIdleConnections() }); ok {
		idle.CloseIdleConnections()
	}

	page, err = c.catalog.Fetch(ctx, ref)
	if errors.Is(err, source.ErrBlocked) {
		metrics.Blocks.Inc()
	}
	return page, err
}

// Resolve runs one fail-fast resolution.
func (c *Coordinator) Resolve(ctx context.Context, req Request) (result *Result, err error) {
	id := uuid.NewString()
	start := time.Now()
	logger := log.WithFields(log.Fields{"id": id, "reference": req.Reference.String(), "language": req.Language})

	defer func() {
		metrics.Duration.Observe(time.Since(start).Seconds())
		metrics.Resolutions.WithLabelValues(outcome(err)).Inc()
		if err != nil {
			logger.WithError(err).Info("resolution failed")
		}
	}()

	if !req.Language.Valid() {
		return nil, fmt.Errorf("invalid language %d", req.Language)
	}

	page := req.Page
	if page == nil {
		if page, err = c.Page(ctx, req.Reference); err != nil {
			return nil, err
		}
	}

	var attempts []source.Attempt
	for _, candidate := range TryOrder(req.Preferred, req.Fallback, page.Providers) {
		redirectLink, ok := page.Providers.Link(candidate, req.Language)
		if !ok {
			attempts = append(attempts, source.Attempt{Provider: candidate, Language: req.Language, Outcome: source.OutcomeSkipped})
			continue
		}

		logger.WithField("provider", candidate).Debug("attempting provider")
		link, err := c.attempt(ctx, candidate, redirectLink)
		if err != nil {
			metrics.Attempts.WithLabelValues(string(candidate), string(attemptOutcome(err))).Inc()
			return nil, &source.AttemptError{Provider: candidate, Language: req.Language, Err: err}
		}

		metrics.Attempts.WithLabelValues(string(candidate), string(source.OutcomeResolved)).Inc()
		attempts = append(attempts, source.Attempt{Provider: candidate, Language: req.Language, Outcome: source.OutcomeResolved})
		logger.WithField("provider", candidate).Info("resolved direct link")

		return &Result{
			ID:       id,
			Link:     link,
			Provider: candidate,
			Language: req.Language,
			Page:     page,
			Attempts: attempts,
		}, nil
	}

	// Every candidate in the order lacked the language. A provider outside the
	// order may still offer it.
	if offering := offeredOutside(page.Providers, req.Language); len(offering) > 0 {
		return nil, &source.UnsupportedProviderError{Provider: offering[0]}
	}

	available := page.Languages
	if len(available) == 0 {
		available = page.Providers.Languages()
	}
	return nil, &source.LanguageUnavailableError{Wanted: req.Language, Available: available}
}

func (c *Coordinator) attempt(ctx context.Context, name source.ProviderName, redirectLink string) (source.DirectLink, error) {
	if !name.Known() {
		return source.DirectLink{}, &source.UnsupportedProviderError{Provider: name}
	}

	embed, err := c.redirects.Resolve(ctx, redirectLink)
	if err != nil {
		return source.DirectLink{}, err
	}
	return provider.Decode(ctx, c.fetcher, name, embed, c.decode)
}

// TryOrder puts preferred first, followed by the fallback order, keeping only providers the page lists.
func TryOrder(preferred source.ProviderName, fallback []source.ProviderName, providers source.ProviderMap) []source.ProviderName {
	if fallback == nil {
		fallback = source.KnownProviders()
	}

	order := make([]source.ProviderName, 0, len(fallback)+1)
	if preferred != "" {
		order = append(order, preferred)
	}
	order = append(order, fallback...)

	return lo.Filter(lo.Uniq(order), func(p source.ProviderName, _ int) bool {
		return providers.Has(p)
	})
}

// offeredOutside lists, sorted, the providers offering language. It is only called once
// every try-order candidate has been skipped, so all of them lie outside the order.
func offeredOutside(providers source.ProviderMap, language source.Language) []source.ProviderName {
	offering := lo.Filter(lo.Keys(providers), func(p source.ProviderName, _ int) bool {
		_, ok := providers.Link(p, language)
		return ok
	})
	slices.Sort(offering)
	return offering
}

func attemptOutcome(err error) source.Outcome {
	if errors.Is(err, source.ErrProviderUnsupported) {
		return source.OutcomeUnsupported
	}
	return source.OutcomeFailed
}

// outcome labels a finished resolution for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "resolved"
	case errors.Is(err, source.ErrBlocked):
		return "blocked"
	case errors.Is(err, source.ErrLanguageUnavailable):
		return "language_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case source.IsProviderLocal(err):
		return "attempt_failed"
	case errors.Is(err, source.ErrProviderUnsupported):
		return "unsupported"
	default:
		return "error"
	}
}
