package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/aniresolve/aniresolve/source"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ExhaustedError reports that every candidate offering the language failed.
type ExhaustedError struct {
	Attempts []source.Attempt
}

func (e *ExhaustedError) Error() string {
	parts := lo.Map(e.Attempts, func(a source.Attempt, _ int) string {
		return fmt.Sprintf("%s: %s", a.Provider, a.Message())
	})
	return "all providers failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual attempt failures to errors.Is and errors.As.
func (e *ExhaustedError) Unwrap() []error {
	return lo.FilterMap(e.Attempts, func(a source.Attempt, _ int) (error, bool) {
		return a.Err, a.Err != nil
	})
}

// Fallback resolves req, moving on to the next candidate of the try order after every
// provider-local failure. The catalog page is fetched once and shared by all attempts.
func Fallback(ctx context.Context, c *Coordinator, req Request) (*Result, error) {
	page := req.Page
	if page == nil {
		var err error
		if page, err = c.Page(ctx, req.Reference); err != nil {
			return nil, err
		}
	}

	candidates := lo.Filter(TryOrder(req.Preferred, req.Fallback, page.Providers), func(p source.ProviderName, _ int) bool {
		_, ok := page.Providers.Link(p, req.Language)
		return ok
	})

	var failed []source.Attempt
	for i, candidate := range candidates {
		next := req
		next.Page = page
		next.Preferred = candidate
		next.Fallback = candidates[i+1:]

		result, err := c.Resolve(ctx, next)
		if err == nil {
			result.Attempts = append(failed, result.Attempts...)
			return result, nil
		}
		if ctx.Err() != nil || !source.IsProviderLocal(err) {
			return nil, err
		}

		failed = append(failed, source.Attempt{Provider: candidate, Language: req.Language, Outcome: attemptOutcome(err), Err: err})
	}

	if len(failed) == 0 {
		// No candidate offers the language; let Resolve build the diagnostic error.
		req.Page = page
		return c.Resolve(ctx, req)
	}
	return nil, &ExhaustedError{Attempts: failed}
}

// Outcome pairs a result with its error for batch resolution.
type Outcome struct {
	Request Request
	Result  *Result
	Err     error
}

// Func resolves one request, e.g. Coordinator.Resolve or a Fallback closure.
type Func func(ctx context.Context, req Request) (*Result, error)

// Many resolves unrelated requests concurrently with at most workers in flight.
// Outcomes keep the order of reqs; one failure does not stop the others.
func Many(ctx context.Context, reqs []Request, workers int, resolve Func) []Outcome {
	if workers < 1 {
		workers = 1
	}

	outcomes := make([]Outcome, len(reqs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, req := range reqs {
		g.Go(func() error {
			result, err := resolve(ctx, req)
			outcomes[i] = Outcome{Request: req, Result: result, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
