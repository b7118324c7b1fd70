package inline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aniresolve/aniresolve/log"
	"github.com/aniresolve/aniresolve/resolve"
)

// ErrPartial reports that at least one episode failed. Successful ones were still written.
var ErrPartial = errors.New("some episodes could not be resolved")

// Run resolves every request and writes the outcome.
// Plain output prints one direct link per line and reports failures on stderr.
func Run(ctx context.Context, c *resolve.Coordinator, options *Options) ([]resolve.Outcome, error) {
	if options.Out == nil {
		options.Out = os.Stdout
	}

	each := resolve.Func(c.Resolve)
	if options.Fallback {
		each = func(ctx context.Context, req resolve.Request) (*resolve.Result, error) {
			return resolve.Fallback(ctx, c, req)
		}
	}

	outcomes := resolve.Many(ctx, options.Requests, options.Workers, each)

	if options.Json {
		if err := writeJson(options.Out, outcomes); err != nil {
			return outcomes, err
		}
	} else {
		for _, o := range outcomes {
			if o.Err != nil {
				fmt.Fprintf(os.Stderr, "%s: %s\n", o.Request.Reference, o.Err)
				continue
			}
			log.Info("resolved " + o.Request.Reference.String())
			fmt.Fprintln(options.Out, o.Result.Link.URL)
		}
	}

	if len(outcomes) == 1 && outcomes[0].Err != nil {
		return outcomes, outcomes[0].Err
	}
	for _, o := range outcomes {
		if o.Err != nil {
			return outcomes, ErrPartial
		}
	}
	return outcomes, nil
}
