package inline

import (
	"encoding/json"
	"io"

	"github.com/aniresolve/aniresolve/resolve"
)

// Entry is the report of one episode.
type Entry struct {
	// Reference is the episode as given, a URL or "slug SxxEyy".
	Reference string `json:"reference" jsonschema:"description=Episode reference as given on the command line."`
	// Result is absent when the episode failed.
	Result *resolve.Result `json:"result,omitempty"`
	// Error describes the failure, if any.
	Error string `json:"error,omitempty" jsonschema:"description=Failure message. Absent on success."`
}

// Output is the JSON document written by Run.
type Output struct {
	Result []*Entry `json:"result"`
}

func asJson(outcomes []resolve.Outcome) ([]byte, error) {
	result := make([]*Entry, len(outcomes))
	for i, o := range outcomes {
		entry := &Entry{Reference: o.Request.Reference.String(), Result: o.Result}
		if o.Err != nil {
			entry.Error = o.Err.Error()
		}
		result[i] = entry
	}

	return json.MarshalIndent(&Output{Result: result}, "", "  ")
}

func writeJson(out io.Writer, outcomes []resolve.Outcome) error {
	data, err := asJson(outcomes)
	if err != nil {
		return err
	}
	_, err = out.Write(append(data, '\n'))
	return err
}
