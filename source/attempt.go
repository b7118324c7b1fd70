package source

// Outcome of a single provider attempt.
type Outcome string

const (
	OutcomeResolved    Outcome = "resolved"
	OutcomeFailed      Outcome = "failed"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeUnsupported Outcome = "unsupported"
)

// Attempt is a transient diagnostic record of one provider/language try. It is never persisted.
type Attempt struct {
	Provider ProviderName `json:"provider"`
	Language Language     `json:"language"`
	Outcome  Outcome      `json:"outcome"`
	Err      error        `json:"-"`
}

// Message returns the failure message, empty on success.
func (a Attempt) Message() string {
	if a.Err == nil {
		return ""
	}
	return a.Err.Error()
}
