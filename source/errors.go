package source

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Sentinels of the error taxonomy. Every structured error below matches exactly one of them through errors.Is.
var (
	ErrBlocked             = errors.New("blocked by anti-bot protection")
	ErrParse               = errors.New("parse error")
	ErrFetch               = errors.New("fetch failed")
	ErrTooManyRedirects    = errors.New("too many redirects")
	ErrPatternNotFound     = errors.New("pattern not found")
	ErrDecode              = errors.New("decode error")
	ErrTokenNotFound       = errors.New("token not found")
	ErrLanguageUnavailable = errors.New("language unavailable")
	ErrProviderUnsupported = errors.New("provider unsupported")
)

// BlockedError reports a page that matched an anti-bot signature.
type BlockedError struct {
	URL    string
	Reason string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", ErrBlocked, e.URL, e.Reason)
}

func (e *BlockedError) Is(target error) bool { return target == ErrBlocked }

// ParseError reports an episode page missing one of its structural anchors.
type ParseError struct {
	URL  string
	What string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrParse, e.URL, e.What)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// FetchCause distinguishes why a fetch failed.
type FetchCause int

const (
	Connection FetchCause = iota
	Timeout
	HTTPStatus
)

func (c FetchCause) String() string {
	switch c {
	case Timeout:
		return "timeout"
	case HTTPStatus:
		return "http status"
	default:
		return "connection"
	}
}

// FetchError carries the URL and, for redirect chains, the hop that failed.
type FetchError struct {
	Cause  FetchCause
	URL    string
	Status int
	Hop    int
	Err    error
}

func (e *FetchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetch %s: %s", e.URL, e.Cause)
	if e.Cause == HTTPStatus {
		fmt.Fprintf(&b, " %d", e.Status)
	}
	if e.Hop > 0 {
		fmt.Fprintf(&b, " at hop %d", e.Hop)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// TooManyRedirectsError reports a redirect chain that did not terminate within the hop bound.
type TooManyRedirectsError struct {
	URL  string
	Hops int
}

func (e *TooManyRedirectsError) Error() string {
	return fmt.Sprintf("%s: %s after %d hops", ErrTooManyRedirects, e.URL, e.Hops)
}

func (e *TooManyRedirectsError) Is(target error) bool { return target == ErrTooManyRedirects }

// DecodeError reports a decoder that could not turn embed content into a link.
// Kind is one of ErrPatternNotFound, ErrDecode or ErrTokenNotFound.
type DecodeError struct {
	Provider ProviderName
	URL      string
	Kind     error
	Detail   string
	Err      error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Provider, e.URL, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == e.Kind }

// LanguageUnavailableError lists what the page offers instead of the wanted language.
type LanguageUnavailableError struct {
	Wanted    Language
	Available []Language
}

func (e *LanguageUnavailableError) Error() string {
	available := lo.Map(e.Available, func(l Language, _ int) string { return l.String() })
	return fmt.Sprintf("%s: %s (available: %s)", ErrLanguageUnavailable, e.Wanted, strings.Join(available, ", "))
}

func (e *LanguageUnavailableError) Is(target error) bool { return target == ErrLanguageUnavailable }

// UnsupportedProviderError reports a provider without a decoder.
type UnsupportedProviderError struct {
	Provider ProviderName
}

func (e *UnsupportedProviderError) Error() string {
	return fmt.Sprintf("%s: %s", ErrProviderUnsupported, e.Provider)
}

func (e *UnsupportedProviderError) Is(target error) bool { return target == ErrProviderUnsupported }

// AttemptError ties a failure to the provider/language pair being resolved.
type AttemptError struct {
	Provider ProviderName
	Language Language
	Err      error
}

func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Provider, e.Language, e.Err)
}

func (e *AttemptError) Unwrap() error { return e.Err }

// IsProviderLocal reports whether err belongs to a single provider attempt,
// so a caller-driven fallback loop may move on to the next candidate. Cancellation of the
// caller's own context has to be checked separately.
func IsProviderLocal(err error) bool {
	var attempt *AttemptError
	return errors.As(err, &attempt)
}
