package source

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
)

// Language is the audio/subtitle variant of an episode as numbered by the aggregator.
type Language int

const (
	NativeDub  Language = 1
	ForeignSub Language = 2
	NativeSub  Language = 3
)

// AllLanguages returns every known language in code order.
func AllLanguages() []Language {
	return []Language{NativeDub, ForeignSub, NativeSub}
}

// Valid reports whether l is one of the known codes.
func (l Language) Valid() bool {
	return l >= NativeDub && l <= NativeSub
}

func (l Language) String() string {
	switch l {
	case NativeDub:
		return "native-dub"
	case ForeignSub:
		return "foreign-sub"
	case NativeSub:
		return "native-sub"
	default:
		return "language(" + strconv.Itoa(int(l)) + ")"
	}
}

// MarshalText renders the language by name, so JSON output stays readable.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts anything ParseLanguage does.
func (l *Language) UnmarshalText(text []byte) error {
	parsed, err := ParseLanguage(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// JSONSchema describes the textual form produced by MarshalText.
func (Language) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Enum:        []any{NativeDub.String(), ForeignSub.String(), NativeSub.String()},
		Description: "Audio and subtitle variant",
	}
}

// ParseLanguage accepts numeric codes (1, 2, 3) and the names used in configuration.
func ParseLanguage(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "native-dub", "german-dub", "dub":
		return NativeDub, nil
	case "2", "foreign-sub", "english-sub":
		return ForeignSub, nil
	case "3", "native-sub", "german-sub", "sub":
		return NativeSub, nil
	}
	return 0, fmt.Errorf("unknown language %q", s)
}

// OrderLanguages returns the declared list with ForeignSub moved directly before NativeSub
// whenever the page lists NativeSub first. Unknown codes are dropped.
func OrderLanguages(declared []Language) []Language {
	out := make([]Language, 0, len(declared))
	for _, l := range declared {
		if l.Valid() {
			out = append(out, l)
		}
	}

	native, foreign := -1, -1
	for i, l := range out {
		switch l {
		case NativeSub:
			native = i
		case ForeignSub:
			foreign = i
		}
	}
	if native >= 0 && foreign >= 0 && native < foreign {
		out[native], out[foreign] = out[foreign], out[native]
	}
	return out
}
