package config

import (
	"fmt"
	"strconv"
)

// ParseValue converts raw command line input to the type of the field's default.
func (f *Field) ParseValue(raw []string) (any, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%s: missing value", f.Key)
	}

	switch f.Value.(type) {
	case string:
		return raw[0], nil
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid integer %q", f.Key, raw[0])
		}
		return n, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s: invalid boolean %q", f.Key, raw[0])
		}
		return b, nil
	case []string:
		return raw, nil
	default:
		return nil, fmt.Errorf("%s: unsupported type %T", f.Key, f.Value)
	}
}
