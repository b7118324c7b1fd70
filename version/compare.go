package version

import (
	"fmt"
	"strconv"
	"strings"
)

// parse splits a "v1.2.3" style version into its numeric parts. Pre-release suffixes are ignored.
func parse(s string) ([3]int, error) {
	var parts [3]int

	core, _, _ := strings.Cut(strings.TrimPrefix(strings.TrimSpace(s), "v"), "-")
	fields := strings.Split(core, ".")
	if len(fields) != 3 {
		return parts, fmt.Errorf("invalid version %q", s)
	}

	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return parts, fmt.Errorf("invalid version %q", s)
		}
		parts[i] = n
	}
	return parts, nil
}

// Compare returns 1 if a is newer than b, -1 if older and 0 if both are equal.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}
	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for i := range av {
		switch {
		case av[i] > bv[i]:
			return 1, nil
		case av[i] < bv[i]:
			return -1, nil
		}
	}
	return 0, nil
}
