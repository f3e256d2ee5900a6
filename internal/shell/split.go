package shell

import (
	"fmt"
)

// Split breaks a command line into words, honoring single and double quotes and
// backslash escapes. Empty words produced by repeated spaces are dropped.
func Split(input string) ([]string, error) {
	var words []string

	sb := getBuilder()
	defer putBuilder(sb)

	var double, single, escaped bool

	flush := func() {
		if sb.Len() > 0 {
			words = append(words, sb.String())
			sb.Reset()
		}
	}

	for i := 0; i < len(input); i++ {
		c := input[i]

		if escaped {
			sb.WriteByte(c)
			escaped = false
			continue
		}

		switch {
		case c == '\\' && !single:
			escaped = true
		case c == '"' && !single:
			double = !double
		case c == '\'' && !double:
			single = !single
		case (c == ' ' || c == '\t') && !double && !single:
			flush()
		default:
			sb.WriteByte(c)
		}
	}

	if double || single {
		return nil, fmt.Errorf("split %q: %w", input, ErrMismatchedQuotes)
	}
	if escaped {
		return nil, fmt.Errorf("split %q: %w", input, ErrTrailingBackslash)
	}

	flush()

	return words, nil
}
