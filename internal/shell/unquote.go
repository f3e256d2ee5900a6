package shell

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	builderPool = sync.Pool{
		New: func() any {
			return &strings.Builder{}
		},
	}

	// ErrMismatchedQuotes is returned when the input has an unterminated quote
	ErrMismatchedQuotes = errors.New("mismatched quotes")

	// ErrTrailingBackslash is returned when the input ends with a lone backslash
	ErrTrailingBackslash = errors.New("trailing backslash")
)

func getBuilder() *strings.Builder {
	sb, ok := builderPool.Get().(*strings.Builder)
	if !ok {
		return &strings.Builder{}
	}
	return sb
}

func putBuilder(sb *strings.Builder) {
	sb.Reset()
	builderPool.Put(sb)
}

// Unquote removes shell quoting from a string the way a POSIX shell would do for a
// single word. Variables and command substitutions are left as they are.
func Unquote(input string) (string, error) {
	sb := getBuilder()
	defer putBuilder(sb)

	var double, single, escaped bool

	for i := 0; i < len(input); i++ {
		c := input[i]

		if escaped {
			sb.WriteByte(c)
			escaped = false
			continue
		}

		switch {
		case c == '\\' && single:
			sb.WriteByte(c)
		case c == '\\':
			if i == len(input)-1 {
				return "", fmt.Errorf("unquote %q: %w", input, ErrTrailingBackslash)
			}
			if escapable(input[i+1], double) {
				escaped = true
				continue
			}
			sb.WriteByte(c)
		case c == '"' && !single:
			double = !double
		case c == '\'' && !double:
			single = !single
		default:
			sb.WriteByte(c)
		}
	}

	if double || single {
		return "", fmt.Errorf("unquote %q: %w", input, ErrMismatchedQuotes)
	}

	return sb.String(), nil
}

func escapable(next byte, inDouble bool) bool {
	switch next {
	case '\\', '"', ' ', '\t', '\n':
		return true
	case '\'':
		return !inDouble
	}
	return false
}
