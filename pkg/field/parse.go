package field

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrAbsent is returned by every strategy for an absent value.
	ErrAbsent = errors.New("field absent")

	// ErrMalformed is wrapped by every strategy when a present value
	// cannot be read.
	ErrMalformed = errors.New("field malformed")

	leadingNumberRegex = regexp.MustCompile(`^[-+]?(\d+(\.\d*)?|\.\d+)`)
)

func malformed(v Value, format string, args ...any) error {
	return fmt.Errorf("%w: %q %s", ErrMalformed, v.String(), fmt.Sprintf(format, args...))
}

func parseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || !finite(f) {
		return 0, false
	}
	return f, true
}

// Float reads a plain number.
func Float(v Value) (float64, error) {
	switch v.kind {
	case KindAbsent:
		return 0, ErrAbsent
	case KindNumber:
		if !finite(v.num) {
			return 0, malformed(v, "is not finite")
		}
		return v.num, nil
	case KindText:
		if f, ok := parseNumber(v.text); ok {
			return f, nil
		}
		return 0, malformed(v, "is not a number")
	default:
		return 0, malformed(v, "is a %s", v.kind)
	}
}

// Count reads a whole number. Text must hold an integer, or a decimal with
// no fractional part ("8.0"); numeric values are truncated. Values past the
// int range are returned as is.
func Count(v Value) (float64, error) {
	if v.kind == KindText {
		f, ok := parseNumber(v.text)
		if !ok || f != math.Trunc(f) {
			return 0, malformed(v, "is not an integer")
		}
		return f, nil
	}

	f, err := Float(v)
	if err != nil {
		return 0, err
	}
	return math.Trunc(f), nil
}

// Unit reads a number that may carry the given unit suffix, e.g. "3.5GHz"
// or "3.5 GHz" for unit "GHz". Numeric values are taken as already being in
// that unit. Text with any other suffix is malformed.
func Unit(v Value, unit string) (float64, error) {
	if v.kind != KindText {
		return Float(v)
	}

	s := strings.TrimSpace(v.text)
	s = strings.TrimSpace(strings.TrimSuffix(s, unit))
	if f, ok := parseNumber(s); ok {
		return f, nil
	}
	return 0, malformed(v, "is not a number of %s", unit)
}

// Leading reads the number at the start of the text, ignoring whatever
// follows. For a range such as "10-15" or "20 - 36 dB" that is the lower
// bound; for "2 Fans" it is the count.
func Leading(v Value) (float64, error) {
	if v.kind != KindText {
		return Float(v)
	}

	m := leadingNumberRegex.FindString(strings.TrimSpace(v.text))
	if m == "" {
		return 0, malformed(v, "does not start with a number")
	}
	f, ok := parseNumber(m)
	if !ok {
		return 0, malformed(v, "does not start with a number")
	}
	return f, nil
}

// CountSize reads a "count x size" pattern such as "2 x 16GB", where unit is
// the optional suffix on the size.
func CountSize(v Value, unit string) (count int, size float64, err error) {
	switch v.kind {
	case KindAbsent:
		return 0, 0, ErrAbsent
	case KindText:
	default:
		return 0, 0, malformed(v, "is not a count x size pattern")
	}

	parts := strings.Split(v.text, "x")
	if len(parts) != 2 {
		return 0, 0, malformed(v, "is not a count x size pattern")
	}

	count, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, malformed(v, "has a non integer count")
	}

	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(parts[1]), unit))
	size, ok := parseNumber(s)
	if !ok {
		return 0, 0, malformed(v, "has a non numeric size")
	}

	return count, size, nil
}

// Lines splits a newline delimited list. Blank lines are kept, matching how
// the list was written by the loader; an empty list is absent.
func Lines(v Value) ([]string, error) {
	switch v.kind {
	case KindAbsent:
		return nil, ErrAbsent
	case KindBool:
		return nil, malformed(v, "is not a list")
	}

	s := v.String()
	if strings.TrimSpace(s) == "" {
		return nil, ErrAbsent
	}
	return strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n"), nil
}

// LineCount returns the number of entries in a newline delimited list.
func LineCount(v Value) (int, error) {
	lines, err := Lines(v)
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}

// Contains reports whether the text form of the value contains sub.
// The match is case-sensitive.
func Contains(v Value, sub string) (bool, error) {
	if v.kind == KindAbsent {
		return false, ErrAbsent
	}
	return strings.Contains(v.String(), sub), nil
}

// Flag reads a boolean. Numbers are true when non-zero; text accepts the
// strconv.ParseBool forms plus yes/no.
func Flag(v Value) (bool, error) {
	switch v.kind {
	case KindAbsent:
		return false, ErrAbsent
	case KindBool:
		return v.flag, nil
	case KindNumber:
		return v.num != 0, nil
	}

	s := strings.ToLower(strings.TrimSpace(v.text))
	switch s {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, malformed(v, "is not a boolean")
	}
	return b, nil
}
