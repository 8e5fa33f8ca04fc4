package conflict

import (
	"errors"
	"fmt"
)

// ErrInvalidTime reports a wall-clock string that is not valid 24-hour HH:MM.
var ErrInvalidTime = errors.New("invalid time format")

// ParseClock converts an HH:MM wall-clock string into minutes since midnight.
// The format is strict: two digits, a colon, two digits, hours 00-23 and
// minutes 00-59. Anything else wraps ErrInvalidTime.
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	for _, i := range [4]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
		}
	}

	hours := int(s[0]-'0')*10 + int(s[1]-'0')
	minutes := int(s[3]-'0')*10 + int(s[4]-'0')
	if hours > 23 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}

	return hours*60 + minutes, nil
}

// Overlap reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share any minute. Back-to-back intervals do not overlap, and
// a zero-length interval never overlaps anything.
func Overlap(aStart, aEnd, bStart, bEnd string) (bool, error) {
	as, err := ParseClock(aStart)
	if err != nil {
		return false, err
	}
	ae, err := ParseClock(aEnd)
	if err != nil {
		return false, err
	}
	bs, err := ParseClock(bStart)
	if err != nil {
		return false, err
	}
	be, err := ParseClock(bEnd)
	if err != nil {
		return false, err
	}

	if as == ae || bs == be {
		return false, nil
	}
	return as < be && bs < ae, nil
}

// SpanMinutes returns the length of [start, end) in minutes. Callers are
// expected to pass start < end; an inverted pair yields a negative span.
func SpanMinutes(start, end string) (int, error) {
	s, err := ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := ParseClock(end)
	if err != nil {
		return 0, err
	}
	return e - s, nil
}
