// Package dates normalizes calendar dates. Every ledger date, rate effective
// date and target date is parsed here so that comparisons never depend on a
// time zone or time of day.
package dates

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ErrInvalidInput is returned for empty or malformed date strings.
var ErrInvalidInput = errors.New("invalid input")

// Parse parses a YYYY-MM-DD string into a calendar date.
func Parse(s string) (civil.Date, error) {
	if s == "" {
		return civil.Date{}, fmt.Errorf("%w: date string is required", ErrInvalidInput)
	}

	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return civil.Date{}, fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := parseDigits(p)
		if err != nil {
			return civil.Date{}, fmt.Errorf("%w: date %q: %v", ErrInvalidInput, s, err)
		}
		nums[i] = n
	}

	d := civil.Date{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}
	if !d.IsValid() {
		return civil.Date{}, fmt.Errorf("%w: date %q does not exist", ErrInvalidInput, s)
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid. It panics otherwise.
func MustParse(s string) civil.Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ParseDate parses a YYYY-MM-DD string into local midnight of that day.
func ParseDate(s string) (time.Time, error) {
	d, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return d.In(time.Local), nil
}

// FormatDateLocal formats t's local calendar day as YYYY-MM-DD.
func FormatDateLocal(t time.Time) string {
	return Of(t).String()
}

// ToLocalMidnight returns midnight of t's local calendar day.
func ToLocalMidnight(t time.Time) time.Time {
	return Of(t).In(time.Local)
}

// Of returns t's local calendar day.
func Of(t time.Time) civil.Date {
	return civil.DateOf(t.In(time.Local))
}

// Today returns the current local calendar day.
func Today() civil.Date {
	return Of(time.Now())
}

// StartsMonth reports whether next falls in a different month than d.
func StartsMonth(d, next civil.Date) bool {
	return d.Month != next.Month || d.Year != next.Year
}

func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, errors.New("missing component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("non-numeric component %q", s)
		}
	}
	return strconv.Atoi(s)
}
