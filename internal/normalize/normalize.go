// Package normalize holds the pure locale/syntax helpers shared by the
// validation engine: decimal parsing tolerant of comma separators, and
// email/phone syntax checks.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+[0-9]{8,16}$`)
	phoneStrip   = strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "")
)

// Decimal parses a user-entered numeric string, accepting either a comma or
// a dot as the decimal separator. Returns NaN on unparseable input.
func Decimal(raw string) float64 {
	v, ok := DecimalOK(raw)
	if !ok {
		return math.NaN()
	}
	return v
}

// DecimalOK is Decimal with an explicit success flag.
func DecimalOK(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	s = strings.Replace(s, ",", ".", 1)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Integer parses a whole number, tolerating surrounding whitespace and a
// trailing decimal part of zero ("3.0" reads as 3).
func Integer(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	f, ok := DecimalOK(s)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// ValidEmail reports whether s, after trimming, looks like an email address
// (non-space local part, @, non-space domain with a dot).
func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidPhone strips spaces, dashes, dots and parentheses, then requires a
// leading + followed by 8 to 16 digits.
func ValidPhone(s string) bool {
	return phonePattern.MatchString(phoneStrip.Replace(strings.TrimSpace(s)))
}
