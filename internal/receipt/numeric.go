package receipt

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// stripSpaces removes every whitespace rune from s.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ParseInt reads an item count. Thermal print makes OCR read a leading 8
// as 0, so a leading zero of a multi-digit token is turned back into 8.
// The bool is false when the token is not a number.
func ParseInt(token string) (int64, bool) {
	s := stripSpaces(token)
	if len(s) > 1 && s[0] == '0' {
		s = "8" + s[1:]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseFloat reads an amount written with either decimal separator. A
// leading zero is repaired to 8 unless it is the integer part of "0.xx".
func ParseFloat(token string) (float64, bool) {
	s := strings.ReplaceAll(stripSpaces(token), ",", ".")
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		s = "8" + s[1:]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// IntOrZero is ParseInt with unreadable tokens reported as zero.
func IntOrZero(token string) int64 {
	n, _ := ParseInt(token)
	return n
}

// FloatOrZero is ParseFloat with unreadable tokens reported as zero.
func FloatOrZero(token string) float64 {
	v, _ := ParseFloat(token)
	return v
}

var datePatterns = []struct {
	re     *regexp.Regexp
	layout string
}{
	{regexp.MustCompile(`^(\d{2}-\d{2}-\d{4})(?:\D|$)`), "02-01-2006"},
	{regexp.MustCompile(`^(\d{2} \d{2} \d{4})(?:\D|$)`), "02 01 2006"},
	{regexp.MustCompile(`^(\d{2}-\d{2} \d{4})(?:\D|$)`), "02-01 2006"},
	{regexp.MustCompile(`^(\d{2} \d{2}-\d{4})(?:\D|$)`), "02 01-2006"},
}

// ParseDate recognises a day-month-year date at the start of token, with
// either dashes or spaces as separators. Anything after the ten date
// characters (typically the time of day) is ignored. The first pattern
// that matches and names a real calendar day wins.
func ParseDate(token string) (time.Time, bool) {
	s := strings.Join(strings.Fields(token), " ")
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		t, err := time.Parse(p.layout, m[1])
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
