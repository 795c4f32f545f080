package parse

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	trailingDigitsRe = regexp.MustCompile(`(\d+)\s*$`)
	leadingIntRe     = regexp.MustCompile(`^\s*([+-]?\d+)`)
)

// KeyIndex extracts the numeric index embedded at the end of a store key
// such as "pc3" or "table12". Keys without trailing digits report false.
func KeyIndex(key string) (int, bool) {
	m := trailingDigitsRe.FindStringSubmatch(key)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// LeadingInt parses the integer prefix of s the way a browser parseInt does:
// "7" -> 7, "12a" -> 12, "a12" -> false.
func LeadingInt(s string) (int, bool) {
	m := leadingIntRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// chunk is a run of either digits or non-digits inside a name.
type chunk struct {
	text   string
	digits bool
}

func chunks(s string) []chunk {
	var out []chunk
	var b strings.Builder
	digits := false
	for i, r := range s {
		isDigit := r >= '0' && r <= '9'
		if i > 0 && isDigit != digits {
			out = append(out, chunk{text: b.String(), digits: digits})
			b.Reset()
		}
		digits = isDigit
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		out = append(out, chunk{text: b.String(), digits: digits})
	}
	return out
}

// NaturalCompare orders strings so that embedded numbers compare by value
// ("Row 2A" < "Row 10A") and letters compare case-insensitively.
// It returns -1, 0 or +1.
func NaturalCompare(a, b string) int {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		x, y := ca[i], cb[i]
		if x.digits && y.digits {
			if c := compareDigits(x.text, y.text); c != 0 {
				return c
			}
			continue
		}
		if c := strings.Compare(strings.ToLower(x.text), strings.ToLower(y.text)); c != 0 {
			return c
		}
	}
	switch {
	case len(ca) < len(cb):
		return -1
	case len(ca) > len(cb):
		return 1
	}
	return 0
}

// NaturalLess reports whether a sorts before b in natural order.
func NaturalLess(a, b string) bool {
	return NaturalCompare(a, b) < 0
}

// compareDigits compares two digit runs by numeric value without overflow.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
