package mosaic

import (
	"slices"
	"strings"
)

// NaturalLess reports whether a sorts before b in natural order. Both names
// are split into alternating non-digit and digit runs; digit runs compare
// by numeric value and other runs compare case-insensitively, so "f2"
// sorts before "f10". Names that compare equal fall back to byte order.
func NaturalLess(a, b string) bool {
	return naturalCompare(a, b) < 0
}

// NaturalSort sorts names in place in natural order.
func NaturalSort(names []string) {
	slices.SortFunc(names, naturalCompare)
}

func naturalCompare(a, b string) int {
	ca, cb := chunks(a), chunks(b)
	for i := 0; i < len(ca) && i < len(cb); i++ {
		var c int
		if isDigit(ca[i][0]) && isDigit(cb[i][0]) {
			c = compareNumeric(ca[i], cb[i])
		} else {
			c = strings.Compare(strings.ToLower(ca[i]), strings.ToLower(cb[i]))
		}
		if c != 0 {
			return c
		}
	}
	if c := len(ca) - len(cb); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// chunks splits s into maximal runs of digits and non-digits.
func chunks(s string) []string {
	var out []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || isDigit(s[i]) != isDigit(s[start]) {
			out = append(out, s[start:i])
			start = i
		}
	}
	return out
}

// compareNumeric compares two digit runs by value without parsing, so runs
// longer than an int never overflow.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
