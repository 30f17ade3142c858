// Package stringutil provides text helpers shared by the extraction and
// resolution packages.
package stringutil

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeUtterance applies NFKC folding (full-width digits and "％" become
// ASCII), trims, and collapses runs of whitespace into single spaces.
func NormalizeUtterance(s string) string {
	return strings.Join(strings.Fields(norm.NFKC.String(s)), " ")
}

// IsNumeric checks if a string contains only digits.
// Returns false for empty strings.
func IsNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// IsDecimal reports whether s is a plain non-negative decimal like "44.5".
func IsDecimal(s string) bool {
	if s == "" || strings.Count(s, ".") > 1 || s == "." {
		return false
	}
	return IsNumeric(strings.Replace(s, ".", "", 1))
}

// IsInt reports whether s parses as a base-10 integer.
func IsInt(s string) bool {
	_, err := strconv.Atoi(strings.TrimSpace(s))
	return err == nil
}

// KeepNumeric drops every rune that is not a digit or a dot.
func KeepNumeric(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return -1
	}, s)
}

// TrimPunct strips leading and trailing punctuation and symbols except "%".
func TrimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return r != '%' && (unicode.IsPunct(r) || unicode.IsSymbol(r))
	})
}

// Words lowercases s and splits it into words, trimming surrounding
// punctuation but keeping inner characters such as "44.5", "20%" or "10:30".
func Words(s string) []string {
	fields := strings.Fields(strings.ToLower(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = TrimPunct(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// TitleCase converts "organic chemistry" to "Organic Chemistry".
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(s)))
}

var romanNumerals = map[string]string{
	"i": "1", "ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9", "x": "10",
}

var arabicToRoman = func() map[string]string {
	m := make(map[string]string, len(romanNumerals))
	for r, a := range romanNumerals {
		m[a] = r
	}
	return m
}()

// RomanToArabic converts a lowercase roman numeral in i..x.
func RomanToArabic(word string) (string, bool) {
	a, ok := romanNumerals[strings.ToLower(word)]
	return a, ok
}

// ArabicToRoman converts "1".."10" to a lowercase roman numeral.
func ArabicToRoman(word string) (string, bool) {
	r, ok := arabicToRoman[word]
	return r, ok
}

// IsLevelMarker reports whether a word only marks a course level or
// sequence ("II", "2", "101") rather than naming the subject.
func IsLevelMarker(word string) bool {
	if IsNumeric(word) {
		return true
	}
	_, ok := romanNumerals[strings.ToLower(word)]
	return ok
}

// SignificantWords returns Words(s) without level markers.
func SignificantWords(s string) []string {
	words := Words(s)
	out := words[:0]
	for _, w := range words {
		if !IsLevelMarker(w) {
			out = append(out, w)
		}
	}
	return out
}
