// Package lexicon holds the alias tables used by extraction, resolution and
// the single-word router: date words, time-of-day words, assignment types and
// course aliases.
//
// A Lexicon is immutable once built. Every change (a bundle, a new roster)
// produces a new value, so readers holding an older snapshot never observe a
// partial update.
package lexicon

import (
	"maps"
	"slices"
	"strings"
)

// Lexicon is an immutable set of alias tables. Keys are lowercase.
type Lexicon struct {
	dates       map[string]string
	times       map[string]string
	assignments map[string]string
	courses     map[string]string
}

// Default returns the built-in tables.
func Default() *Lexicon {
	return &Lexicon{
		dates:       maps.Clone(defaultDates),
		times:       maps.Clone(defaultTimes),
		assignments: maps.Clone(defaultAssignments),
		courses:     maps.Clone(defaultCourses),
	}
}

func (l *Lexicon) clone() *Lexicon {
	return &Lexicon{
		dates:       maps.Clone(l.dates),
		times:       maps.Clone(l.times),
		assignments: maps.Clone(l.assignments),
		courses:     maps.Clone(l.courses),
	}
}

// Merge returns a copy extended by the bundle's entries. Bundle entries win
// over existing keys.
func (l *Lexicon) Merge(b Bundle) *Lexicon {
	out := l.clone()
	putAll(out.dates, b.Dates)
	putAll(out.times, b.Times)
	putAll(out.assignments, b.Assignments)
	putAll(out.courses, b.Courses)
	return out
}

// WithRoster returns a copy whose course aliases are augmented with aliases
// generated from the roster, then with the user's explicit aliases. Later
// writes win on key collision.
func (l *Lexicon) WithRoster(roster []string, userAliases map[string]string) *Lexicon {
	out := l.clone()
	for _, name := range roster {
		for _, alias := range GenerateAliases(name) {
			out.courses[alias] = strings.TrimSpace(name)
		}
	}
	putAll(out.courses, userAliases)
	return out
}

func putAll(dst, src map[string]string) {
	for k, v := range src {
		k = key(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		dst[k] = v
	}
}

func key(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func lookup(m map[string]string, word string) (string, bool) {
	v, ok := m[key(word)]
	return v, ok
}

// Date maps a date word ("tmrw", "fri") to its canonical form.
func (l *Lexicon) Date(word string) (string, bool) { return lookup(l.dates, word) }

// Time maps a time-of-day word ("noon") to a clock time.
func (l *Lexicon) Time(word string) (string, bool) { return lookup(l.times, word) }

// Assignment maps an assignment word or two-word phrase to its type.
func (l *Lexicon) Assignment(phrase string) (string, bool) { return lookup(l.assignments, phrase) }

// CourseAlias maps an alias ("orgo") to a course name.
func (l *Lexicon) CourseAlias(alias string) (string, bool) { return lookup(l.courses, alias) }

// CanonicalDate returns the canonical date for value, or value unchanged.
func (l *Lexicon) CanonicalDate(value string) string { return canonical(l.dates, value) }

// CanonicalTime returns the canonical time for value, or value unchanged.
func (l *Lexicon) CanonicalTime(value string) string { return canonical(l.times, value) }

// CanonicalAssignment returns the canonical assignment type for value, or
// value unchanged.
func (l *Lexicon) CanonicalAssignment(value string) string {
	return canonical(l.assignments, value)
}

// CanonicalCourse returns the aliased course name for value, or value
// unchanged.
func (l *Lexicon) CanonicalCourse(value string) string { return canonical(l.courses, value) }

func canonical(m map[string]string, value string) string {
	if v, ok := lookup(m, value); ok {
		return v
	}
	return value
}

// IsWeekday reports whether a canonical date value names a weekday.
func IsWeekday(value string) bool {
	return slices.Contains(Weekdays, key(value))
}

// Bundle returns a copy of the tables in bundle form.
func (l *Lexicon) Bundle() Bundle {
	return Bundle{
		Dates:       maps.Clone(l.dates),
		Times:       maps.Clone(l.times),
		Assignments: maps.Clone(l.assignments),
		Courses:     maps.Clone(l.courses),
	}
}
