// Package course resolves free-text course references against a user's
// course roster. Resolution is tiered (alias, exact, fuzzy, course code) and
// reports unresolved references as AmbiguityEvents on a channel.
package course

import (
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/sliceutil"
)

// Roster is an ordered, immutable list of canonical course names with a
// parallel lowercase index.
type Roster struct {
	names []string
	lower []string
}

// NewRoster trims the names and drops blanks and case-insensitive
// duplicates, keeping the first spelling.
func NewRoster(names []string) Roster {
	clean := sliceutil.Deduplicate(sliceutil.Compact(names), sliceutil.FoldKey)
	lower := make([]string, len(clean))
	for i, n := range clean {
		lower[i] = strings.ToLower(n)
	}
	return Roster{names: clean, lower: lower}
}

// Names returns a copy of the canonical names.
func (r Roster) Names() []string {
	return append([]string(nil), r.names...)
}

// Len returns the number of courses.
func (r Roster) Len() int { return len(r.names) }

// Empty reports whether the roster has no courses.
func (r Roster) Empty() bool { return len(r.names) == 0 }

// Exact returns the roster entry equal to candidate, ignoring case.
func (r Roster) Exact(candidate string) (string, bool) {
	c := strings.ToLower(strings.TrimSpace(candidate))
	if c == "" {
		return "", false
	}
	for i, l := range r.lower {
		if l == c {
			return r.names[i], true
		}
	}
	return "", false
}

// Fuzzy returns the entry with the best Similarity score, provided the score
// exceeds MatchThreshold. Ties go to the earlier roster entry.
func (r Roster) Fuzzy(candidate string) (string, float64, bool) {
	bestIdx, best := -1, 0.0
	for i, name := range r.names {
		if s := Similarity(candidate, name); s > best {
			bestIdx, best = i, s
		}
	}
	if bestIdx < 0 || best <= MatchThreshold {
		return "", best, false
	}
	return r.names[bestIdx], best, true
}

// Within returns the first entry that occurs in text as a whole phrase,
// ignoring case.
func (r Roster) Within(text string) (string, bool) {
	t := strings.ToLower(text)
	for i, l := range r.lower {
		if containsPhrase(t, l) {
			return r.names[i], true
		}
	}
	return "", false
}

// containsPhrase reports whether phrase occurs in text bounded by non-word
// characters, so "art" is not found inside "started".
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	for start := 0; ; {
		i := strings.Index(text[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if (i == 0 || !isWordByte(text[i-1])) && (end == len(text) || !isWordByte(text[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}
