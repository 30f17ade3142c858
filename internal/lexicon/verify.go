package lexicon

import (
	"fmt"
	"slices"
	"strings"
)

// Verify checks internal consistency and returns one message per problem:
// every weekday is reachable from the date table, no value is blank, and
// canonical values are fixed points of their own table.
func (l *Lexicon) Verify() []string {
	var problems []string

	reachable := make(map[string]bool)
	for _, v := range l.dates {
		reachable[key(v)] = true
	}
	for _, day := range Weekdays {
		if !reachable[day] {
			problems = append(problems, fmt.Sprintf("dates: weekday %q is not reachable", day))
		}
	}

	tables := []struct {
		name string
		m    map[string]string
	}{
		{"dates", l.dates}, {"times", l.times}, {"assignments", l.assignments}, {"courses", l.courses},
	}
	for _, t := range tables {
		keys := make([]string, 0, len(t.m))
		for k := range t.m {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			v := t.m[k]
			if strings.TrimSpace(v) == "" {
				problems = append(problems, fmt.Sprintf("%s: %q has a blank value", t.name, k))
				continue
			}
			if again, ok := t.m[key(v)]; ok && again != v {
				problems = append(problems, fmt.Sprintf("%s: %q -> %q is not canonical (%q -> %q)", t.name, k, v, key(v), again))
			}
		}
	}
	return problems
}
