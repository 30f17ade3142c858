package extract

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

var (
	percentPattern  = regexp.MustCompile(`(\d+(?:\.\d+)?)%`)
	percentWordPat  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s+percent\b`)
	fractionPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*(\d+(?:\.\d+)?)`)
	weightPattern   = regexp.MustCompile(`(?i)\b(?:worth|of grade|weight)\s+(\d+(?:\.\d+)?%?)`)
	timePattern     = regexp.MustCompile(`(?i)\b\d{1,2}(?::?\d{2})?\s*(?:am|pm)\b`)
	clockPattern    = regexp.MustCompile(`\b\d{1,2}:\d{2}\b`)
	durationPattern = regexp.MustCompile(`(?i)\b(?:for|duration)\s+(\d+\s*(?:hours|hour|hrs|hr|minutes|minute|mins|min))\b`)
)

// weightWords mark a following percentage as a weight, not a score.
var weightWords = []string{"worth", "weight", "weighted"}

// fillerPrefixes are stripped from the start of an utterance before the
// event name is read. Longer prefixes come first.
var fillerPrefixes = []string{
	"remind me to", "remind me about", "remind me",
	"don't forget to", "dont forget to",
	"i have to", "i need to", "i have", "i've got",
}

var articles = map[string]bool{"the": true, "a": true, "an": true, "my": true}

// eventStops end an event name.
var eventStops = map[string]bool{
	"at": true, "on": true, "by": true, "in": true, "for": true, "every": true,
	"from": true, "until": true, "this": true, "next": true, "before": true, "after": true,
	"tomorrow": true, "today": true, "tonight": true,
}

// ExtractScore finds a score: a percentage not preceded by a weight word,
// then "<n> percent" under the same exclusion, then a fraction converted to
// a percentage with two decimals. The first rule that matches wins.
func ExtractScore(text string) string {
	if v := firstUnweighted(percentPattern, text); v != "" {
		return v
	}
	if v := firstUnweighted(percentWordPat, text); v != "" {
		return v
	}
	for _, m := range fractionPattern.FindAllStringSubmatch(text, -1) {
		num, err1 := strconv.ParseFloat(m[1], 64)
		den, err2 := strconv.ParseFloat(m[2], 64)
		if err1 != nil || err2 != nil || den == 0 {
			continue
		}
		return fmt.Sprintf("%.2f", num/den*100)
	}
	return ""
}

func firstUnweighted(pattern *regexp.Regexp, text string) string {
	for _, m := range pattern.FindAllStringSubmatchIndex(text, -1) {
		before := strings.ToLower(strings.TrimSpace(text[:m[0]]))
		weighted := false
		for _, w := range weightWords {
			if strings.HasSuffix(before, w) {
				weighted = true
				break
			}
		}
		if !weighted {
			return text[m[2]:m[3]]
		}
	}
	return ""
}

// ExtractWeight finds a grade weight such as "worth 20%".
func ExtractWeight(text string) string {
	if m := weightPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// ExtractAssignment looks words up in the assignment table. A two-word
// phrase ("midterm exam") takes precedence over a single word.
func ExtractAssignment(lex *lexicon.Lexicon, text string) string {
	words := stringutil.Words(text)
	var found string
	for _, w := range words {
		if v, ok := lex.Assignment(w); ok {
			found = v
			break
		}
	}
	for i := 0; i+1 < len(words); i++ {
		if v, ok := lex.Assignment(words[i] + " " + words[i+1]); ok {
			return v
		}
	}
	return found
}

// ExtractEvent strips a leading filler phrase and returns the first one or
// two words that follow, stopping at dates, times and prepositions.
func ExtractEvent(lex *lexicon.Lexicon, text string) string {
	rest := strings.ToLower(stringutil.NormalizeUtterance(text))
	for _, p := range fillerPrefixes {
		if rest == p || strings.HasPrefix(rest, p+" ") {
			rest = strings.TrimSpace(rest[len(p):])
			break
		}
	}

	var picked []string
	for _, w := range stringutil.Words(rest) {
		if len(picked) == 2 {
			break
		}
		if articles[w] {
			continue
		}
		if eventStops[w] || isTemporal(lex, w) || stringutil.IsDecimal(strings.TrimSuffix(w, "%")) {
			break
		}
		picked = append(picked, w)
	}
	return strings.Join(picked, " ")
}

func isTemporal(lex *lexicon.Lexicon, w string) bool {
	if _, ok := lex.Date(w); ok {
		return true
	}
	if _, ok := lex.Time(w); ok {
		return true
	}
	return timePattern.MatchString(w) || clockPattern.MatchString(w)
}

// ExtractTime finds a clock time. An explicit "5pm" or "10:30" wins over
// time-of-day words such as "noon".
func ExtractTime(lex *lexicon.Lexicon, text string) string {
	if m := timePattern.FindString(text); m != "" {
		return m
	}
	if m := clockPattern.FindString(text); m != "" {
		return m
	}
	for _, w := range stringutil.Words(text) {
		if v, ok := lex.Time(w); ok {
			return v
		}
	}
	return ""
}

// ExtractDates finds an absolute date, a relative date and a weekday. Date
// words that map to a weekday fill DAY_OF_WEEK; the rest fill DATE_REL.
func ExtractDates(lex *lexicon.Lexicon, text string) nlu.Entities {
	out := nlu.Entities{}
	if m := model.DateAbsPattern.FindString(text); m != "" {
		out.Set(nlu.SlotDateAbs, m)
	}
	for _, w := range stringutil.Words(text) {
		v, ok := lex.Date(w)
		if !ok {
			continue
		}
		slot := nlu.SlotDateRel
		if lexicon.IsWeekday(v) {
			slot = nlu.SlotDayOfWeek
		}
		if !out.Has(slot) {
			out.Set(slot, v)
		}
	}
	return out
}

// ExtractDuration finds "for 2 hours" style durations.
func ExtractDuration(text string) string {
	if m := durationPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// fallbacks binds the deterministic extractors to one lexicon and resolver.
type fallbacks struct {
	lex      *lexicon.Lexicon
	resolver *course.Resolver
}

func (f fallbacks) grade(ctx context.Context, text string) nlu.Entities {
	out := nlu.Entities{}
	if f.resolver != nil {
		if name, ok := f.resolver.ExtractCourse(ctx, text); ok {
			out.Set(nlu.SlotCourseName, name)
		}
	}
	out.Set(nlu.SlotAssignment, ExtractAssignment(f.lex, text))
	out.Set(nlu.SlotScoreValue, ExtractScore(text))
	out.Set(nlu.SlotWeightPercent, ExtractWeight(text))
	return out
}

func (f fallbacks) reminder(_ context.Context, text string) nlu.Entities {
	out := ExtractDates(f.lex, text)
	out.Set(nlu.SlotEvent, ExtractEvent(f.lex, text))
	out.Set(nlu.SlotTime, ExtractTime(f.lex, text))
	out.Set(nlu.SlotRelDuration, ExtractDuration(text))
	return out
}

func (f fallbacks) scheduled(_ context.Context, text string) nlu.Entities {
	out := nlu.Entities{}
	out.Set(nlu.SlotDayOfWeek, ExtractDates(f.lex, text).Get(nlu.SlotDayOfWeek))
	out.Set(nlu.SlotEvent, ExtractEvent(f.lex, text))
	out.Set(nlu.SlotTime, ExtractTime(f.lex, text))
	out.Set(nlu.SlotRelDuration, ExtractDuration(text))
	return out
}

// all runs every fallback once and unions the results.
func (f fallbacks) all(ctx context.Context, text string) nlu.Entities {
	out := f.grade(ctx, text)
	for k, v := range f.reminder(ctx, text) {
		out.Set(k, v)
	}
	return out
}
