package dialogue

import (
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

// IsSingleWord reports whether a normalized utterance is exactly one token.
func IsSingleWord(text string) bool {
	return len(strings.Fields(text)) == 1
}

// Router maps a one-word follow-up reply to an intent and a single slot.
type Router struct {
	lex    *lexicon.Lexicon
	roster course.Roster
}

// NewRouter creates a Router over one lexicon and roster snapshot.
func NewRouter(lex *lexicon.Lexicon, roster course.Roster) *Router {
	return &Router{lex: lex, roster: roster}
}

// Route classifies word. The first matching rule wins: roster course,
// course alias, assignment, weekday, other date word, time word, clock-like
// token, score-like token, and finally an event name.
func (r *Router) Route(word string) (nlu.Intent, nlu.Entities) {
	word = strings.TrimSpace(word)
	if trimmed := stringutil.TrimPunct(word); trimmed != "" {
		word = trimmed
	}
	lower := strings.ToLower(word)

	if name, ok := r.roster.Exact(word); ok {
		return nlu.IntentGradeTracking, nlu.Entities{nlu.SlotCourseName: name}
	}
	if name, ok := r.lex.CourseAlias(lower); ok {
		return nlu.IntentGradeTracking, nlu.Entities{nlu.SlotCourseName: name}
	}
	if v, ok := r.lex.Assignment(lower); ok {
		return nlu.IntentGradeTracking, nlu.Entities{nlu.SlotAssignment: v}
	}
	if v, ok := r.lex.Date(lower); ok {
		if lexicon.IsWeekday(v) {
			return nlu.IntentScheduledEvent, nlu.Entities{nlu.SlotDayOfWeek: v}
		}
		return nlu.IntentEventReminder, nlu.Entities{nlu.SlotDateRel: v}
	}
	if v, ok := r.lex.Time(lower); ok {
		return nlu.IntentEventReminder, nlu.Entities{nlu.SlotTime: v}
	}
	if looksLikeTime(lower) {
		return nlu.IntentEventReminder, nlu.Entities{nlu.SlotTime: word}
	}
	if strings.Contains(word, "%") || stringutil.IsDecimal(word) {
		return nlu.IntentGradeTracking, nlu.Entities{nlu.SlotScoreValue: word}
	}
	return nlu.IntentEventReminder, nlu.Entities{nlu.SlotEvent: word}
}

// looksLikeTime accepts "10:30" and "5pm"; "program" is not a time.
func looksLikeTime(lower string) bool {
	if strings.Contains(lower, ":") {
		return true
	}
	for _, suffix := range []string{"am", "pm"} {
		if digits, ok := strings.CutSuffix(lower, suffix); ok && digits != "" {
			return stringutil.IsNumeric(strings.TrimSuffix(digits, "."))
		}
	}
	return false
}
