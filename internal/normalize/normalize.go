// Package normalize reconciles an extracted entity bag: lexicon aliases are
// applied, the course is matched against the roster, numeric slots are
// cleaned, scores are reduced to percentages and known slot mix-ups are
// repaired.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/lexicon"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/stringutil"
)

const percentWord = "percent"

// tokenGap matches the spaces a tagger leaves around punctuation when it
// joins tokens: "4 : 15 pm", "2025 - 03 - 14", "march 3 , 2025".
var tokenGap = regexp.MustCompile(`\s*([:/-])\s*|\s+([,.])`)

// Normalizer applies the reconciliation steps against one lexicon and
// roster snapshot.
type Normalizer struct {
	lex      *lexicon.Lexicon
	resolver *course.Resolver
}

// New creates a Normalizer. resolver may be nil, which skips roster
// matching.
func New(lex *lexicon.Lexicon, resolver *course.Resolver) *Normalizer {
	return &Normalizer{lex: lex, resolver: resolver}
}

// Normalize returns a reconciled copy of entities; the input is not
// modified. Numeric cleanup only applies to grade_tracking.
func (n *Normalizer) Normalize(intent nlu.Intent, entities nlu.Entities) nlu.Entities {
	out := entities.Clone()

	joinPunctuation(out)
	n.substituteAliases(out)
	n.matchCourse(out)
	if intent == nlu.IntentGradeTracking {
		coerceNumbers(out)
	}
	reduceScore(out)
	repairPercent(out)
	if out.Has(nlu.SlotScoreValue) {
		out.Delete(nlu.SlotLetterGrade)
	}

	out.Delete(nlu.SlotCourseCode)
	out.Delete(nlu.SlotCourseAlias)
	return out
}

// joinPunctuation closes the gaps around punctuation in clock times and
// dates.
func joinPunctuation(e nlu.Entities) {
	for _, slot := range []nlu.Slot{nlu.SlotTime, nlu.SlotDateAbs} {
		if e.Has(slot) {
			e.Set(slot, tokenGap.ReplaceAllString(e.Get(slot), "${1}${2}"))
		}
	}
}

func (n *Normalizer) substituteAliases(e nlu.Entities) {
	for _, slot := range []nlu.Slot{nlu.SlotDateAbs, nlu.SlotDateRel, nlu.SlotDayOfWeek} {
		if e.Has(slot) {
			e.Set(slot, n.lex.CanonicalDate(e.Get(slot)))
		}
	}
	if e.Has(nlu.SlotTime) {
		e.Set(nlu.SlotTime, n.lex.CanonicalTime(e.Get(nlu.SlotTime)))
	}
	if e.Has(nlu.SlotAssignment) {
		e.Set(nlu.SlotAssignment, n.lex.CanonicalAssignment(e.Get(nlu.SlotAssignment)))
	}
	if !e.Has(nlu.SlotWeightPercent) && e.Has(nlu.SlotWeight) {
		e.Set(nlu.SlotWeightPercent, e.Get(nlu.SlotWeight))
	}
	e.Delete(nlu.SlotWeight)

	switch {
	case e.Has(nlu.SlotCourseName):
		e.Set(nlu.SlotCourseName, n.lex.CanonicalCourse(e.Get(nlu.SlotCourseName)))
	case e.Has(nlu.SlotCourseCode):
		e.Set(nlu.SlotCourseName, n.lex.CanonicalCourse(e.Get(nlu.SlotCourseCode)))
	case e.Has(nlu.SlotCourseAlias):
		if name, ok := n.lex.CourseAlias(e.Get(nlu.SlotCourseAlias)); ok {
			e.Set(nlu.SlotCourseName, name)
		}
	}
}

// courseCandidate returns the raw course reference in slot precedence
// order.
func courseCandidate(e nlu.Entities) string {
	for _, slot := range []nlu.Slot{nlu.SlotCourseName, nlu.SlotCourseCode, nlu.SlotCourseAlias} {
		if v := e.Get(slot); v != "" {
			return v
		}
	}
	return ""
}

// matchCourse resolves the course against the roster. An unresolved name
// stays as extracted so a later disambiguation can act on it. An alias that
// neither the lexicon nor the roster knows is title-cased into the name.
func (n *Normalizer) matchCourse(e nlu.Entities) {
	if n.resolver != nil {
		raw := courseCandidate(e)
		if raw != "" {
			if name, ok := n.resolver.Resolve(raw); ok {
				e.Set(nlu.SlotCourseName, name)
			}
		}
	}
	if !e.Has(nlu.SlotCourseName) && e.Has(nlu.SlotCourseAlias) {
		e.Set(nlu.SlotCourseName, stringutil.TitleCase(e.Get(nlu.SlotCourseAlias)))
	}
}

// coerceNumbers strips everything but digits and dots from the score and
// weight and drops values that still do not parse. A weight that is the bare
// word "percent" is left for repairPercent.
func coerceNumbers(e nlu.Entities) {
	for _, slot := range []nlu.Slot{nlu.SlotScoreValue, nlu.SlotWeightPercent} {
		v := e.Get(slot)
		if v == "" {
			continue
		}
		if slot == nlu.SlotWeightPercent && strings.EqualFold(v, percentWord) {
			continue
		}
		cleaned := stringutil.KeepNumeric(v)
		if _, err := strconv.ParseFloat(cleaned, 64); err != nil {
			e.Delete(slot)
			continue
		}
		e.Set(slot, cleaned)
	}
}

// reduceScore turns a score out of MAX_SCORE into a percentage.
func reduceScore(e nlu.Entities) {
	score, ok := parse(e.Get(nlu.SlotScoreValue))
	if !ok {
		return
	}
	maxScore, ok := parse(e.Get(nlu.SlotMaxScore))
	if !ok || maxScore <= 0 {
		return
	}
	e.Set(nlu.SlotScoreValue, fmt.Sprintf("%.2f", score/maxScore*100))
	e.Delete(nlu.SlotMaxScore)
}

// repairPercent handles a one-word follow-up ("20 percent") whose number
// landed in SCORE_VALUE and whose unit landed in WEIGHT_PERCENT.
func repairPercent(e nlu.Entities) {
	if !strings.EqualFold(e.Get(nlu.SlotWeightPercent), percentWord) {
		return
	}
	if _, ok := parse(e.Get(nlu.SlotScoreValue)); ok {
		e.Set(nlu.SlotWeightPercent, e.Get(nlu.SlotScoreValue))
		e.Delete(nlu.SlotScoreValue)
		return
	}
	e.Delete(nlu.SlotWeightPercent)
}

func parse(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}
