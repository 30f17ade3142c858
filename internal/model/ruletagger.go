package model

import (
	"context"
	"regexp"
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

// tokenPattern splits text into numbers, words and single punctuation marks.
// ISO dates, clock times and "5pm" stay whole so spans keep their shape.
var tokenPattern = regexp.MustCompile(`(?i)\d{4}-\d{2}-\d{2}\b|\d{1,2}:\d{2}(?:am|pm)?\b|\d{1,2}(?:am|pm)\b|\d+(?:\.\d+)?|\w+|[^\w\s]`)

// tagRule labels the span of its pattern's first capture group, or the whole
// match when the pattern has no groups.
type tagRule struct {
	slot    nlu.Slot
	pattern *regexp.Regexp
}

// boundaryWords end a span unless they are its first token.
var boundaryWords = map[string]bool{
	"at": true, "on": true, "by": true, "before": true, "after": true,
	"every": true, "from": true, "until": true, "tomorrow": true, "today": true, "tonight": true,
}

const (
	numberRe   = `\d{1,3}(?:\.\d+)?`
	durationRe = `\d+\s*(?:min(?:ute)?s?|h(?:ou)?rs?|hours?|days?|weeks?)`
	timeRe     = `\b(?:\d{1,2}(?::\d{2})?\s*(?:am|pm)|\d{1,2}:\d{2}|noon|midnight)\b`
	weekdayRe  = `(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|mon|tues?|wed|thu(?:rs?)?|fri|sat|sun)s?`
	categoryRe = `(?i)\b(?:academics?|fitness|health|finance|errands|work|school|leisure|personal|selfcare|routine|chores)\b`
	remOffset  = `(?i)\b` + durationRe + `\s*(?:before|ahead|early)\b`
	monthRe    = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
)

// DateAbsPattern matches month-day dates ("march 3, 2025") and ISO dates.
var DateAbsPattern = regexp.MustCompile(`(?i)\b` + monthRe + `\.?\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s+\d{4})?\b|\b\d{4}-\d{2}-\d{2}\b`)

// Rules run in order; a token labelled by an earlier rule keeps its label.
var ruleTables = map[nlu.Intent][]tagRule{
	nlu.IntentGradeTracking: {
		{nlu.SlotWeightPercent, regexp.MustCompile(`(?i)\b(?:worth|weight(?:ed)?|of (?:the |my )?grade)\s+(` + numberRe + `\s*(?:%|percent)?)`)},
		{nlu.SlotScoreValue, regexp.MustCompile(`(?i)\b(` + numberRe + `)\s*(?:%|percent|/|out of)`)},
		{nlu.SlotMaxScore, regexp.MustCompile(`(?i)(?:/|out of)\s*(\d+(?:\.\d+)?)`)},
		{nlu.SlotLetterGrade, regexp.MustCompile(`\b(?i:got|received|earned|scored|an?)\s+([A-DF][+-]?)(?:\s|$|[.,!?])`)},
		{nlu.SlotAssignment, regexp.MustCompile(`(?i)\b(?:midterm exam|final exam|lab report|problem set|midterm|final|exam|quiz|test|assignment|homework|hw|pset|project|presentation|report|paper|essay|portfolio|lab)\b`)},
		{nlu.SlotCourseCode, regexp.MustCompile(`(?i)\b[a-z]{2,4}\d{3,4}\b`)},
		{nlu.SlotCourseName, regexp.MustCompile(`(?i)\b(?:computer science|math|chemistry|biology|physics|history|english|geography|economics|psychology|statistics|art|music|philosophy|sociology|engineering|marketing|finance|law|anthropology|astronomy|calc|calculus|logic|ethics|business|drama|design|neuroscience|journalism|robotics|nutrition|algebra|geometry)\b`)},
	},
	nlu.IntentEventReminder: {
		{nlu.SlotRemOffset, regexp.MustCompile(remOffset)},
		{nlu.SlotDateAbs, DateAbsPattern},
		{nlu.SlotDateRel, regexp.MustCompile(`(?i)\b(?:tomorrow|tmrw|tmr|today|tdy|yesterday|yday|tonight|(?:this|next)\s+(?:week(?:end)?|month|` + weekdayRe + `)|in\s+\d+\s+(?:days?|weeks?))\b`)},
		{nlu.SlotTime, regexp.MustCompile(`(?i)` + timeRe)},
		{nlu.SlotRelDuration, regexp.MustCompile(`(?i)\b(?:in|for)\s+(` + durationRe + `)\b`)},
		{nlu.SlotCategory, regexp.MustCompile(categoryRe)},
		{nlu.SlotEvent, regexp.MustCompile(`(?i)\bremind me (?:to|about)\s+((?:the\s+)?\w+(?:\s+\w+){0,4})`)},
		{nlu.SlotEvent, regexp.MustCompile(`(?i)\b((?:go to|attend|join|submit|finish|complete|study for|review for|call|text|email|meet with|visit|pay|return|buy|pick up|drop off|work on|check on)(?:\s+(?:the\s+)?\w+){1,3})`)},
	},
	nlu.IntentScheduledEvent: {
		{nlu.SlotRemOffset, regexp.MustCompile(remOffset)},
		{nlu.SlotDayOfWeek, regexp.MustCompile(`(?i)\b` + weekdayRe + `\b`)},
		{nlu.SlotTime, regexp.MustCompile(`(?i)` + timeRe)},
		{nlu.SlotCategory, regexp.MustCompile(categoryRe)},
		{nlu.SlotEvent, regexp.MustCompile(`(?i)\b(?:study session|group work|team sync|zoom call|office hours|soccer practice|class|lecture|meeting|gym|workout|run|walk|training|shift|lab|session|practice|presentation|seminar|call|checkup|tutoring|yoga)\b`)},
	},
}

// RuleTagger is a deterministic BIO tagger driven by per-intent pattern
// tables.
type RuleTagger struct {
	intent nlu.Intent
	rules  []tagRule
}

// NewRuleTagger returns the rule tagger for intent, or nil when the intent
// has no table.
func NewRuleTagger(intent nlu.Intent) *RuleTagger {
	rules, ok := ruleTables[intent]
	if !ok {
		return nil
	}
	return &RuleTagger{intent: intent, rules: rules}
}

// Tag implements Tagger.
func (t *RuleTagger) Tag(_ context.Context, text string) (TaggerOutput, error) {
	spans := tokenPattern.FindAllStringIndex(text, -1)
	if len(spans) == 0 {
		return TaggerOutput{}, malformed("no tokens")
	}
	tokens := make([]string, len(spans))
	labels := make([]string, len(spans))
	for i, sp := range spans {
		tokens[i] = text[sp[0]:sp[1]]
		labels[i] = "O"
	}

	for _, rule := range t.rules {
		for _, m := range rule.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := m[0], m[1]
			if len(m) >= 4 && m[2] >= 0 {
				start, end = m[2], m[3]
			}
			labelRun(tokens, spans, labels, start, end, rule.slot)
		}
	}
	return TaggerOutput{Tokens: tokens, Labels: labels}, nil
}

// labelRun labels the run of tokens inside [start,end). The run stops at a
// token another rule already labelled, or at a boundary word after its first
// token.
func labelRun(tokens []string, spans [][]int, labels []string, start, end int, slot nlu.Slot) {
	first := true
	for i, sp := range spans {
		if sp[0] < start || sp[1] > end {
			continue
		}
		if labels[i] != "O" || (!first && boundaryWords[strings.ToLower(tokens[i])]) {
			return
		}
		if first {
			labels[i] = "B-" + string(slot)
			first = false
		} else {
			labels[i] = "I-" + string(slot)
		}
	}
}

// Name implements Tagger.
func (t *RuleTagger) Name() string { return "rules" }

// RuleServices returns the exemplar classifier (when given) and a rule
// tagger for every known intent.
func RuleServices(classifier Classifier) Services {
	taggers := make(map[nlu.Intent]Tagger, len(ruleTables))
	for _, intent := range nlu.KnownIntents {
		if rt := NewRuleTagger(intent); rt != nil {
			taggers[intent] = rt
		}
	}
	return Services{Classifier: classifier, Taggers: taggers}
}
