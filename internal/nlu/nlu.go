// Package nlu defines the shared vocabulary of the command understanding
// engine: intents, entity slots and the entity bag passed through the
// extraction and normalization pipeline.
package nlu

import (
	"slices"
	"strings"
)

// Intent is the high-level action category inferred from an utterance.
type Intent string

const (
	IntentGradeTracking  Intent = "grade_tracking"
	IntentEventReminder  Intent = "event_reminder"
	IntentScheduledEvent Intent = "scheduled_event"
	IntentUnknown        Intent = "unknown"
)

// KnownIntents lists the intents that have a dedicated extractor.
var KnownIntents = []Intent{IntentGradeTracking, IntentEventReminder, IntentScheduledEvent}

// ParseIntent maps a label to an Intent. Labels outside the enumeration
// (including "unknown") are reported as not ok.
func ParseIntent(label string) (Intent, bool) {
	intent := Intent(strings.ToLower(strings.TrimSpace(label)))
	if slices.Contains(KnownIntents, intent) {
		return intent, true
	}
	return IntentUnknown, false
}

// String returns the wire name of the intent.
func (i Intent) String() string {
	return string(i)
}

// Slot is an entity slot name drawn from a fixed vocabulary.
type Slot string

// Core vocabulary.
const (
	SlotCourseName    Slot = "COURSE_NAME"
	SlotAssignment    Slot = "ASSIGNMENT"
	SlotScoreValue    Slot = "SCORE_VALUE"
	SlotWeightPercent Slot = "WEIGHT_PERCENT"
	SlotMaxScore      Slot = "MAX_SCORE"
	SlotEvent         Slot = "EVENT"
	SlotTime          Slot = "TIME"
	SlotDateAbs       Slot = "DATE_ABS"
	SlotDateRel       Slot = "DATE_REL"
	SlotDayOfWeek     Slot = "DAY_OF_WEEK"
	SlotRelDuration   Slot = "REL_DURATION"
)

// Auxiliary slots produced by taggers and folded or pruned by normalization.
const (
	SlotCourseCode  Slot = "COURSE_CODE"
	SlotCourseAlias Slot = "COURSE_ALIAS"
	SlotWeight      Slot = "WEIGHT" // legacy spelling of WEIGHT_PERCENT
	SlotLetterGrade Slot = "LETTER_GRADE"
	SlotCategory    Slot = "CATEGORY"
	SlotRemOffset   Slot = "REM_OFFSET"
)

// slotOrder fixes the presentation order of Entities.Keys.
var slotOrder = []Slot{
	SlotCourseName, SlotCourseCode, SlotCourseAlias,
	SlotAssignment, SlotScoreValue, SlotMaxScore, SlotLetterGrade,
	SlotWeightPercent, SlotWeight,
	SlotEvent, SlotCategory,
	SlotDateAbs, SlotDateRel, SlotDayOfWeek, SlotTime,
	SlotRelDuration, SlotRemOffset,
}

// Entities is the entity bag: unique slot keys mapped to string values.
// Later writes overwrite earlier ones.
type Entities map[Slot]string

// Get returns the trimmed value of a slot.
func (e Entities) Get(slot Slot) string {
	return strings.TrimSpace(e[slot])
}

// Has reports whether the slot holds a non-blank value.
func (e Entities) Has(slot Slot) bool {
	return e.Get(slot) != ""
}

// Set stores a value; blank values delete the slot instead.
func (e Entities) Set(slot Slot, value string) {
	if strings.TrimSpace(value) == "" {
		delete(e, slot)
		return
	}
	e[slot] = value
}

// Delete removes a slot.
func (e Entities) Delete(slot Slot) {
	delete(e, slot)
}

// Clone returns an independent copy.
func (e Entities) Clone() Entities {
	out := make(Entities, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}

// Keys returns the populated slots in vocabulary order; slots outside the
// vocabulary follow in lexical order.
func (e Entities) Keys() []Slot {
	keys := make([]Slot, 0, len(e))
	for _, s := range slotOrder {
		if _, ok := e[s]; ok {
			keys = append(keys, s)
		}
	}
	var extra []Slot
	for k := range e {
		if !slices.Contains(slotOrder, k) {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(keys, extra...)
}

// Source tells which path produced a classification. Confidence values are
// only comparable within one source.
type Source string

const (
	SourceModel          Source = "model"
	SourceKeywordNoModel Source = "keyword_no_model"
	SourceKeywordNoLabel Source = "keyword_no_label"
	SourceKeywordError   Source = "keyword_error"
	SourceSingleWord     Source = "single_word"
	SourceEmpty          Source = "empty"
)

// Result is the outcome of processing one utterance.
type Result struct {
	Intent     Intent   `json:"intent"`
	Entities   Entities `json:"entities"`
	Confidence float64  `json:"confidence"`
	Source     Source   `json:"source"`
}
