// Package dialogue tracks slot filling: which fields an intent needs, which
// are still missing, what to ask next, and how a one-word reply is routed.
package dialogue

import (
	"slices"
	"strings"

	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

var requiredFields = map[nlu.Intent][]nlu.Slot{
	nlu.IntentGradeTracking:  {nlu.SlotCourseName, nlu.SlotAssignment, nlu.SlotScoreValue, nlu.SlotWeightPercent},
	nlu.IntentScheduledEvent: {nlu.SlotEvent, nlu.SlotDayOfWeek, nlu.SlotTime},
	nlu.IntentEventReminder:  {nlu.SlotEvent, nlu.SlotTime},
}

// presentWhen lists the slots that satisfy a required field. Fields not
// listed are satisfied by themselves.
var presentWhen = map[nlu.Slot][]nlu.Slot{
	nlu.SlotCourseName:    {nlu.SlotCourseName, nlu.SlotCourseCode, nlu.SlotCourseAlias},
	nlu.SlotWeightPercent: {nlu.SlotWeightPercent, nlu.SlotWeight},
}

type questionKey struct {
	intent nlu.Intent
	field  nlu.Slot
}

var questions = map[questionKey]string{
	{nlu.IntentGradeTracking, nlu.SlotCourseName}:    "Which course is this for?",
	{nlu.IntentGradeTracking, nlu.SlotAssignment}:    "Which assignment was it?",
	{nlu.IntentGradeTracking, nlu.SlotScoreValue}:    "What score did you get?",
	{nlu.IntentGradeTracking, nlu.SlotWeightPercent}: "How much is it worth toward your grade?",
	{nlu.IntentScheduledEvent, nlu.SlotEvent}:        "What is the recurring event?",
	{nlu.IntentScheduledEvent, nlu.SlotDayOfWeek}:    "Which day of the week does it happen?",
	{nlu.IntentScheduledEvent, nlu.SlotTime}:         "What time does it start?",
	{nlu.IntentEventReminder, nlu.SlotEvent}:         "What should I remind you about?",
	{nlu.IntentEventReminder, nlu.SlotTime}:          "What time should I remind you?",
}

// RequiredFields returns the fields an intent needs, in asking order. The
// unknown intent needs none.
func RequiredFields(intent nlu.Intent) []nlu.Slot {
	return slices.Clone(requiredFields[intent])
}

// MissingFields returns the required fields that entities do not satisfy,
// in RequiredFields order.
func MissingFields(intent nlu.Intent, entities nlu.Entities) []nlu.Slot {
	var missing []nlu.Slot
	for _, field := range requiredFields[intent] {
		if !present(field, entities) {
			missing = append(missing, field)
		}
	}
	return missing
}

func present(field nlu.Slot, entities nlu.Entities) bool {
	alternatives, ok := presentWhen[field]
	if !ok {
		return entities.Has(field)
	}
	for _, slot := range alternatives {
		if entities.Has(slot) {
			return true
		}
	}
	return false
}

// FollowUpQuestion returns the canned question for a field. Unlisted pairs
// get a question built from the field name.
func FollowUpQuestion(intent nlu.Intent, field nlu.Slot) string {
	if q, ok := questions[questionKey{intent, field}]; ok {
		return q
	}
	name := strings.ToLower(strings.ReplaceAll(string(field), "_", " "))
	return "What is the " + name + "?"
}
