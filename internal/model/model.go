// Package model defines the classifier and sequence-tagger service contracts
// and their implementations: Gemini and OpenAI-compatible function calling,
// a BM25 exemplar classifier and a rule-based BIO tagger.
//
// Services report failures as errors. Turning a failure into a fallback is
// the caller's job; nothing here retries.
package model

import (
	"context"
	"slices"

	"github.com/garyellow/companion-nlu-go/internal/nlu"
)

// Classification is the output of an intent classifier. A classifier sets
// LabelProbability, ClassProbability, or both.
type Classification struct {
	Label            string
	LabelProbability *float64
	ClassProbability map[string]float64
}

// Confidence returns LabelProbability, falling back to the label's entry in
// ClassProbability.
func (c Classification) Confidence() (float64, bool) {
	if c.LabelProbability != nil {
		return *c.LabelProbability, true
	}
	p, ok := c.ClassProbability[c.Label]
	return p, ok
}

// Classifier predicts the intent label of an utterance.
type Classifier interface {
	Classify(ctx context.Context, text string) (Classification, error)
	Name() string
}

// TaggerOutput is a BIO-labelled token sequence.
type TaggerOutput struct {
	Tokens []string `json:"tokens"`
	Labels []string `json:"labels"`
}

// Valid reports whether tokens and labels line up and are non-empty.
func (o TaggerOutput) Valid() bool {
	return len(o.Tokens) > 0 && len(o.Tokens) == len(o.Labels)
}

// Tagger labels the tokens of an utterance for one intent.
type Tagger interface {
	Tag(ctx context.Context, text string) (TaggerOutput, error)
	Name() string
}

// Services groups the classifier and the per-intent taggers. Any of them may
// be nil.
type Services struct {
	Classifier Classifier
	Taggers    map[nlu.Intent]Tagger
}

// Tagger returns the tagger for an intent, or nil.
func (s Services) Tagger(intent nlu.Intent) Tagger {
	return s.Taggers[intent]
}

// ValidLabel reports whether label names a known intent.
func ValidLabel(label string) bool {
	_, ok := nlu.ParseIntent(label)
	return ok
}

// tagLabels lists the entity types each intent's tagger may emit.
var tagLabels = map[nlu.Intent][]nlu.Slot{
	nlu.IntentGradeTracking: {
		nlu.SlotCourseName, nlu.SlotCourseCode, nlu.SlotAssignment, nlu.SlotScoreValue,
		nlu.SlotMaxScore, nlu.SlotWeightPercent, nlu.SlotLetterGrade,
	},
	nlu.IntentEventReminder: {
		nlu.SlotEvent, nlu.SlotDateAbs, nlu.SlotDateRel, nlu.SlotTime,
		nlu.SlotRelDuration, nlu.SlotCategory, nlu.SlotRemOffset,
	},
	nlu.IntentScheduledEvent: {
		nlu.SlotEvent, nlu.SlotDayOfWeek, nlu.SlotTime, nlu.SlotRemOffset, nlu.SlotCategory,
	},
}

// TagLabels returns the entity types a tagger for intent may emit.
func TagLabels(intent nlu.Intent) []nlu.Slot {
	return slices.Clone(tagLabels[intent])
}
